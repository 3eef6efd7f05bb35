package auth

import (
	"fmt"
	"strings"

	"planner/internal/errors"
)

// Mode discriminates the two adapter variants.
type Mode string

const (
	ModeSession Mode = "session"
	ModeToken   Mode = "token"
)

func (m Mode) String() string {
	return string(m)
}

var (
	// ErrAlreadyInstalled is returned when Install runs more than once.
	ErrAlreadyInstalled = errors.New("auth adapter already installed")

	// ErrNotInstalled is returned by the session guard when Install was never called.
	ErrNotInstalled = errors.New("auth adapter not installed")
)

// UnsupportedModeError reports an unrecognised mode discriminator.
// It is a startup failure and never reaches request handling.
type UnsupportedModeError struct {
	Mode string
}

func (e *UnsupportedModeError) Error() string {
	return fmt.Sprintf("unsupported auth mode %q: expected %q or %q", e.Mode, ModeSession, ModeToken)
}

// ParseMode converts a configuration value into a Mode.
func ParseMode(raw string) (Mode, error) {
	switch mode := Mode(strings.ToLower(strings.TrimSpace(raw))); mode {
	case ModeSession, ModeToken:
		return mode, nil
	default:
		return "", &UnsupportedModeError{Mode: raw}
	}
}
