package auth

import (
	"strings"

	"planner/config"
	"planner/internal/domain/service"
	"planner/internal/errors"
)

const (
	AlgorithmArgon2id = "argon2id"
	AlgorithmBcrypt   = "bcrypt"
)

// NewPasswordHasher builds the configured hasher behind a concurrency limiter.
// A nil config selects argon2id with default parameters.
func NewPasswordHasher(cfg *config.Config) (service.PasswordHasher, error) {
	var hasherCfg config.HasherConfig
	if cfg.Auth != nil && cfg.Auth.Hasher != nil {
		hasherCfg = *cfg.Auth.Hasher
	}

	var base service.PasswordHasher
	switch strings.ToLower(hasherCfg.Algorithm) {
	case "", AlgorithmArgon2id:
		base = NewArgon2idHasher(Argon2Params{
			Time:      hasherCfg.Argon2.Time,
			MemoryKiB: hasherCfg.Argon2.MemoryKiB,
			Threads:   hasherCfg.Argon2.Threads,
		})
	case AlgorithmBcrypt:
		base = NewBcryptHasher(hasherCfg.BcryptCost)
	default:
		return nil, errors.Errorf("unknown password hash algorithm %q", hasherCfg.Algorithm)
	}

	return NewLimitedHasher(base, hasherCfg.MaxConcurrent), nil
}
