// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

// Principal is the authenticated identity handed to request handlers.
// It has the same shape whichever adapter produced it and is never persisted.
type Principal struct {
	ID          string `json:"id"`              // Local user id or the provider's subject.
	DisplayName string `json:"displayName"`     // Username in session mode, best available name claim in token mode.
	Email       string `json:"email,omitempty"` // Only set when the identity source knows it.
}
