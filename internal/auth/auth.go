// Package auth defines the identity provider port: email/password sign-in and
// sign-up, sign-out, credential updates, and a state-change subscription.
package auth

import (
	"context"
	"errors"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailInUse         = errors.New("email already in use")
	ErrNotSignedIn        = errors.New("not signed in")
)

// Identity is the authenticated principal.
type Identity struct {
	UID   string
	Email string
}

type Provider interface {
	SignIn(ctx context.Context, email, password string) (Identity, error)
	SignUp(ctx context.Context, email, password string) (Identity, error)
	SignOut(ctx context.Context) error

	// UpdateEmail and UpdatePassword act on the currently signed-in identity.
	UpdateEmail(ctx context.Context, newEmail string) error
	UpdatePassword(ctx context.Context, newPassword string) error

	// Subscribe registers fn and invokes it immediately with the current
	// identity (nil when signed out), then again on every state change.
	// The returned func unsubscribes.
	Subscribe(fn func(*Identity)) (unsubscribe func())
}
