// Package gip signs users in against Google Identity Platform (the Firebase
// auth backend) through the identitytoolkit REST API, keyed by the project's
// web API key.
package gip

import (
	"context"
	"fmt"
	"sync"

	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"

	"moni/internal/auth"
)

type Provider struct {
	svc *identitytoolkit.RelyingpartyService

	mu        sync.Mutex
	current   *auth.Identity
	idToken   string
	listeners map[int]func(*auth.Identity)
	nextSub   int
}

func New(ctx context.Context, apiKey string) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gip: API key required")
	}
	svc, err := identitytoolkit.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create identitytoolkit service: %w", err)
	}
	return &Provider{
		svc:       identitytoolkit.NewRelyingpartyService(svc),
		listeners: make(map[int]func(*auth.Identity)),
	}, nil
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (auth.Identity, error) {
	resp, err := p.svc.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return auth.Identity{}, fmt.Errorf("verify password: %w", err)
	}
	id := auth.Identity{UID: resp.LocalId, Email: resp.Email}
	p.setCurrent(&id, resp.IdToken)
	return id, nil
}

func (p *Provider) SignUp(ctx context.Context, email, password string) (auth.Identity, error) {
	resp, err := p.svc.SignupNewUser(&identitytoolkit.IdentitytoolkitRelyingpartySignupNewUserRequest{
		Email:    email,
		Password: password,
	}).Context(ctx).Do()
	if err != nil {
		return auth.Identity{}, fmt.Errorf("sign up: %w", err)
	}
	id := auth.Identity{UID: resp.LocalId, Email: email}
	p.setCurrent(&id, resp.IdToken)
	return id, nil
}

func (p *Provider) SignOut(_ context.Context) error {
	p.setCurrent(nil, "")
	return nil
}

func (p *Provider) UpdateEmail(ctx context.Context, newEmail string) error {
	p.mu.Lock()
	current, token := p.current, p.idToken
	p.mu.Unlock()
	if current == nil {
		return auth.ErrNotSignedIn
	}

	resp, err := p.svc.SetAccountInfo(&identitytoolkit.IdentitytoolkitRelyingpartySetAccountInfoRequest{
		IdToken:           token,
		Email:             newEmail,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update email: %w", err)
	}

	updated := &auth.Identity{UID: current.UID, Email: newEmail}
	if resp.IdToken != "" {
		token = resp.IdToken
	}
	p.setCurrent(updated, token)
	return nil
}

func (p *Provider) UpdatePassword(ctx context.Context, newPassword string) error {
	p.mu.Lock()
	current, token := p.current, p.idToken
	p.mu.Unlock()
	if current == nil {
		return auth.ErrNotSignedIn
	}

	resp, err := p.svc.SetAccountInfo(&identitytoolkit.IdentitytoolkitRelyingpartySetAccountInfoRequest{
		IdToken:           token,
		Password:          newPassword,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if resp.IdToken != "" {
		p.mu.Lock()
		p.idToken = resp.IdToken
		p.mu.Unlock()
	}
	return nil
}

func (p *Provider) Subscribe(fn func(*auth.Identity)) func() {
	p.mu.Lock()
	sub := p.nextSub
	p.nextSub++
	p.listeners[sub] = fn
	current := p.current
	p.mu.Unlock()

	fn(current)

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners, sub)
	}
}

func (p *Provider) setCurrent(id *auth.Identity, token string) {
	p.mu.Lock()
	p.current = id
	p.idToken = token
	fns := make([]func(*auth.Identity), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(id)
	}
}
