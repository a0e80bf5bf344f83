// Package memory is an in-process identity provider for tests and the demo
// backend. Passwords are bcrypt-hashed; state lives only for the process.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"moni/internal/auth"
)

type account struct {
	uid  string
	hash []byte
}

type Provider struct {
	mu        sync.Mutex
	accounts  map[string]*account // keyed by email
	current   *auth.Identity
	listeners map[int]func(*auth.Identity)
	nextSub   int
}

func New() *Provider {
	return &Provider{
		accounts:  make(map[string]*account),
		listeners: make(map[int]func(*auth.Identity)),
	}
}

func (p *Provider) SignIn(_ context.Context, email, password string) (auth.Identity, error) {
	p.mu.Lock()
	acct, ok := p.accounts[email]
	p.mu.Unlock()
	if !ok {
		return auth.Identity{}, auth.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acct.hash, []byte(password)); err != nil {
		return auth.Identity{}, auth.ErrInvalidCredentials
	}
	id := auth.Identity{UID: acct.uid, Email: email}
	p.setCurrent(&id)
	return id, nil
}

func (p *Provider) SignUp(_ context.Context, email, password string) (auth.Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return auth.Identity{}, err
	}

	p.mu.Lock()
	if _, exists := p.accounts[email]; exists {
		p.mu.Unlock()
		return auth.Identity{}, auth.ErrEmailInUse
	}
	acct := &account{uid: uuid.NewString(), hash: hash}
	p.accounts[email] = acct
	p.mu.Unlock()

	id := auth.Identity{UID: acct.uid, Email: email}
	p.setCurrent(&id)
	return id, nil
}

func (p *Provider) SignOut(_ context.Context) error {
	p.setCurrent(nil)
	return nil
}

func (p *Provider) UpdateEmail(_ context.Context, newEmail string) error {
	p.mu.Lock()
	if p.current == nil {
		p.mu.Unlock()
		return auth.ErrNotSignedIn
	}
	if _, exists := p.accounts[newEmail]; exists {
		p.mu.Unlock()
		return auth.ErrEmailInUse
	}
	acct := p.accounts[p.current.Email]
	delete(p.accounts, p.current.Email)
	p.accounts[newEmail] = acct
	updated := &auth.Identity{UID: p.current.UID, Email: newEmail}
	p.mu.Unlock()

	p.setCurrent(updated)
	return nil
}

func (p *Provider) UpdatePassword(_ context.Context, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return auth.ErrNotSignedIn
	}
	p.accounts[p.current.Email].hash = hash
	return nil
}

func (p *Provider) Subscribe(fn func(*auth.Identity)) func() {
	p.mu.Lock()
	sub := p.nextSub
	p.nextSub++
	p.listeners[sub] = fn
	current := p.current
	p.mu.Unlock()

	// Initial delivery, matching remote providers that replay current state.
	fn(current)

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners, sub)
	}
}

func (p *Provider) setCurrent(id *auth.Identity) {
	p.mu.Lock()
	p.current = id
	fns := make([]func(*auth.Identity), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(id)
	}
}
