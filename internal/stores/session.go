package stores

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"moni/internal/auth"
	"moni/internal/cache"
	"moni/internal/core"
	"moni/internal/docstore"
)

const (
	userCacheSize = 256
	userCacheTTL  = 5 * time.Minute
)

// SessionStore wraps the identity provider and exposes the current identity
// plus user lookup and prefix search over the users collection.
type SessionStore struct {
	provider auth.Provider
	docs     docstore.Store
	users    *cache.LRU[core.User]

	mu          sync.Mutex
	user        *auth.Identity
	unsubscribe func()
}

func NewSessionStore(provider auth.Provider, docs docstore.Store) *SessionStore {
	return &SessionStore{
		provider: provider,
		docs:     docs,
		users:    cache.NewLRU[core.User](userCacheSize, userCacheTTL),
	}
}

// Init subscribes to provider state changes; the subscription delivers the
// current identity immediately, including the signed-out initial state.
func (s *SessionStore) Init() {
	s.mu.Lock()
	if s.unsubscribe != nil {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	unsub := s.provider.Subscribe(func(id *auth.Identity) {
		s.mu.Lock()
		s.user = id
		s.mu.Unlock()
	})

	s.mu.Lock()
	s.unsubscribe = unsub
	s.mu.Unlock()
}

// Close tears the session down at sign-out of the owning lifecycle.
func (s *SessionStore) Close() {
	s.mu.Lock()
	unsub := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// CurrentUser returns the signed-in identity, or nil.
func (s *SessionStore) CurrentUser() *auth.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	id := *s.user
	return &id
}

func (s *SessionStore) IsLoggedIn() bool {
	return s.CurrentUser() != nil
}

func (s *SessionStore) SignIn(ctx context.Context, email, password string) error {
	id, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		slog.ErrorContext(ctx, "Sign in failed", "email", email, "error", err)
		return err
	}
	s.mu.Lock()
	s.user = &id
	s.mu.Unlock()
	return nil
}

// SignUp creates the provider account and seeds the users document so the new
// account is discoverable by email search.
func (s *SessionStore) SignUp(ctx context.Context, email, password string) error {
	id, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		slog.ErrorContext(ctx, "Sign up failed", "email", email, "error", err)
		return err
	}
	s.mu.Lock()
	s.user = &id
	s.mu.Unlock()

	name := email
	if at := strings.Index(email, "@"); at > 0 {
		name = email[:at]
	}
	err = s.docs.Merge(ctx, core.CollectionUsers, id.UID, map[string]any{
		core.FieldName:      name,
		core.FieldEmail:     email,
		core.FieldCreatedAt: core.EncodeTime(time.Now()),
	})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to seed user record", "uid", id.UID, "error", err)
		return err
	}
	return nil
}

func (s *SessionStore) SignOut(ctx context.Context) error {
	if err := s.provider.SignOut(ctx); err != nil {
		slog.ErrorContext(ctx, "Sign out failed", "error", err)
		return err
	}
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
	return nil
}

// SearchUsersByEmail returns users whose email starts with prefix, excluding
// the caller. An empty prefix returns nothing.
func (s *SessionStore) SearchUsersByEmail(ctx context.Context, prefix string) ([]core.User, error) {
	if prefix == "" {
		return nil, nil
	}
	docs, err := s.docs.Query(ctx, core.CollectionUsers,
		docstore.Where(core.FieldEmail, docstore.OpGreaterOrEqual, prefix),
		docstore.Where(core.FieldEmail, docstore.OpLessOrEqual, prefix+docstore.PrefixEnd),
	)
	if err != nil {
		slog.ErrorContext(ctx, "User search failed", "prefix", prefix, "error", err)
		return nil, err
	}

	current := s.CurrentUser()
	var out []core.User
	for _, d := range docs {
		if current != nil && d.ID == current.UID {
			continue
		}
		out = append(out, core.UserFromDoc(d.ID, d.Fields))
	}
	return out, nil
}

// UsersByIDs resolves one user per existing ID, skipping missing ones.
// Results are served from the lookup cache when fresh.
func (s *SessionStore) UsersByIDs(ctx context.Context, ids []string) ([]core.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []core.User
	for _, id := range ids {
		if u, ok := s.users.Get(id); ok {
			out = append(out, u)
			continue
		}
		doc, err := s.docs.Get(ctx, core.CollectionUsers, id)
		if err == docstore.ErrNotFound {
			continue
		}
		if err != nil {
			slog.ErrorContext(ctx, "User lookup failed", "uid", id, "error", err)
			return nil, err
		}
		u := core.UserFromDoc(doc.ID, doc.Fields)
		s.users.Set(id, u)
		out = append(out, u)
	}
	return out, nil
}

// UserData returns the caller's own user document, or nil when signed out.
func (s *SessionStore) UserData(ctx context.Context) (*core.User, error) {
	current := s.CurrentUser()
	if current == nil {
		return nil, nil
	}
	doc, err := s.docs.Get(ctx, core.CollectionUsers, current.UID)
	if err == docstore.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user data: %w", err)
	}
	u := core.UserFromDoc(doc.ID, doc.Fields)
	return &u, nil
}

// UpdateEmail changes the provider identity's email and mirrors it into the
// users document.
func (s *SessionStore) UpdateEmail(ctx context.Context, newEmail string) error {
	current := s.CurrentUser()
	if current == nil {
		return nil
	}
	if err := s.provider.UpdateEmail(ctx, newEmail); err != nil {
		slog.ErrorContext(ctx, "Email update failed", "uid", current.UID, "error", err)
		return err
	}
	if err := s.docs.Merge(ctx, core.CollectionUsers, current.UID, map[string]any{
		core.FieldEmail: newEmail,
	}); err != nil {
		slog.ErrorContext(ctx, "Failed to mirror email into user record", "uid", current.UID, "error", err)
		return err
	}
	s.users.Delete(current.UID)
	s.mu.Lock()
	if s.user != nil {
		s.user.Email = newEmail
	}
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) UpdatePassword(ctx context.Context, newPassword string) error {
	if !s.IsLoggedIn() {
		return nil
	}
	if err := s.provider.UpdatePassword(ctx, newPassword); err != nil {
		slog.ErrorContext(ctx, "Password update failed", "error", err)
		return err
	}
	return nil
}
