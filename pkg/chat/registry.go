package chat

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const (
	// DefaultSessionTTL は最後に使われてからセッションを保持する期間です。
	DefaultSessionTTL      = 30 * time.Minute
	sessionCleanupInterval = 5 * time.Minute
)

// ErrSessionNotFound は存在しないか期限切れのセッションを参照したときに返されます。
var ErrSessionNotFound = errors.New("chat session not found")

// Registry は HTTP 経由で開かれたセッションを ID で管理します。
type Registry struct {
	factory BackendFactory
	tr      Translator
	ttl     time.Duration
	store   *cache.Cache
}

// NewRegistry は Registry を生成します。ttl が 0 以下なら DefaultSessionTTL を使うのだ。
func NewRegistry(factory BackendFactory, tr Translator, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Registry{
		factory: factory,
		tr:      tr,
		ttl:     ttl,
		store:   cache.New(ttl, sessionCleanupInterval),
	}
}

// Open は新しいセッションを作成し、その ID を返します。
func (r *Registry) Open(ctx context.Context) (string, *Session, error) {
	s, err := NewSession(ctx, r.factory, r.tr)
	if err != nil {
		return "", nil, err
	}
	id := uuid.NewString()
	r.store.Set(id, s, r.ttl)
	return id, s, nil
}

// Get はセッションを取り出し、有効期限を延長します。
func (r *Registry) Get(id string) (*Session, error) {
	v, ok := r.store.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	s, ok := v.(*Session)
	if !ok {
		return nil, ErrSessionNotFound
	}
	r.store.Set(id, s, r.ttl)
	return s, nil
}

// Close はセッションを破棄します。履歴は残りません。
func (r *Registry) Close(id string) error {
	if _, ok := r.store.Get(id); !ok {
		return ErrSessionNotFound
	}
	r.store.Delete(id)
	return nil
}

// Len は保持しているセッション数を返します。
func (r *Registry) Len() int {
	return r.store.ItemCount()
}
