package i18n

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/shouni/go-coloring-kit/pkg/domain"
)

const (
	// DefaultCacheExpiration は読み込んだ翻訳マップをキャッシュに保持する期間です。
	DefaultCacheExpiration = 30 * time.Minute
	cacheCleanupInterval   = 10 * time.Minute
)

// ErrNoTranslations は要求ロケールとフォールバックの両方が読み込めなかったときに返されます。
var ErrNoTranslations = errors.New("no translations available")

// Load は要求されたロケールを読み込み、失敗したときは DefaultLocale を試します。
// 戻り値の Locale は実際に読み込めたマップのロケールです。
func Load(ctx context.Context, src Source, locale domain.Locale) (Mapping, domain.Locale, error) {
	m, err := src.Fetch(ctx, locale)
	if err == nil {
		return m, locale, nil
	}
	slog.Error("Failed to load translations", "locale", locale, "error", err)
	if locale == domain.DefaultLocale {
		return nil, "", fmt.Errorf("%w: %w", ErrNoTranslations, err)
	}

	fallback, fbErr := src.Fetch(ctx, domain.DefaultLocale)
	if fbErr != nil {
		slog.Error("Failed to load fallback translations", "locale", domain.DefaultLocale, "error", fbErr)
		return nil, "", fmt.Errorf("%w: %w", ErrNoTranslations, errors.Join(err, fbErr))
	}
	return fallback, domain.DefaultLocale, nil
}

// Store はアクティブなロケールとその翻訳マップを保持します。
// 書き込みは SetLocale のみで、T と各アクセサは複数のゴルーチンから並行に呼べます。
type Store struct {
	src   Source
	cache *cache.Cache

	mu      sync.RWMutex
	locale  domain.Locale
	mapping Mapping
}

// NewStore は Store を生成します。SetLocale を呼ぶまでは DefaultLocale でマップ未設定の状態です。
func NewStore(src Source) *Store {
	return &Store{
		src:    src,
		cache:  cache.New(DefaultCacheExpiration, cacheCleanupInterval),
		locale: domain.DefaultLocale,
	}
}

// SetLocale はロケールを切り替え、翻訳マップを読み込み直します。
// 読み込みに失敗してもエラーは返さず、フォールバックにも失敗した場合はマップを未設定にして
// T がキーをそのまま返す状態にするのだ。
func (s *Store) SetLocale(ctx context.Context, locale domain.Locale) {
	m, loaded, err := Load(ctx, cachedSource{s}, locale)
	if err != nil {
		m = nil
	} else if loaded != locale {
		slog.Warn("Using fallback translations", "requested", locale, "loaded", loaded)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.locale = locale
	s.mapping = m
}

// T はアクティブなマップでキーを解決します。replacements は先頭の1つだけが使われます。
func (s *Store) T(key string, replacements ...map[string]any) string {
	s.mu.RLock()
	m := s.mapping
	s.mu.RUnlock()

	var r map[string]any
	if len(replacements) > 0 {
		r = replacements[0]
	}
	return Resolve(m, key, r)
}

// Locale は最後に要求されたロケールを返します。
func (s *Store) Locale() domain.Locale {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locale
}

// Mapping はアクティブな翻訳マップを返します。未設定なら nil です。
// マップは読み取り専用として扱ってください。
func (s *Store) Mapping() Mapping {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mapping
}

// cachedSource は Store のキャッシュを経由して Source を引きます。失敗結果はキャッシュしません。
type cachedSource struct {
	s *Store
}

func (c cachedSource) Fetch(ctx context.Context, locale domain.Locale) (Mapping, error) {
	if v, ok := c.s.cache.Get(locale.String()); ok {
		if m, ok := v.(Mapping); ok {
			return m, nil
		}
	}
	m, err := c.s.src.Fetch(ctx, locale)
	if err != nil {
		return nil, err
	}
	c.s.cache.Set(locale.String(), m, cache.DefaultExpiration)
	return m, nil
}
