package config

import (
	"time"

	"github.com/shouni/go-coloring-kit/pkg/domain"
)

// デフォルト値の定義
const (
	DefaultImageModel     = "imagen-4.0-generate-001"
	DefaultChatModel      = "gemini-2.5-flash"
	DefaultRateInterval   = 0 * time.Second
	DefaultOutputDir      = "output"
	DefaultChatSessionTTL = 30 * time.Minute
)

// Config は Go Coloring Kit の各コンポーネントを動作させるための基本設定です。
type Config struct {
	// --- Google AI (Gemini API) Settings ---
	GeminiAPIKey string
	ImageModel   string // 表紙とページの画像生成
	ChatModel    string // アイデア出しアシスタント

	// --- Generation Settings ---
	// RateInterval はページ生成リクエストの最小間隔です。0 なら5ページを同時に要求します。
	RateInterval time.Duration

	// --- Localization ---
	DefaultLocale domain.Locale
	// LocalesDir が空なら埋め込みの翻訳を使います。
	LocalesDir string

	// --- Output ---
	OutputDir string

	// --- Chat ---
	ChatSessionTTL time.Duration
}

// DefaultConfig は推奨されるデフォルト設定を返すヘルパー関数です。
func DefaultConfig() Config {
	return Config{
		ImageModel:     DefaultImageModel,
		ChatModel:      DefaultChatModel,
		RateInterval:   DefaultRateInterval,
		DefaultLocale:  domain.DefaultLocale,
		OutputDir:      DefaultOutputDir,
		ChatSessionTTL: DefaultChatSessionTTL,
	}
}
