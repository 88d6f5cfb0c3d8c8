package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-utils/envutil"

	kitcfg "github.com/shouni/go-coloring-kit/pkg/config"
	"github.com/shouni/go-coloring-kit/pkg/domain"
)

// デフォルト値の定義なのだ
const (
	DefaultImageModel = kitcfg.DefaultImageModel
	DefaultChatModel  = kitcfg.DefaultChatModel
	DefaultOutputDir  = kitcfg.DefaultOutputDir
	DefaultImageDir   = "images"
	DefaultListenAddr = ":8080"
	DefaultLogFormat  = "auto"
)

// Config はアプリケーション全体の環境設定（APIキーやモデル名）を保持する構造体なのだ。
type Config struct {
	GeminiAPIKey  string
	ImageModel    string
	ChatModel     string
	DefaultLocale domain.Locale
	OutputDir     string
	LocalesDir    string
	RateInterval  time.Duration
	ListenAddr    string

	Options GenerateOptions
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	cfg := &Config{
		GeminiAPIKey: envutil.GetEnv("GEMINI_API_KEY", ""),
		ImageModel:   envutil.GetEnv("IMAGE_MODEL", DefaultImageModel),
		ChatModel:    envutil.GetEnv("CHAT_MODEL", DefaultChatModel),
		OutputDir:    envutil.GetEnv("OUTPUT_DIR", DefaultOutputDir),
		LocalesDir:   envutil.GetEnv("LOCALES_DIR", ""),
		ListenAddr:   envutil.GetEnv("LISTEN_ADDR", DefaultListenAddr),
	}

	cfg.DefaultLocale = domain.DefaultLocale
	if raw := envutil.GetEnv("DEFAULT_LOCALE", ""); raw != "" {
		loc, err := domain.ParseLocale(raw)
		if err != nil {
			slog.Warn("DEFAULT_LOCALE が不正なので既定値を使うのだ", "value", raw, "error", err)
		} else {
			cfg.DefaultLocale = loc
		}
	}

	if raw := envutil.GetEnv("RATE_INTERVAL", ""); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			slog.Warn("RATE_INTERVAL が不正なので制限なしで動かすのだ", "value", raw)
		} else {
			cfg.RateInterval = d
		}
	}
	return cfg
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// 入力
	Theme string // --theme
	Name  string // --name
	Lang  string // --lang

	// 出力
	OutputDir  string // --output-dir
	SaveImages bool   // --save-images

	// AI挙動設定
	ImageModel   string        // --image-model
	ChatModel    string        // --chat-model
	RateInterval time.Duration // --rate-interval

	// ログ
	LogFormat string // --log-format
	Verbose   bool   // --verbose

	// サーバー
	ListenAddr string // --addr
}

// Validate はフラグの値をチェックするのだ。未対応の --lang はエラーにします。
func (o GenerateOptions) Validate() error {
	if o.Lang == "" {
		return nil
	}
	if _, err := domain.ParseLocale(o.Lang); err != nil {
		return fmt.Errorf("--lang %q には対応していないのだ (en / es): %w", o.Lang, err)
	}
	return nil
}

// Apply はフラグで指定された値で環境設定を上書きするのだ。空の値は無視します。
func (c *Config) Apply(opts GenerateOptions) {
	if opts.ImageModel != "" {
		c.ImageModel = opts.ImageModel
	}
	if opts.ChatModel != "" {
		c.ChatModel = opts.ChatModel
	}
	if opts.OutputDir != "" {
		c.OutputDir = opts.OutputDir
	}
	if opts.RateInterval > 0 {
		c.RateInterval = opts.RateInterval
	}
	if opts.ListenAddr != "" {
		c.ListenAddr = opts.ListenAddr
	}
	if opts.Lang != "" {
		if loc, err := domain.ParseLocale(opts.Lang); err != nil {
			slog.Warn("--lang が不正なので既定の言語を使うのだ", "value", opts.Lang, "locale", c.DefaultLocale)
		} else {
			c.DefaultLocale = loc
		}
	}
	c.Options = opts
}

// KitConfig はライブラリ側の設定に変換するのだ。
func (c *Config) KitConfig() kitcfg.Config {
	kc := kitcfg.DefaultConfig()
	kc.GeminiAPIKey = c.GeminiAPIKey
	kc.ImageModel = c.ImageModel
	kc.ChatModel = c.ChatModel
	kc.RateInterval = c.RateInterval
	kc.DefaultLocale = c.DefaultLocale
	kc.LocalesDir = c.LocalesDir
	kc.OutputDir = c.OutputDir
	return kc
}
