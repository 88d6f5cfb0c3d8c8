package workflow

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"

	"github.com/shouni/go-coloring-kit/pkg/chat"
	"github.com/shouni/go-coloring-kit/pkg/config"
	"github.com/shouni/go-coloring-kit/pkg/generator"
	"github.com/shouni/go-coloring-kit/pkg/i18n"
	"github.com/shouni/go-coloring-kit/pkg/publisher"
)

// ManagerArgs は Manager の構築に使う依存関係です。nil のものは Config から既定の実装を作ります。
type ManagerArgs struct {
	Config       config.Config
	Locales      i18n.Source
	Writer       publisher.OutputWriter
	ImageAdapter generator.ImageAdapter
	ChatFactory  chat.BackendFactory
	Documents    publisher.DocumentFactory
	Hook         TransitionHook
}

// Manager はアプリケーション1インスタンス分のコンポーネントを束ねます。
type Manager struct {
	store        *i18n.Store
	writer       publisher.OutputWriter
	orchestrator *Orchestrator
	chats        *chat.Registry
	chatFactory  chat.BackendFactory
}

// New は設定を基に新しい Manager を初期化します。
func New(ctx context.Context, args ManagerArgs) (*Manager, error) {
	cfg := args.Config

	var aiClient *genai.Client
	if args.ImageAdapter == nil || args.ChatFactory == nil {
		c, err := initializeAIClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		aiClient = c
	}

	imageAdapter := args.ImageAdapter
	if imageAdapter == nil {
		imageAdapter = generator.NewGeminiImageAdapter(aiClient, cfg.ImageModel)
	}
	chatFactory := args.ChatFactory
	if chatFactory == nil {
		chatFactory = chat.NewGeminiBackendFactory(aiClient, cfg.ChatModel)
	}

	gen, err := generator.NewColoringGenerator(imageAdapter, generator.WithRateInterval(cfg.RateInterval))
	if err != nil {
		return nil, fmt.Errorf("画像生成エンジンの初期化に失敗しました: %w", err)
	}

	store := i18n.NewStore(initializeLocales(args.Locales, cfg.LocalesDir))
	locale := cfg.DefaultLocale
	if locale == "" {
		locale = config.DefaultConfig().DefaultLocale
	}
	store.SetLocale(ctx, locale)

	writer := args.Writer
	if writer == nil {
		writer = publisher.NewLocalWriter()
	}
	assembler := publisher.NewAssembler(args.Documents, writer, cfg.OutputDir)

	var opts []Option
	if args.Hook != nil {
		opts = append(opts, WithTransitionHook(args.Hook))
	}

	return &Manager{
		store:        store,
		writer:       writer,
		orchestrator: NewOrchestrator(gen, assembler, store, opts...),
		chats:        chat.NewRegistry(chatFactory, store, cfg.ChatSessionTTL),
		chatFactory:  chatFactory,
	}, nil
}

// initializeAIClient は Gemini API 用の genai クライアントを初期化します。
func initializeAIClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return client, nil
}

// initializeLocales は翻訳の読み込み元を決めます。
// 引数として Source が渡された場合はそれを返し、ディレクトリ指定があればそこから読むのだ。
func initializeLocales(src i18n.Source, dir string) i18n.Source {
	if src != nil {
		return src
	}
	if dir != "" {
		return i18n.NewFSSource(os.DirFS(dir), ".")
	}
	return i18n.EmbeddedSource()
}

// Orchestrator は生成フローを返します。
func (m *Manager) Orchestrator() *Orchestrator {
	return m.orchestrator
}

// Translations はローカライズストアを返します。
func (m *Manager) Translations() *i18n.Store {
	return m.store
}

// Chats は HTTP 用のチャットセッション管理を返します。
func (m *Manager) Chats() *chat.Registry {
	return m.chats
}

// NewChatSession はレジストリを通さずに新しい会話を始めます。CLI の対話モードで使います。
func (m *Manager) NewChatSession(ctx context.Context) (*chat.Session, error) {
	return chat.NewSession(ctx, m.chatFactory, m.store)
}

// Assets は dir 配下に画像を保存する AssetManager を返します。
func (m *Manager) Assets(dir string) *publisher.AssetManager {
	return publisher.NewAssetManager(m.writer, dir)
}
