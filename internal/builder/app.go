package builder

import (
	"github.com/shouni/go-coloring-kit/internal/config"
	"github.com/shouni/go-coloring-kit/pkg/workflow"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各コマンドに渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config  *config.Config         // Configは、環境変数とフラグから組み立てた設定です。
	Options config.GenerateOptions // Optionsは、コマンドラインから渡された実行時の設定です。
	Manager *workflow.Manager      // Managerは、生成フロー、翻訳、チャットを束ねたコンポーネントです。
}

// NewAppContext は AppContext の新しいインスタンスを生成する
func NewAppContext(cfg *config.Config, manager *workflow.Manager) *AppContext {
	return &AppContext{
		Config:  cfg,
		Options: cfg.Options,
		Manager: manager,
	}
}
