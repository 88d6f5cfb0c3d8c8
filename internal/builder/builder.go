package builder

import (
	"context"
	"fmt"

	"github.com/shouni/go-coloring-kit/internal/config"
	"github.com/shouni/go-coloring-kit/pkg/workflow"
)

// BuildAppContext は設定から Manager を構築し、AppContext にまとめます。
func BuildAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	return BuildAppContextWith(ctx, cfg, workflow.ManagerArgs{})
}

// BuildAppContextWith は差し替えたい依存関係を args で受け取ります。Config は cfg から埋めるのだ。
func BuildAppContextWith(ctx context.Context, cfg *config.Config, args workflow.ManagerArgs) (*AppContext, error) {
	args.Config = cfg.KitConfig()
	manager, err := workflow.New(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("アプリケーションの初期化に失敗しました: %w", err)
	}
	return NewAppContext(cfg, manager), nil
}
