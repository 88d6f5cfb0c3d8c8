package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shouni/go-coloring-kit/internal/builder"
	"github.com/shouni/go-coloring-kit/internal/server"
)

// newServeCmd は、生成フローとチャットを JSON API として公開するコマンドなのだ。
func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "ぬりえ本の生成 API サーバーを起動するのだ。",
		RunE:  serveCommand,
	}
	serveCmd.Flags().StringVar(&opts.ListenAddr, "addr", "", "待ち受けアドレスなのだ。未指定なら LISTEN_ADDR を使うのだ。")
	return serveCmd
}

func serveCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg := loadConfig()
	appCtx, err := builder.BuildAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	srv := server.New(ctx, cfg.ListenAddr, appCtx.Manager, slog.Default())
	return srv.Run(ctx)
}
