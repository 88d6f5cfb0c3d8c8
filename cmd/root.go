package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/shouni/go-coloring-kit/internal/config"
)

// opts は各サブコマンドで共有するフラグの値なのだ。
var opts config.GenerateOptions

// newRootCmd はルートコマンドとサブコマンドを組み立てるのだ。
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "coloring",
		Short:             "AIで名前入りのぬりえ本を作るのだ。",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: preRunAppE,
	}
	addAppFlags(rootCmd)

	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newServeCmd())
	return rootCmd
}

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- 言語と出力 ---
	rootCmd.PersistentFlags().StringVarP(&opts.Lang, "lang", "l", "", "表示とプロンプトの言語 (en / es) なのだ。未指定なら DEFAULT_LOCALE を使うのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.OutputDir, "output-dir", "o", "", "PDF と画像の保存先ディレクトリなのだ。")

	// --- AIモデル・挙動設定 ---
	rootCmd.PersistentFlags().StringVar(&opts.ImageModel, "image-model", "", "画像生成に使う Imagen モデル名なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.ChatModel, "chat-model", "", "アシスタントに使う Gemini モデル名なのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.RateInterval, "rate-interval", 0, "ページ生成リクエストの最小間隔なのだ。0 なら同時に送るのだ。")

	// --- ログ ---
	rootCmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", config.DefaultLogFormat, "ログ形式 (auto / text / json) なのだ。")
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "デバッグログを出力するのだ。")
}

// preRunAppE は、コマンド実行前に環境変数などの必須チェックを行うのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf(".env の読み込みに失敗しました: %w", err)
	}

	logger, err := newLogger(cmd.ErrOrStderr(), opts.LogFormat, opts.Verbose)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	// Gemini APIを利用するため、APIキーの存在チェックは欠かせないのだ！
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("エラー: 環境変数 GEMINI_API_KEY が設定されていません。Gemini APIの利用には必須なのだ")
	}
	return nil
}

// loadConfig は環境変数を読み込み、フラグで上書きした設定を返すのだ。
func loadConfig() *config.Config {
	cfg := config.LoadConfig()
	cfg.Apply(opts)
	return cfg
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// Ctrl+C を受けたら実行中の処理の context をキャンセルするのだよ。
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		stop()
		os.Exit(1)
	}
}
