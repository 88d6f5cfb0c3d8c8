package cmd

import (
	"fmt"
	"log/slog"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/shouni/go-coloring-kit/internal/pipeline"
	"github.com/shouni/go-coloring-kit/pkg/domain"
)

// newGenerateCmd は、テーマと名前からぬりえ本の PDF を生成するコマンドなのだ。
func newGenerateCmd() *cobra.Command {
	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "テーマと名前からぬりえ本の PDF を作るのだ。",
		Long: `表紙1枚とぬりえ5ページを生成し、名前入りの献辞ページを付けた PDF を保存するのだ。
--save-images を付けると、生成した画像も images/ に保存するのだよ。`,
		RunE: generateCommand,
	}
	generateCmd.Flags().StringVarP(&opts.Theme, "theme", "t", "", "ぬりえ本のテーマなのだ。（必須）")
	generateCmd.Flags().StringVarP(&opts.Name, "name", "n", "", "表紙と献辞ページに入れる子どもの名前なのだ。（必須）")
	generateCmd.Flags().BoolVar(&opts.SaveImages, "save-images", false, "生成した画像を個別のファイルとしても保存するのだ。")
	_ = generateCmd.MarkFlagRequired("theme")
	_ = generateCmd.MarkFlagRequired("name")
	return generateCmd
}

func generateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. 入力チェック
	req := domain.GenerationRequest{Theme: opts.Theme, Name: opts.Name}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("--theme と --name を空でない値で指定してほしいのだ: %w", err)
	}

	// 2. 環境変数とフラグから設定を組み立てるのだ
	cfg := loadConfig()
	slog.Info("ぬりえ本の生成パイプラインを起動するのだ！",
		"locale", cfg.DefaultLocale,
		"image_model", cfg.ImageModel,
		"output", cfg.OutputDir)

	// 3. 表紙 → ページ → PDF → 画像の順に実行するのだ
	res, err := pipeline.Execute(ctx, cfg)
	if err != nil {
		return fmt.Errorf("パイプライン実行中にエラーが発生したのだ: %w", err)
	}

	rows := [][]string{{"pdf", res.PDFPath}}
	for i, p := range res.ImagePaths {
		kind := "cover"
		if i > 0 {
			kind = fmt.Sprintf("page %d", i)
		}
		rows = append(rows, []string{kind, p})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, res.Message)
	fmt.Fprintln(out, renderFileTable(rows))
	return nil
}

// renderFileTable は保存したファイルの一覧を表にするのだ。
func renderFileTable(rows [][]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"kind", "path"})
	for _, r := range rows {
		tw.AppendRow(table.Row{r[0], r[1]})
	}
	return tw.Render()
}
