package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/shouni/go-coloring-kit/internal/builder"
	"github.com/shouni/go-coloring-kit/internal/config"
	"github.com/shouni/go-coloring-kit/pkg/domain"
	"github.com/shouni/go-coloring-kit/pkg/workflow"
)

// Result はパイプラインが保存したファイルの情報を保持するのだ。
type Result struct {
	PDFPath    string
	ImagePaths []string
	Locale     domain.Locale
	Message    string // 完了時に表示するローカライズ済みの文言
}

// Execute は、テーマと名前からぬりえ本を生成して保存するのだ。
func Execute(ctx context.Context, cfg *config.Config) (*Result, error) {
	return ExecuteWith(ctx, cfg, workflow.ManagerArgs{})
}

// ExecuteWith は、差し替えた依存関係で Execute と同じ流れを実行するのだ。
func ExecuteWith(ctx context.Context, cfg *config.Config, args workflow.ManagerArgs) (*Result, error) {
	appCtx, err := builder.BuildAppContextWith(ctx, cfg, args)
	if err != nil {
		return nil, err
	}
	req := domain.GenerationRequest{Theme: appCtx.Options.Theme, Name: appCtx.Options.Name}

	// --- Phase 1: Generate Phase (表紙とページの生成) ---
	if err := runGenerateStep(ctx, appCtx, req); err != nil {
		return nil, err
	}

	// --- Phase 2: Publish Phase (PDF の組み立てと保存) ---
	pdfPath, err := runPublishStep(ctx, appCtx)
	if err != nil {
		return nil, err
	}

	result := &Result{
		PDFPath: pdfPath,
		Locale:  appCtx.Manager.Translations().Locale(),
		Message: appCtx.Manager.Translations().T("cli.saved", map[string]any{"path": pdfPath}),
	}

	// --- Phase 3: Asset Phase (画像の個別保存) ---
	if appCtx.Options.SaveImages {
		paths, err := runAssetStep(ctx, appCtx)
		if err != nil {
			return nil, err
		}
		result.ImagePaths = paths
	}

	slog.Info("ぬりえ本が完成したのだ！", "path", pdfPath)
	return result, nil
}

// runGenerateStep は Orchestrator を使って表紙とページを生成するのだ
func runGenerateStep(ctx context.Context, appCtx *builder.AppContext, req domain.GenerationRequest) error {
	slog.Info("Phase 1: 画像生成を開始するのだ...", "locale", appCtx.Manager.Translations().Locale())
	orch := appCtx.Manager.Orchestrator()
	if err := orch.Generate(ctx, req); err != nil {
		return fmt.Errorf("%s: %w", orch.Snapshot().Error, err)
	}
	return nil
}

// runPublishStep は生成済みの画像から PDF を作るのだ
func runPublishStep(ctx context.Context, appCtx *builder.AppContext) (string, error) {
	slog.Info("Phase 2: PDF の作成を開始するのだ...")
	orch := appCtx.Manager.Orchestrator()
	path, err := orch.Download(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", orch.Snapshot().Error, err)
	}
	return path, nil
}

// runAssetStep は生成した画像を images/ 以下に保存するのだ
func runAssetStep(ctx context.Context, appCtx *builder.AppContext) ([]string, error) {
	imageDir := filepath.Join(appCtx.Config.OutputDir, config.DefaultImageDir)
	slog.Info("Phase 3: 画像を保存するのだ...", "dir", imageDir)

	images := appCtx.Manager.Orchestrator().Snapshot().Images
	paths, err := appCtx.Manager.Assets(imageDir).SaveImages(ctx, images)
	if err != nil {
		return nil, fmt.Errorf("画像の保存に失敗したのだ: %w", err)
	}
	return paths, nil
}
