package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/shouni/go-coloring-kit/pkg/domain"
	"github.com/shouni/go-coloring-kit/pkg/prompts"
)

// ErrGenerationFailed は画像生成のいずれかの段階が失敗したことを表します。
var ErrGenerationFailed = errors.New("generation failed")

// rateBurst は間隔を空けずに開始できるページリクエストの数です。
const rateBurst = 2

// ColoringGenerator は表紙とぬりえページの画像を生成します。
type ColoringGenerator struct {
	adapter      ImageAdapter
	prompts      prompts.PromptBuilder
	rateInterval time.Duration
}

// Option は ColoringGenerator の設定を変更します。
type Option func(*ColoringGenerator)

// WithRateInterval はページ生成リクエストの最小間隔を指定します。0 なら制限しません。
func WithRateInterval(d time.Duration) Option {
	return func(g *ColoringGenerator) {
		g.rateInterval = d
	}
}

// NewColoringGenerator は ColoringGenerator を生成します。
func NewColoringGenerator(adapter ImageAdapter, opts ...Option) (*ColoringGenerator, error) {
	b, err := prompts.NewTextPromptBuilder()
	if err != nil {
		return nil, fmt.Errorf("プロンプトビルダーの初期化に失敗しました: %w", err)
	}
	g := &ColoringGenerator{adapter: adapter, prompts: b}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// GenerateImage はプロンプト1つから画像を1枚生成し、データURIで返します。
func (g *ColoringGenerator) GenerateImage(ctx context.Context, prompt string) (domain.ImageRef, error) {
	resp, err := g.adapter.GenerateImage(ctx, ImageRequest{
		Prompt:      prompt,
		AspectRatio: DefaultAspectRatio,
		MIMEType:    DefaultMIMEType,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	if resp == nil || len(resp.Data) == 0 {
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, ErrNoImages)
	}

	mimeType := resp.MIMEType
	if mimeType == "" {
		mimeType = DefaultMIMEType
	}
	return domain.NewImageRef(mimeType, resp.Data), nil
}

// GenerateCover は名前入りの表紙を生成します。
func (g *ColoringGenerator) GenerateCover(ctx context.Context, theme, name string, locale domain.Locale) (domain.ImageRef, error) {
	prompt, err := g.prompts.Cover(locale, theme, name)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	slog.Info("表紙を生成中...", "locale", locale)
	img, err := g.GenerateImage(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("表紙の生成に失敗しました: %w", err)
	}
	return img, nil
}

// GeneratePages は5ページを並列に生成し、アーキタイプ順のまま返します。
// 1ページでも失敗したら結果は返さないのだ。
func (g *ColoringGenerator) GeneratePages(ctx context.Context, theme string, locale domain.Locale) ([]domain.ImageRef, error) {
	pagePrompts, err := g.prompts.Pages(locale, theme)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	var limiter *rate.Limiter
	if g.rateInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(g.rateInterval), rateBurst)
	}

	pages := make([]domain.ImageRef, len(pagePrompts))
	eg, egCtx := errgroup.WithContext(ctx)
	slog.Info("並列ページ生成を開始します", "count", len(pagePrompts), "interval", g.rateInterval)

	for i, prompt := range pagePrompts {
		eg.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(egCtx); err != nil {
					return err
				}
			}

			img, err := g.GenerateImage(egCtx, prompt)
			if err != nil {
				slog.Error("ページ生成に失敗しました", "page_index", i, "error", err)
				return fmt.Errorf("ページ %d の生成に失敗しました: %w", i+1, err)
			}
			pages[i] = img
			slog.Debug("ページ生成に成功しました", "page_index", i)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	slog.Info("すべてのページが生成されました", "total", len(pages))
	return pages, nil
}
