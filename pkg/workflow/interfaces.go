package workflow

import (
	"context"

	"github.com/shouni/go-coloring-kit/pkg/domain"
	"github.com/shouni/go-coloring-kit/pkg/publisher"
)

// ImageGenerator は表紙とページの画像を生成する責務を持ちます。
type ImageGenerator interface {
	GenerateCover(ctx context.Context, theme, name string, locale domain.Locale) (domain.ImageRef, error)
	GeneratePages(ctx context.Context, theme string, locale domain.Locale) ([]domain.ImageRef, error)
}

// DocumentAssembler は生成済みの画像を1冊の PDF にまとめる責務を持ちます。
type DocumentAssembler interface {
	Assemble(ctx context.Context, cover domain.ImageRef, pages []domain.ImageRef, theme, name string, dedication publisher.Dedication) (string, error)
}

// Translator はアクティブなロケールと、その文言の解決を提供します。
type Translator interface {
	T(key string, replacements ...map[string]any) string
	Locale() domain.Locale
}
