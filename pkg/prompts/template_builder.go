package prompts

import (
	"fmt"
	"path"
	"strings"
	"text/template"

	"github.com/shouni/go-coloring-kit/pkg/domain"
)

// PromptBuilder は画像生成プロンプトを構築する契約です。
type PromptBuilder interface {
	Cover(locale domain.Locale, theme, name string) (string, error)
	Pages(locale domain.Locale, theme string) ([]string, error)
}

// TextPromptBuilder はロケールごとのテンプレートセットを保持します。
type TextPromptBuilder struct {
	templates map[domain.Locale]*template.Template
}

// NewTextPromptBuilder は埋め込みテンプレートをすべて解析して TextPromptBuilder を初期化します。
func NewTextPromptBuilder() (*TextPromptBuilder, error) {
	parsed := make(map[domain.Locale]*template.Template, len(domain.SupportedLocales))
	for _, loc := range domain.SupportedLocales {
		name := path.Join("templates", loc.String()+".tmpl")
		tmpl, err := template.ParseFS(templateFS, name)
		if err != nil {
			return nil, fmt.Errorf("プロンプトテンプレート '%s' の解析に失敗: %w", name, err)
		}
		for _, required := range append([]string{templateSuffix, templateCover}, archetypeNames()...) {
			if tmpl.Lookup(required) == nil {
				return nil, fmt.Errorf("プロンプトテンプレート '%s' に '%s' が定義されていません", name, required)
			}
		}
		parsed[loc] = tmpl
	}
	return &TextPromptBuilder{templates: parsed}, nil
}

// Cover は表紙用のプロンプトを返します。説明文の後に半角スペースとスタイル指定が続きます。
func (b *TextPromptBuilder) Cover(locale domain.Locale, theme, name string) (string, error) {
	data := TemplateData{Theme: theme, Name: name}
	return b.compose(locale, templateCover, data)
}

// Pages はアーキタイプ順に5ページ分のプロンプトを返します。
func (b *TextPromptBuilder) Pages(locale domain.Locale, theme string) ([]string, error) {
	data := TemplateData{Theme: theme}
	prompts := make([]string, 0, len(PageArchetypes))
	for _, a := range PageArchetypes {
		p, err := b.compose(locale, string(a), data)
		if err != nil {
			return nil, err
		}
		prompts = append(prompts, p)
	}
	return prompts, nil
}

func (b *TextPromptBuilder) compose(locale domain.Locale, name string, data TemplateData) (string, error) {
	tmpl, ok := b.templates[locale]
	if !ok {
		tmpl = b.templates[domain.DefaultLocale]
	}

	description, err := execute(tmpl, name, data)
	if err != nil {
		return "", err
	}
	suffix, err := execute(tmpl, templateSuffix, data)
	if err != nil {
		return "", err
	}
	return description + " " + suffix, nil
}

func execute(tmpl *template.Template, name string, data TemplateData) (string, error) {
	var sb strings.Builder
	if err := tmpl.ExecuteTemplate(&sb, name, data); err != nil {
		return "", fmt.Errorf("プロンプトテンプレート '%s' の実行に失敗しました: %w", name, err)
	}
	return strings.TrimSpace(sb.String()), nil
}

func archetypeNames() []string {
	names := make([]string, len(PageArchetypes))
	for i, a := range PageArchetypes {
		names[i] = string(a)
	}
	return names
}

var defaultBuilder = mustBuilder()

func mustBuilder() *TextPromptBuilder {
	b, err := NewTextPromptBuilder()
	if err != nil {
		panic(err)
	}
	return b
}

// BuildCoverPrompt は既定のビルダーで表紙プロンプトを組み立てます。
// テンプレートは文字列フィールドしか参照しないため、実行時に失敗することはありません。
func BuildCoverPrompt(locale domain.Locale, theme, name string) string {
	p, err := defaultBuilder.Cover(locale, theme, name)
	if err != nil {
		panic(err)
	}
	return p
}

// BuildPagePrompts は既定のビルダーで5ページ分のプロンプトを組み立てます。
func BuildPagePrompts(locale domain.Locale, theme string) []string {
	p, err := defaultBuilder.Pages(locale, theme)
	if err != nil {
		panic(err)
	}
	return p
}
