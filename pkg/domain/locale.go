package domain

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Locale は表示文言とプロンプトの言語を表すタグです。
type Locale string

const (
	LocaleEN Locale = "en"
	LocaleES Locale = "es"

	// DefaultLocale はロケールの読み込みに失敗したときのフォールバック先です。
	DefaultLocale = LocaleEN
)

// ErrUnsupportedLocale は en / es 以外のロケールが指定されたときに返されます。
var ErrUnsupportedLocale = errors.New("unsupported locale")

// SupportedLocales はアプリが扱えるロケールの一覧です。順序は matcher の優先順位と一致します。
var SupportedLocales = []Locale{LocaleEN, LocaleES}

var localeMatcher = language.NewMatcher([]language.Tag{language.English, language.Spanish})

// ParseLocale は "es", "es-MX", "en_US", "ES" のような表記を Locale に正規化します。
func ParseLocale(raw string) (Locale, error) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, "_", "-"))
	if s == "" {
		return "", fmt.Errorf("%w: empty tag", ErrUnsupportedLocale)
	}
	tag, err := language.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLocale, raw)
	}
	base, _ := tag.Base()
	switch base.String() {
	case string(LocaleEN):
		return LocaleEN, nil
	case string(LocaleES):
		return LocaleES, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedLocale, raw)
}

// MatchAcceptLanguage は Accept-Language ヘッダーから最適なロケールを選びます。
// 一致するものがなければ DefaultLocale を返すのだ。
func MatchAcceptLanguage(header string) Locale {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return DefaultLocale
	}
	_, idx, conf := localeMatcher.Match(tags...)
	if conf == language.No || idx < 0 || idx >= len(SupportedLocales) {
		return DefaultLocale
	}
	return SupportedLocales[idx]
}

// String は Locale のタグ文字列を返します。
func (l Locale) String() string {
	return string(l)
}
