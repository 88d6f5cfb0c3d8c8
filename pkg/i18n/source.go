package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/shouni/go-coloring-kit/pkg/domain"
)

//go:embed locales/*.json
var embeddedLocales embed.FS

// ErrMalformedTranslations はロケールファイルが文字列かネストしたマップ以外を含むときに返されます。
var ErrMalformedTranslations = errors.New("malformed translations")

// Mapping はドット区切りキーで引けるネストした翻訳マップです。読み込み後は変更しません。
type Mapping map[string]any

// Source はロケールごとの翻訳マップを取得する契約です。
type Source interface {
	Fetch(ctx context.Context, locale domain.Locale) (Mapping, error)
}

// FSSource は fs.FS 上の `{dir}/{locale}.json` から翻訳を読み込みます。
type FSSource struct {
	fsys fs.FS
	dir  string
}

// NewFSSource は任意のファイルシステムを使う Source を生成します。
// ローカルディレクトリを使う場合は os.DirFS を渡すのだ。
func NewFSSource(fsys fs.FS, dir string) *FSSource {
	if dir == "" {
		dir = "."
	}
	return &FSSource{fsys: fsys, dir: dir}
}

// EmbeddedSource はバイナリに同梱した en / es の翻訳を返す Source です。
func EmbeddedSource() *FSSource {
	return NewFSSource(embeddedLocales, "locales")
}

// Fetch は指定ロケールのファイルを読み込み、構造を検証してから返します。
func (s *FSSource) Fetch(ctx context.Context, locale domain.Locale) (Mapping, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := path.Join(s.dir, locale.String()+".json")
	data, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	var m Mapping
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedTranslations, name, err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: %s is empty", ErrMalformedTranslations, name)
	}
	if err := validate(m, ""); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedTranslations, name, err)
	}
	return m, nil
}

func validate(m map[string]any, prefix string) error {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case string:
		case map[string]any:
			if err := validate(val, key); err != nil {
				return err
			}
		default:
			return fmt.Errorf("key %q has unsupported value type %T", key, v)
		}
	}
	return nil
}
