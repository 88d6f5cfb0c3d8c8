package publisher

import (
	"strings"
)

const fileNameSuffix = "_coloring_book.pdf"

// FileName はダウンロード用のファイル名 `{name}_{theme}_coloring_book.pdf` を返します。
// 英数字以外の文字は1文字ずつ `_` に置き換え、小文字にします。
func FileName(name, theme string) string {
	return sanitize(name) + "_" + sanitize(theme) + fileNameSuffix
}

func sanitize(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			sb.WriteRune(r + ('a' - 'A'))
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}
