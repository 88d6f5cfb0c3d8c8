package i18n

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Resolve はドット区切りのキーを1セグメントずつ辿って翻訳文字列を返します。
// 途中のセグメントが見つからない場合はキーそのものを返し、警告ログを残すのだ。
// replacements の各キーについて、最初に現れる {{key}} だけを置換します。
func Resolve(m Mapping, key string, replacements map[string]any) string {
	if m == nil {
		return key
	}

	var current any = map[string]any(m)
	for _, segment := range strings.Split(key, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			slog.Warn("Translation key not found", "key", key)
			return key
		}
		next, ok := node[segment]
		if !ok {
			slog.Warn("Translation key not found", "key", key)
			return key
		}
		current = next
	}

	text, ok := current.(string)
	if !ok {
		slog.Warn("Translation key does not point at a string", "key", key)
		return key
	}

	if len(replacements) == 0 {
		return text
	}
	names := make([]string, 0, len(replacements))
	for name := range replacements {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		text = strings.Replace(text, "{{"+name+"}}", fmt.Sprint(replacements[name]), 1)
	}
	return text
}
