package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/shouni/go-coloring-kit/pkg/chat"
	"github.com/shouni/go-coloring-kit/pkg/domain"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		format   string
		wantJSON bool
		wantErr  bool
	}{
		{format: "text"},
		{format: "json", wantJSON: true},
		// bytes.Buffer は端末ではないので auto は json になる
		{format: "auto", wantJSON: true},
		{format: "yaml", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := newLogger(&buf, tt.format, false)
			if tt.wantErr {
				if err == nil {
					t.Fatal("エラーが返るべきです")
				}
				return
			}
			if err != nil {
				t.Fatalf("newLogger() error = %v", err)
			}
			logger.Info("hello", "key", "value")
			logger.Debug("hidden")

			got := buf.String()
			if isJSON := strings.HasPrefix(got, "{"); isJSON != tt.wantJSON {
				t.Errorf("出力形式が違います: %q", got)
			}
			if strings.Contains(got, "hidden") {
				t.Errorf("verbose でないのに debug が出力されました: %q", got)
			}
		})
	}
}

func TestRunChat(t *testing.T) {
	history := []domain.ChatMessage{{Role: domain.RoleModel, Text: "Hi! Need ideas?"}}
	var sent []string
	send := func(text string) (domain.ChatMessage, error) {
		if strings.TrimSpace(text) == "" {
			return domain.ChatMessage{}, chat.ErrEmptyMessage
		}
		sent = append(sent, text)
		return domain.ChatMessage{Role: domain.RoleModel, Text: "How about " + text + "?"}, nil
	}

	var out bytes.Buffer
	in := strings.NewReader("robots\n\n  \nunicorns\nexit\nignored\n")
	if err := runChat(in, &out, "Creative Assistant", history, send); err != nil {
		t.Fatalf("runChat() error = %v", err)
	}

	if want := []string{"robots", "unicorns"}; strings.Join(sent, ",") != strings.Join(want, ",") {
		t.Errorf("sent = %v, want %v", sent, want)
	}
	got := out.String()
	for _, want := range []string{"== Creative Assistant ==", "[model] Hi! Need ideas?", "[model] How about unicorns?"} {
		if !strings.Contains(got, want) {
			t.Errorf("出力に %q が含まれていません:\n%s", want, got)
		}
	}

	t.Run("送信エラーはそのまま返す", func(t *testing.T) {
		boom := errors.New("boom")
		err := runChat(strings.NewReader("x\n"), &bytes.Buffer{}, "t", nil, func(string) (domain.ChatMessage, error) {
			return domain.ChatMessage{}, boom
		})
		if !errors.Is(err, boom) {
			t.Errorf("err = %v, want boom", err)
		}
	})
}

func TestRenderFileTable(t *testing.T) {
	got := renderFileTable([][]string{{"pdf", "output/mia_dinosaurs_coloring_book.pdf"}, {"cover", "output/images/cover.jpg"}})
	for _, want := range []string{"KIND", "mia_dinosaurs_coloring_book.pdf", "cover.jpg"} {
		if !strings.Contains(strings.ToUpper(got), strings.ToUpper(want)) {
			t.Errorf("表に %q が含まれていません:\n%s", want, got)
		}
	}
}

func TestPreRunAppE_UnsupportedLang(t *testing.T) {
	saved := opts
	t.Cleanup(func() { opts = saved })
	t.Setenv("GEMINI_API_KEY", "test-key")

	opts.Lang = "fr"
	err := preRunAppE(&cobra.Command{}, nil)
	if err == nil {
		t.Fatal("未対応の --lang はエラーになるべきです")
	}
	if !errors.Is(err, domain.ErrUnsupportedLocale) {
		t.Errorf("error = %v, want ErrUnsupportedLocale", err)
	}
}
