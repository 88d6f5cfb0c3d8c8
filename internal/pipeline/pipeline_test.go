package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-coloring-kit/internal/config"
	"github.com/shouni/go-coloring-kit/pkg/chat"
	"github.com/shouni/go-coloring-kit/pkg/domain"
	"github.com/shouni/go-coloring-kit/pkg/generator"
	"github.com/shouni/go-coloring-kit/pkg/workflow"
)

type imageStub struct {
	data []byte
	err  error
}

func (s imageStub) GenerateImage(ctx context.Context, req generator.ImageRequest) (*generator.ImageResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &generator.ImageResponse{Data: s.data, MIMEType: "image/jpeg"}, nil
}

func noChat(context.Context, string) (chat.Backend, error) {
	return nil, errors.New("chat is not used")
}

func testConfig(t *testing.T, opts config.GenerateOptions) *config.Config {
	t.Helper()
	cfg := &config.Config{
		ImageModel:    config.DefaultImageModel,
		ChatModel:     config.DefaultChatModel,
		DefaultLocale: domain.LocaleEN,
		OutputDir:     t.TempDir(),
	}
	cfg.Apply(opts)
	return cfg
}

func TestExecuteWith(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 3, 4)), nil))
	ctx := context.Background()

	t.Run("PDF と画像を保存する", func(t *testing.T) {
		cfg := testConfig(t, config.GenerateOptions{Theme: "Space Cats", Name: "Mia", Lang: "es", SaveImages: true})
		res, err := ExecuteWith(ctx, cfg, workflow.ManagerArgs{
			ImageAdapter: imageStub{data: buf.Bytes()},
			ChatFactory:  noChat,
		})
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(cfg.OutputDir, "mia_space_cats_coloring_book.pdf"), res.PDFPath)
		assert.Equal(t, domain.LocaleES, res.Locale)
		assert.Contains(t, res.Message, "Tu libro de colorear está listo")
		require.Len(t, res.ImagePaths, 1+domain.PageCount)
		for _, p := range append([]string{res.PDFPath}, res.ImagePaths...) {
			_, err := os.Stat(p)
			assert.NoError(t, err)
		}
	})

	t.Run("生成に失敗したら何も保存しない", func(t *testing.T) {
		cfg := testConfig(t, config.GenerateOptions{Theme: "Space Cats", Name: "Mia"})
		_, err := ExecuteWith(ctx, cfg, workflow.ManagerArgs{
			ImageAdapter: imageStub{err: errors.New("quota")},
			ChatFactory:  noChat,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "We couldn't create your coloring book")

		entries, err := os.ReadDir(cfg.OutputDir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
