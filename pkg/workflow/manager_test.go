package workflow

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-coloring-kit/pkg/chat"
	"github.com/shouni/go-coloring-kit/pkg/config"
	"github.com/shouni/go-coloring-kit/pkg/domain"
	"github.com/shouni/go-coloring-kit/pkg/generator"
	"github.com/shouni/go-coloring-kit/pkg/publisher"
)

type jpegAdapter struct {
	mu      sync.Mutex
	prompts []string
	data    []byte
}

func (a *jpegAdapter) GenerateImage(ctx context.Context, req generator.ImageRequest) (*generator.ImageResponse, error) {
	a.mu.Lock()
	a.prompts = append(a.prompts, req.Prompt)
	a.mu.Unlock()
	return &generator.ImageResponse{Data: a.data, MIMEType: req.MIMEType}, nil
}

type echoBackend struct{}

func (echoBackend) Send(ctx context.Context, text string) (string, error) { return "echo: " + text, nil }

func TestManager_EndToEnd(t *testing.T) {
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 3, 4)), nil))
	adapter := &jpegAdapter{data: buf.Bytes()}

	var doc publisher.Document
	cfg := config.DefaultConfig()
	cfg.OutputDir = t.TempDir()

	m, err := New(ctx, ManagerArgs{
		Config:       cfg,
		ImageAdapter: adapter,
		ChatFactory: func(context.Context, string) (chat.Backend, error) {
			return echoBackend{}, nil
		},
		Documents: func(o, u, s string) publisher.Document {
			doc = publisher.NewPDFDocument(o, u, s)
			return doc
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.LocaleEN, m.Translations().Locale())

	o := m.Orchestrator()
	require.NoError(t, o.Generate(ctx, domain.GenerationRequest{Theme: "Dinosaurs", Name: "Mia"}))

	require.Len(t, adapter.prompts, 1+domain.PageCount)
	assert.True(t, strings.HasPrefix(adapter.prompts[0], "Coloring book cover"))
	for _, p := range adapter.prompts {
		assert.Contains(t, p, "Dinosaurs")
		assert.True(t, strings.HasSuffix(p, "clean lines, white background."))
	}

	path, err := o.Download(ctx)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "mia_dinosaurs_coloring_book.pdf"), path)
	assert.Equal(t, 7, doc.PageCount())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	s, err := m.NewChatSession(ctx)
	require.NoError(t, err)
	reply, err := s.SendMessage(ctx, "dragons?")
	require.NoError(t, err)
	assert.Equal(t, "echo: dragons?", reply.Text)
	assert.Equal(t, m.Translations().T("chat.welcome"), s.History()[0].Text)
}
