package publisher

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"github.com/shouni/go-coloring-kit/pkg/domain"
)

// AssetManager は生成した画像そのものを保存先に書き出します。
type AssetManager struct {
	writer  OutputWriter
	baseDir string
}

// NewAssetManager は AssetManager を生成します。
func NewAssetManager(writer OutputWriter, baseDir string) *AssetManager {
	return &AssetManager{
		writer:  writer,
		baseDir: baseDir,
	}
}

// SaveImages は表紙を cover、各ページを page_N として保存し、保存先のパスを順に返します。
func (am *AssetManager) SaveImages(ctx context.Context, images *domain.GeneratedImages) ([]string, error) {
	if images == nil {
		return nil, domain.ErrIncompleteImages
	}

	paths := make([]string, 0, len(images.Pages)+1)
	p, err := am.SaveImage(ctx, "cover", images.Cover)
	if err != nil {
		return nil, err
	}
	paths = append(paths, p)

	for i, page := range images.Pages {
		p, err := am.SaveImage(ctx, fmt.Sprintf("page_%d", i+1), page)
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// SaveImage は画像参照をデコードし、MIME タイプに合った拡張子で保存します。
func (am *AssetManager) SaveImage(ctx context.Context, baseName string, ref domain.ImageRef) (string, error) {
	mimeType, data, err := ref.Decode()
	if err != nil {
		return "", fmt.Errorf("asset_manager: %s のデコードに失敗しました: %w", baseName, err)
	}

	fullPath := filepath.Join(am.baseDir, baseName+extensionFor(mimeType))
	if err := am.writer.Write(ctx, fullPath, bytes.NewReader(data), mimeType); err != nil {
		return "", fmt.Errorf("asset_manager: 画像の保存に失敗しました: %w", err)
	}
	return fullPath, nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
