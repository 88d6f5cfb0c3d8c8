package generator

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

const (
	// DefaultImageModel は画像生成に使う Imagen モデルです。
	DefaultImageModel = "imagen-4.0-generate-001"
	// DefaultAspectRatio は印刷用の縦長ページに合わせた比率です。
	DefaultAspectRatio = "3:4"
	// DefaultMIMEType は生成画像の出力形式です。
	DefaultMIMEType = "image/jpeg"
)

// ErrNoImages は生成 API が1枚も画像を返さなかったときのエラーです。
var ErrNoImages = errors.New("image generation failed, no images returned")

// ImageRequest は1枚分の画像生成リクエストです。
type ImageRequest struct {
	Prompt      string
	AspectRatio string
	MIMEType    string
}

// ImageResponse は生成された画像のバイト列と MIME タイプです。
type ImageResponse struct {
	Data     []byte
	MIMEType string
}

// ImageAdapter は画像生成 AI へのアダプターの契約です。
type ImageAdapter interface {
	GenerateImage(ctx context.Context, req ImageRequest) (*ImageResponse, error)
}

// GeminiImageAdapter は genai の Imagen エンドポイントで画像を生成します。
type GeminiImageAdapter struct {
	client *genai.Client
	model  string
}

// NewGeminiImageAdapter は GeminiImageAdapter を生成します。model が空なら DefaultImageModel を使うのだ。
func NewGeminiImageAdapter(client *genai.Client, model string) *GeminiImageAdapter {
	if model == "" {
		model = DefaultImageModel
	}
	return &GeminiImageAdapter{client: client, model: model}
}

// GenerateImage は画像を1枚だけ要求し、最初の1枚を返します。
func (a *GeminiImageAdapter) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResponse, error) {
	if req.AspectRatio == "" {
		req.AspectRatio = DefaultAspectRatio
	}
	if req.MIMEType == "" {
		req.MIMEType = DefaultMIMEType
	}

	resp, err := a.client.Models.GenerateImages(ctx, a.model, req.Prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: req.MIMEType,
		AspectRatio:    req.AspectRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("Imagen API の呼び出しに失敗しました (model=%s): %w", a.model, err)
	}
	return imageFromResponse(resp, req.MIMEType)
}

// imageFromResponse はレスポンスから最初の画像を取り出します。
func imageFromResponse(resp *genai.GenerateImagesResponse, fallbackMIME string) (*ImageResponse, error) {
	if resp == nil || len(resp.GeneratedImages) == 0 {
		return nil, ErrNoImages
	}
	first := resp.GeneratedImages[0]
	if first == nil || first.Image == nil || len(first.Image.ImageBytes) == 0 {
		if first != nil && first.RAIFilteredReason != "" {
			return nil, fmt.Errorf("%w: filtered: %s", ErrNoImages, first.RAIFilteredReason)
		}
		return nil, ErrNoImages
	}

	mimeType := first.Image.MIMEType
	if mimeType == "" {
		mimeType = fallbackMIME
	}
	return &ImageResponse{Data: first.Image.ImageBytes, MIMEType: mimeType}, nil
}
