package domain

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// PageCount は1冊あたりのぬりえページ数です。ページのアーキタイプ数と一致します。
const PageCount = 5

var (
	// ErrInvalidRequest はテーマまたは名前が空のときに返されます。
	ErrInvalidRequest = errors.New("theme and name are required")
	// ErrIncompleteImages は表紙と5ページが揃っていない画像セットを作ろうとしたときに返されます。
	ErrIncompleteImages = errors.New("generated images must contain a cover and all pages")
	// ErrInvalidImageRef はデータURIとして解釈できない画像参照です。
	ErrInvalidImageRef = errors.New("invalid image reference")
)

// GenerationRequest はフォーム送信1回分の入力です。
type GenerationRequest struct {
	Theme string `json:"theme"`
	Name  string `json:"name"`
}

// Normalize は前後の空白を取り除いたコピーを返します。
func (r GenerationRequest) Normalize() GenerationRequest {
	return GenerationRequest{
		Theme: strings.TrimSpace(r.Theme),
		Name:  strings.TrimSpace(r.Name),
	}
}

// Validate はトリム後のテーマと名前が両方とも空でないことを確認します。
func (r GenerationRequest) Validate() error {
	n := r.Normalize()
	if n.Theme == "" || n.Name == "" {
		return ErrInvalidRequest
	}
	return nil
}

// ImageRef は MIME タイプと画像バイト列を埋め込んだデータURIです。
// そのまま img の src として使えるのだ。
type ImageRef string

// NewImageRef は画像バイト列を base64 のデータURIに包みます。
func NewImageRef(mimeType string, data []byte) ImageRef {
	return ImageRef("data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data))
}

// Decode はデータURIを MIME タイプとバイト列に戻します。
func (r ImageRef) Decode() (string, []byte, error) {
	rest, ok := strings.CutPrefix(string(r), "data:")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing data: prefix", ErrInvalidImageRef)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing payload", ErrInvalidImageRef)
	}
	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok || mimeType == "" {
		return "", nil, fmt.Errorf("%w: not a base64 data URI", ErrInvalidImageRef)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrInvalidImageRef, err)
	}
	return mimeType, data, nil
}

// GeneratedImages は表紙1枚とぬりえ5枚の完成セットです。
// 部分的に埋まった状態は存在せず、NewGeneratedImages 経由でしか作らないのだ。
type GeneratedImages struct {
	Cover ImageRef   `json:"cover"`
	Pages []ImageRef `json:"pages"`
}

// NewGeneratedImages は表紙とページが揃っている場合のみセットを返します。
func NewGeneratedImages(cover ImageRef, pages []ImageRef) (*GeneratedImages, error) {
	if cover == "" || len(pages) != PageCount {
		return nil, fmt.Errorf("%w: cover=%t pages=%d", ErrIncompleteImages, cover != "", len(pages))
	}
	copied := make([]ImageRef, len(pages))
	for i, p := range pages {
		if p == "" {
			return nil, fmt.Errorf("%w: page %d is empty", ErrIncompleteImages, i+1)
		}
		copied[i] = p
	}
	return &GeneratedImages{Cover: cover, Pages: copied}, nil
}
