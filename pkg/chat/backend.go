package chat

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// DefaultChatModel は会話アシスタントに使うモデルです。
const DefaultChatModel = "gemini-2.5-flash"

// ErrEmptyReply はモデルが空の応答を返したときのエラーです。
var ErrEmptyReply = errors.New("model returned an empty reply")

// Backend は会話を保持する外部チャットセッションです。1回の呼び出しで1つの応答を返します。
type Backend interface {
	Send(ctx context.Context, text string) (string, error)
}

// BackendFactory はシステム指示を設定した新しい Backend を生成します。
type BackendFactory func(ctx context.Context, systemInstruction string) (Backend, error)

// GeminiBackend は genai のチャットセッションをラップします。
type GeminiBackend struct {
	chat *genai.Chat
}

// NewGeminiBackendFactory は genai クライアントから BackendFactory を作ります。
func NewGeminiBackendFactory(client *genai.Client, model string) BackendFactory {
	if model == "" {
		model = DefaultChatModel
	}
	return func(ctx context.Context, systemInstruction string) (Backend, error) {
		cfg := &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		}
		c, err := client.Chats.Create(ctx, model, cfg, nil)
		if err != nil {
			return nil, fmt.Errorf("チャットセッションの作成に失敗しました (model=%s): %w", model, err)
		}
		return &GeminiBackend{chat: c}, nil
	}
}

// Send はユーザーの発言を送信し、モデルの応答テキストを返します。
func (b *GeminiBackend) Send(ctx context.Context, text string) (string, error) {
	resp, err := b.chat.SendMessage(ctx, genai.Part{Text: text})
	if err != nil {
		return "", fmt.Errorf("メッセージの送信に失敗しました: %w", err)
	}
	reply := resp.Text()
	if reply == "" {
		return "", ErrEmptyReply
	}
	return reply, nil
}
