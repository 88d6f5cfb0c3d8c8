package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/shouni/go-coloring-kit/pkg/domain"
)

var (
	// ErrEmptyMessage は空白だけのメッセージを送ろうとしたときに返されます。
	ErrEmptyMessage = errors.New("message is empty")
	// ErrBusy は前のメッセージの応答待ちに送信したときに返されます。
	ErrBusy = errors.New("a message is already in flight")
)

// Translator は会話で使う文言を解決します。
type Translator interface {
	T(key string, replacements ...map[string]any) string
}

// Session はチャットウィジェット1回分の会話です。閉じたら破棄し、開き直すときは新しく作ります。
type Session struct {
	backend Backend
	tr      Translator

	mu       sync.Mutex
	history  []domain.ChatMessage
	inFlight bool
}

// NewSession はローカライズされたシステム指示でバックエンドを作り、歓迎メッセージで履歴を始めます。
func NewSession(ctx context.Context, factory BackendFactory, tr Translator) (*Session, error) {
	backend, err := factory(ctx, tr.T("chat.systemInstruction"))
	if err != nil {
		return nil, fmt.Errorf("チャットの初期化に失敗しました: %w", err)
	}
	return &Session{
		backend: backend,
		tr:      tr,
		history: []domain.ChatMessage{{Role: domain.RoleModel, Text: tr.T("chat.welcome")}},
	}, nil
}

// SendMessage はユーザーの発言を履歴に追加して応答を待ち、応答を返します。
// バックエンドが失敗した場合はローカライズされたエラー文をモデルの発言として追加し、エラーは返しません。
func (s *Session) SendMessage(ctx context.Context, text string) (domain.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return domain.ChatMessage{}, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return domain.ChatMessage{}, ErrBusy
	}
	s.inFlight = true
	s.history = append(s.history, domain.ChatMessage{Role: domain.RoleUser, Text: text})
	s.mu.Unlock()

	reply, err := s.backend.Send(ctx, text)
	msg := domain.ChatMessage{Role: domain.RoleModel, Text: reply}
	if err != nil {
		slog.Error("Chat error", "error", err)
		msg.Text = s.tr.T("chat.error")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, msg)
	s.inFlight = false
	return msg, nil
}

// History は履歴のコピーを返します。
func (s *Session) History() []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ChatMessage, len(s.history))
	copy(out, s.history)
	return out
}

// Busy は応答待ちかどうかを返します。
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}
