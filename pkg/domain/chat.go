package domain

// ChatRole は会話の発話者です。
type ChatRole string

const (
	RoleUser  ChatRole = "user"
	RoleModel ChatRole = "model"
)

// ChatMessage はアシスタントとの会話1ターンです。
type ChatMessage struct {
	Role ChatRole `json:"role"`
	Text string   `json:"text"`
}
