package irisfast

import "encoding/json"

// Message is one chat event pushed by Iris over the WebSocket.
type Message struct {
	Msg    string       `json:"msg"`
	Room   string       `json:"room"`
	Sender *string      `json:"sender,omitempty"`
	JSON   *MessageJSON `json:"json,omitempty"`
}

// MessageJSON is the raw KakaoTalk record attached to a Message.
type MessageJSON struct {
	UserID  string          `json:"user_id"`
	ChatID  string          `json:"chat_id"`
	Message string          `json:"message"`
	Type    string          `json:"type"`
	Extra   json.RawMessage `json:"attachment,omitempty"`
}

// UserID returns the stable user id, falling back to the display name.
func (m *Message) UserID() string {
	if m == nil {
		return ""
	}
	if m.JSON != nil && m.JSON.UserID != "" {
		return m.JSON.UserID
	}
	if m.Sender != nil {
		return *m.Sender
	}
	return ""
}

// SenderName returns the display name or "" when Iris omitted it.
func (m *Message) SenderName() string {
	if m == nil || m.Sender == nil {
		return ""
	}
	return *m.Sender
}

type Config struct {
	Port              int    `json:"port"`
	PollingSpeed      int    `json:"polling_speed"`
	MessageRate       int    `json:"message_rate"`
	WebserverEndpoint string `json:"web_server_endpoint"`
}

type DecryptRequest struct {
	Data string `json:"data"`
}

type DecryptResponse struct {
	Decrypted string `json:"decrypted"`
}

type ReplyRequest struct {
	Type string `json:"type"`
	Room string `json:"room"`
	Data string `json:"data"`
}

type ImageReplyRequest = ReplyRequest

type WebSocketState int

const (
	WSStateDisconnected WebSocketState = iota
	WSStateConnecting
	WSStateConnected
	WSStateReconnecting
	WSStateFailed
)

func (s WebSocketState) String() string {
	switch s {
	case WSStateConnecting:
		return "connecting"
	case WSStateConnected:
		return "connected"
	case WSStateReconnecting:
		return "reconnecting"
	case WSStateFailed:
		return "failed"
	}
	return "disconnected"
}
