package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// ChatMessage 会话内的单条消息，整个消息序列以JSON落库
type ChatMessage struct {
	Role      string    `json:"role"` // user | assistant
	Content   string    `json:"content"`
	Reasoning string    `json:"reasoning,omitempty"`
	Actions   []string  `json:"actions,omitempty"`
	Category  string    `json:"category,omitempty"`
	Sentiment string    `json:"sentiment,omitempty"`
	Urgency   string    `json:"urgency,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type MessageList []ChatMessage

func (l MessageList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *MessageList) Scan(value interface{}) error {
	if value == nil {
		*l = MessageList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return errors.New("unsupported type for MessageList")
	}
}

// Conversation AI助手会话
type Conversation struct {
	UUIDBase
	UserID   uint        `gorm:"index;not null" json:"userId"`
	Title    string      `gorm:"size:100" json:"title"`
	Messages MessageList `gorm:"type:json" json:"messages"`
	IsActive bool        `gorm:"default:true" json:"isActive"`
}

func (Conversation) TableName() string {
	return "conversations"
}
