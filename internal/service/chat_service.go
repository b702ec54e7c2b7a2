package service

import (
	"ascendra_backend/internal/model"
	"ascendra_backend/internal/repository"
	"ascendra_backend/internal/util"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const historyWindow = 10

type ChatService struct {
	ConvRepo *repository.ConversationRepository
	UserRepo *repository.UserRepository
	AI       *AIService
}

func NewChatService(convRepo *repository.ConversationRepository, userRepo *repository.UserRepository, ai *AIService) *ChatService {
	return &ChatService{
		ConvRepo: convRepo,
		UserRepo: userRepo,
		AI:       ai,
	}
}

func (s *ChatService) ListConversations(userID uint) ([]model.Conversation, error) {
	return s.ConvRepo.ListByUser(userID)
}

func (s *ChatService) GetConversation(id string, userID uint) (*model.Conversation, error) {
	conv, err := s.ConvRepo.FindByIDAndUser(id, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrConversationGone
		}
		return nil, err
	}
	return conv, nil
}

func (s *ChatService) CreateConversation(userID uint, title string) (*model.Conversation, error) {
	if title == "" {
		title = "New Conversation"
	}
	conv := &model.Conversation{
		UserID:   userID,
		Title:    title,
		Messages: model.MessageList{},
	}
	if err := s.ConvRepo.Create(conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *ChatService) DeleteConversation(id string, userID uint) error {
	err := s.ConvRepo.Delete(id, userID)
	if err == gorm.ErrRecordNotFound {
		return util.ErrConversationGone
	}
	return err
}

// SendMessage 追加用户消息，调用AI中继，追加助手回复并保存。
// 未给会话 ID 时以首句截断作为标题新建会话。
func (s *ChatService) SendMessage(userID uint, conversationID, message string) (*model.ChatMessage, string, error) {
	var conv *model.Conversation
	if conversationID != "" {
		found, err := s.ConvRepo.FindByIDAndUser(conversationID, userID)
		if err == nil {
			conv = found
		} else if err != gorm.ErrRecordNotFound {
			return nil, "", err
		}
	}

	if conv == nil {
		title := message
		// 按字符截断，多字节消息不能切出半个字符
		if runes := []rune(title); len(runes) > 50 {
			title = string(runes[:50]) + "..."
		}
		conv = &model.Conversation{
			UserID:   userID,
			Title:    title,
			Messages: model.MessageList{},
		}
		if err := s.ConvRepo.Create(conv); err != nil {
			return nil, "", err
		}
	}

	conv.Messages = append(conv.Messages, model.ChatMessage{
		Role:      "user",
		Content:   message,
		Timestamp: time.Now(),
	})

	// 最近10条作为上下文
	history := conv.Messages
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	var profile interface{}
	if user, err := s.UserRepo.FindByID(userID); err == nil {
		profile = user.Public()
	}

	aiResp := s.AI.Chat(AIChatRequest{
		Message:             message,
		UserID:              fmt.Sprintf("%d", userID),
		ConversationHistory: history,
		UserProfile:         profile,
	})

	assistant := model.ChatMessage{
		Role:      "assistant",
		Content:   aiResp.Content,
		Reasoning: aiResp.Reasoning,
		Actions:   aiResp.Actions,
		Category:  aiResp.Category,
		Sentiment: aiResp.Sentiment,
		Urgency:   aiResp.Urgency,
		Timestamp: time.Now(),
	}
	conv.Messages = append(conv.Messages, assistant)

	if err := s.ConvRepo.Save(conv); err != nil {
		return nil, "", err
	}
	return &assistant, conv.ID, nil
}
