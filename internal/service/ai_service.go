package service

import (
	"ascendra_backend/internal/config"
	"ascendra_backend/internal/model"
	"ascendra_backend/pkg/logger"
	"ascendra_backend/pkg/monitoring"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// AIService 外部AI服务的HTTP中继。服务是黑盒：任何失败（超时、
// 非2xx、网络错误）都以静态兜底回复收场，不把错误抛给最终用户。
// 持有整份配置指针，BaseURL与超时每次调用时读取，热更新即时生效。
type AIService struct {
	cfg    *config.Config
	client *http.Client
}

func NewAIService(cfg *config.Config) *AIService {
	return &AIService{
		cfg:    cfg,
		client: &http.Client{},
	}
}

type AIChatRequest struct {
	Message             string              `json:"message"`
	UserID              string              `json:"userId"`
	ConversationHistory []model.ChatMessage `json:"conversationHistory"`
	UserProfile         interface{}         `json:"userProfile,omitempty"`
}

type AIChatResponse struct {
	Content   string   `json:"content"`
	Reasoning string   `json:"reasoning"`
	Actions   []string `json:"actions"`
	Category  string   `json:"category"`
	Sentiment string   `json:"sentiment,omitempty"`
	Urgency   string   `json:"urgency,omitempty"`
}

func fallbackResponse() *AIChatResponse {
	return &AIChatResponse{
		Content:   "I'm here to help you with your academic journey, mental wellness, career planning, finances, and social connections. What would you like to discuss?",
		Reasoning: "Fallback response - AI service unavailable",
		Actions:   []string{},
		Category:  "general",
	}
}

// Chat 转发一条用户消息。永不返回error：失败即兜底。
func (s *AIService) Chat(req AIChatRequest) *AIChatResponse {
	resp, err := s.call(req)
	if err != nil {
		logger.Log.Warn("AI service unavailable, serving fallback", zap.Error(err))
		monitoring.AIFallbackCounter.Inc()
		return fallbackResponse()
	}
	return resp
}

func (s *AIService) call(req AIChatRequest) (*AIChatResponse, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	aiCfg := s.cfg.AI
	timeout := aiCfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, aiCfg.BaseURL+"/api/chat", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("AI service error (status %d): %s", resp.StatusCode, string(body))
	}

	var aiResp AIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&aiResp); err != nil {
		return nil, err
	}
	return &aiResp, nil
}
