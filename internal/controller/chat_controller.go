package controller

import (
	"ascendra_backend/internal/service"
	"ascendra_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ChatController struct {
	ChatService *service.ChatService
}

func NewChatController(chatService *service.ChatService) *ChatController {
	return &ChatController{ChatService: chatService}
}

type ChatMessageRequest struct {
	Message        string `json:"message" binding:"required"`
	ConversationID string `json:"conversation_id"`
}

type CreateConversationRequest struct {
	Title string `json:"title"`
}

// @Summary 发送消息
// @Description 向AI助手发送消息，未指定会话时自动创建
// @Tags 聊天
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body ChatMessageRequest true "消息内容"
// @Success 200 {object} util.Response
// @Router /api/chat/message [post]
func (c *ChatController) SendMessage(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req ChatMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	reply, conversationID, err := c.ChatService.SendMessage(claims.UserID, req.ConversationID, req.Message)
	if err != nil {
		if err == util.ErrConversationGone {
			util.NotFound(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"message":         reply,
		"conversation_id": conversationID,
	})
}

// @Summary 会话列表
// @Description 列出当前用户的所有AI会话
// @Tags 聊天
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/chat/conversations [get]
func (c *ChatController) ListConversations(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	conversations, err := c.ChatService.ListConversations(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"conversations": conversations})
}

// @Summary 会话详情
// @Description 获取指定会话的完整消息记录
// @Tags 聊天
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "会话ID"
// @Success 200 {object} util.Response
// @Router /api/chat/conversations/{id} [get]
func (c *ChatController) GetConversation(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	conversation, err := c.ChatService.GetConversation(ctx.Param("id"), claims.UserID)
	if err != nil {
		if err == util.ErrConversationGone {
			util.NotFound(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"conversation": conversation})
}

// @Summary 新建会话
// @Description 创建一个新的AI会话
// @Tags 聊天
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body CreateConversationRequest true "会话标题"
// @Success 201 {object} util.Response
// @Router /api/chat/conversations [post]
func (c *ChatController) CreateConversation(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req CreateConversationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	conversation, err := c.ChatService.CreateConversation(claims.UserID, req.Title)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{"conversation": conversation})
}

// @Summary 删除会话
// @Description 删除指定会话
// @Tags 聊天
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "会话ID"
// @Success 200 {object} util.Response
// @Router /api/chat/conversations/{id} [delete]
func (c *ChatController) DeleteConversation(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.ChatService.DeleteConversation(ctx.Param("id"), claims.UserID); err != nil {
		if err == util.ErrConversationGone {
			util.NotFound(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"deleted": true})
}
