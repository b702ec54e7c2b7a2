package controller

import (
	"net/http"

	"ascendra_backend/internal/service"
	"ascendra_backend/internal/util"
	"ascendra_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SocialController struct {
	MatchService      *service.MatchService
	ConnectionService *service.ConnectionService
	SkillSwapService  *service.SkillSwapService
	EventHub          *service.EventHub
}

func NewSocialController(matchService *service.MatchService, connectionService *service.ConnectionService, skillSwapService *service.SkillSwapService, hub *service.EventHub) *SocialController {
	return &SocialController{
		MatchService:      matchService,
		ConnectionService: connectionService,
		SkillSwapService:  skillSwapService,
		EventHub:          hub,
	}
}

type ConnectRequest struct {
	TargetUserID     uint   `json:"target_user_id" binding:"required"`
	Type             string `json:"type"`
	Message          string `json:"message"`
	RelatedSkillSwap string `json:"related_skill_swap"`
}

type RespondRequest struct {
	RequestID string `json:"request_id" binding:"required"`
	Action    string `json:"action" binding:"required,oneof=accept reject"`
}

type CreateSkillSwapRequest struct {
	OfferSkill string `json:"offer_skill" binding:"required"`
	WantSkill  string `json:"want_skill" binding:"required"`
}

// @Summary 匹配推荐
// @Description 按技能互换、兴趣、学院等维度为当前用户打分推荐学习伙伴
// @Tags 社交
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/social/find-matches [get]
func (c *SocialController) FindMatches(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	matches, err := c.MatchService.FindMatches(claims.UserID)
	if err != nil {
		if err == util.ErrUserNotFound {
			util.NotFound(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"matches": matches})
}

// @Summary 发起连接请求
// @Description 向目标用户发起连接请求，若对方已有反向待处理请求则直接建立连接
// @Tags 社交
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body ConnectRequest true "连接请求"
// @Success 201 {object} util.Response
// @Router /api/social/connect [post]
func (c *SocialController) Connect(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req ConnectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.ConnectionService.SendRequest(claims.UserID, req.TargetUserID, req.Type, req.Message, req.RelatedSkillSwap)
	if err != nil {
		c.writeConnectionError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{
		"request":       result.Request,
		"auto_accepted": result.AutoAccepted,
	})
}

// @Summary 连接请求列表
// @Description 列出当前用户收到和发出的待处理连接请求
// @Tags 社交
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/social/connection-requests [get]
func (c *SocialController) ListConnectionRequests(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	incoming, outgoing, err := c.ConnectionService.ListRequests(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"incoming": incoming,
		"outgoing": outgoing,
	})
}

// @Summary 处理连接请求
// @Description 接受或拒绝收到的连接请求，仅接收方可处理
// @Tags 社交
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body RespondRequest true "处理动作"
// @Success 200 {object} util.Response
// @Router /api/social/respond-request [post]
func (c *SocialController) RespondRequest(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req RespondRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	accept := req.Action == "accept"
	if err := c.ConnectionService.Respond(claims.UserID, req.RequestID, accept); err != nil {
		c.writeConnectionError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"accepted": accept})
}

// @Summary 我的连接
// @Description 列出当前用户已建立连接的所有用户资料
// @Tags 社交
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/social/connections [get]
func (c *SocialController) ListConnections(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	connections, err := c.ConnectionService.Connections(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"connections": connections})
}

// @Summary 发布技能互换
// @Description 发布一条技能互换：我教什么，想学什么
// @Tags 社交
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body CreateSkillSwapRequest true "技能互换"
// @Success 201 {object} util.Response
// @Router /api/social/skill-swaps [post]
func (c *SocialController) CreateSkillSwap(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req CreateSkillSwapRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	swap, err := c.SkillSwapService.Create(claims.UserID, req.OfferSkill, req.WantSkill)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{"skill_swap": swap})
}

// @Summary 我的技能互换
// @Description 列出当前用户发布的所有技能互换
// @Tags 社交
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/social/skill-swaps [get]
func (c *SocialController) ListOwnSkillSwaps(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	swaps, err := c.SkillSwapService.ListOwn(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"skill_swaps": swaps})
}

// @Summary 技能互换市场
// @Description 列出其他用户可匹配的技能互换，附带发布者摘要
// @Tags 社交
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/social/available-skill-swaps [get]
func (c *SocialController) Marketplace(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	entries, err := c.SkillSwapService.Marketplace(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"skill_swaps": entries})
}

// @Summary 事件推送
// @Description WebSocket连接，实时推送连接请求和连接建立事件
// @Tags 社交
// @Security ApiKeyAuth
// @Router /api/social/events [get]
func (c *SocialController) Events(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.EventHub.ServeWS(ctx.Writer, ctx.Request, claims.UserID); err != nil {
		logger.Log.Warn("WebSocket升级失败", zap.Uint("user_id", claims.UserID), zap.Error(err))
	}
}

// writeConnectionError 把连接域错误映射为HTTP状态码
func (c *SocialController) writeConnectionError(ctx *gin.Context, err error) {
	switch err {
	case util.ErrSelfConnection, util.ErrAlreadyConnected, util.ErrDuplicateRequest, util.ErrRequestHandled:
		util.BadRequest(ctx, err.Error())
	case util.ErrUserNotFound, util.ErrRequestNotFound:
		util.NotFound(ctx, err.Error())
	case util.ErrPermissionDenied:
		util.Forbidden(ctx)
	case util.ErrPairBusy:
		util.Error(ctx, http.StatusConflict, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
