package service

import (
	"ascendra_backend/internal/model"
	"ascendra_backend/internal/repository"
	"ascendra_backend/internal/util"
	"ascendra_backend/pkg/monitoring"
	"time"

	"gorm.io/gorm"
)

// EventPublisher 领域事件出口，由事件中心实现
type EventPublisher interface {
	Publish(userID uint, event string, data interface{})
}

// 连接工作流发出的领域事件
const (
	EventRequestReceived   = "request.received"
	EventConnectionCreated = "connection.created"
)

// IncomingRequest 收件箱条目：请求本体 + 发起人公开画像
type IncomingRequest struct {
	model.ConnectionRequest
	FromUser model.PublicProfile `json:"fromUser"`
}

// SendResult 发送请求的结果；对向请求在途时直接促成连接
type SendResult struct {
	Request      *model.ConnectionRequest `json:"request"`
	AutoAccepted bool                     `json:"autoAccepted"`
}

type ConnectionService struct {
	ConnRepo *repository.ConnectionRepository
	UserRepo *repository.UserRepository
	Events   EventPublisher
}

func NewConnectionService(connRepo *repository.ConnectionRepository, userRepo *repository.UserRepository, events EventPublisher) *ConnectionService {
	return &ConnectionService{
		ConnRepo: connRepo,
		UserRepo: userRepo,
		Events:   events,
	}
}

// SendRequest 发起连接申请。
// 前置检查按序短路：自连 -> 已连接 -> 重复申请。
// 对方已有在途申请时直接接受之，保证一对用户间最多一条 pending。
func (s *ConnectionService) SendRequest(fromID, toID uint, reqType, message, relatedSwapID string) (*SendResult, error) {
	if fromID == toID {
		return nil, util.ErrSelfConnection
	}
	if _, err := s.UserRepo.FindByID(toID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	locked, err := s.ConnRepo.AcquirePairLock(fromID, toID)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, util.ErrPairBusy
	}
	defer s.ConnRepo.ReleasePairLock(fromID, toID)

	connected, err := s.ConnRepo.IsConnected(fromID, toID)
	if err != nil {
		return nil, err
	}
	if connected {
		monitoring.ConnectionOpsCounter.WithLabelValues("connect", "already_connected").Inc()
		return nil, util.ErrAlreadyConnected
	}

	if _, err := s.ConnRepo.PendingFrom(fromID, toID); err == nil {
		monitoring.ConnectionOpsCounter.WithLabelValues("connect", "duplicate").Inc()
		return nil, util.ErrDuplicateRequest
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	// 对向在途申请：视为双方意愿达成，直接建立连接
	if reciprocal, err := s.ConnRepo.PendingFrom(toID, fromID); err == nil {
		conn, err := s.ConnRepo.AcceptRequest(reciprocal)
		if err != nil {
			return nil, err
		}
		s.publishConnectionCreated(conn)
		monitoring.ConnectionOpsCounter.WithLabelValues("connect", "auto_accepted").Inc()
		// 事务内已置为accepted，在手头记录上回填状态，省一次读
		now := time.Now()
		reciprocal.Status = model.RequestAccepted
		reciprocal.RespondedAt = &now
		return &SendResult{Request: reciprocal, AutoAccepted: true}, nil
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	if reqType == "" {
		reqType = model.ConnTypeGeneral
	}
	if message == "" {
		message = "Hi! I'd like to connect with you."
	}
	req := &model.ConnectionRequest{
		FromUserID:       fromID,
		ToUserID:         toID,
		Type:             reqType,
		Message:          message,
		RelatedSkillSwap: relatedSwapID,
		Status:           model.RequestPending,
	}
	if err := s.ConnRepo.CreateRequest(req); err != nil {
		return nil, err
	}

	monitoring.ConnectionOpsCounter.WithLabelValues("connect", "sent").Inc()
	monitoring.EventCounter.WithLabelValues(EventRequestReceived).Inc()
	if s.Events != nil {
		s.Events.Publish(toID, EventRequestReceived, req)
	}
	return &SendResult{Request: req}, nil
}

// ListRequests 待处理请求按方向分组，收到的附带发起人画像
func (s *ConnectionService) ListRequests(userID uint) ([]IncomingRequest, []model.ConnectionRequest, error) {
	incoming, err := s.ConnRepo.ListPendingIncoming(userID)
	if err != nil {
		return nil, nil, err
	}
	outgoing, err := s.ConnRepo.ListPendingOutgoing(userID)
	if err != nil {
		return nil, nil, err
	}

	enriched := make([]IncomingRequest, 0, len(incoming))
	for i := range incoming {
		enriched = append(enriched, IncomingRequest{
			ConnectionRequest: incoming[i],
			FromUser:          incoming[i].From.Public(),
		})
	}
	return enriched, outgoing, nil
}

// Respond 接受或拒绝请求。仅收件人可操作。
// 接受是一个事务单元（见 repository.AcceptRequest），重复接受幂等。
func (s *ConnectionService) Respond(userID uint, requestID string, accept bool) error {
	req, err := s.ConnRepo.GetRequest(requestID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return util.ErrRequestNotFound
		}
		return err
	}
	if req.ToUserID != userID {
		return util.ErrPermissionDenied
	}

	locked, err := s.ConnRepo.AcquirePairLock(req.FromUserID, req.ToUserID)
	if err != nil {
		return err
	}
	if !locked {
		return util.ErrPairBusy
	}
	defer s.ConnRepo.ReleasePairLock(req.FromUserID, req.ToUserID)

	if req.Status != model.RequestPending {
		if accept && req.Status == model.RequestAccepted {
			// 已接受过：不再新建连接，直接成功
			monitoring.ConnectionOpsCounter.WithLabelValues("respond", "idempotent").Inc()
			return nil
		}
		return util.ErrRequestHandled
	}

	if !accept {
		monitoring.ConnectionOpsCounter.WithLabelValues("respond", "rejected").Inc()
		return s.ConnRepo.UpdateRequestStatus(requestID, model.RequestRejected)
	}

	conn, err := s.ConnRepo.AcceptRequest(req)
	if err != nil {
		return err
	}
	monitoring.ConnectionOpsCounter.WithLabelValues("respond", "accepted").Inc()
	s.publishConnectionCreated(conn)
	return nil
}

// Connections 当前用户所有连接对端的公开画像
func (s *ConnectionService) Connections(userID uint) ([]model.PublicProfile, error) {
	ids, err := s.ConnRepo.ConnectedIDsCached(userID)
	if err != nil {
		return nil, err
	}
	users, err := s.UserRepo.FindByIDs(ids)
	if err != nil {
		return nil, err
	}
	profiles := make([]model.PublicProfile, 0, len(users))
	for i := range users {
		profiles = append(profiles, users[i].Public())
	}
	return profiles, nil
}

func (s *ConnectionService) publishConnectionCreated(conn *model.Connection) {
	monitoring.EventCounter.WithLabelValues(EventConnectionCreated).Inc()
	if s.Events == nil {
		return
	}
	s.Events.Publish(conn.UserAID, EventConnectionCreated, conn)
	s.Events.Publish(conn.UserBID, EventConnectionCreated, conn)
}
