package repository

import (
	"ascendra_backend/internal/model"
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const (
	connCacheTTL = 24 * time.Hour
	pairLockTTL  = 10 * time.Second
)

type ConnectionRepository struct {
	DB    *gorm.DB
	Redis *redis.Client
	ctx   context.Context
}

func NewConnectionRepository(db *gorm.DB, rdb *redis.Client) *ConnectionRepository {
	return &ConnectionRepository{
		DB:    db,
		Redis: rdb,
		ctx:   context.Background(),
	}
}

// ---- 连接请求 ----

func (r *ConnectionRepository) CreateRequest(req *model.ConnectionRequest) error {
	return r.DB.Create(req).Error
}

func (r *ConnectionRepository) GetRequest(id string) (*model.ConnectionRequest, error) {
	var req model.ConnectionRequest
	err := r.DB.First(&req, "id = ?", id).Error
	return &req, err
}

// PendingFrom 指定方向上的待处理请求
func (r *ConnectionRepository) PendingFrom(fromID, toID uint) (*model.ConnectionRequest, error) {
	var req model.ConnectionRequest
	err := r.DB.Where("from_user_id = ? AND to_user_id = ? AND status = ?",
		fromID, toID, model.RequestPending).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// PendingBetween 任一方向上的待处理请求
func (r *ConnectionRepository) PendingBetween(a, b uint) (*model.ConnectionRequest, error) {
	var req model.ConnectionRequest
	err := r.DB.Where("status = ?", model.RequestPending).
		Where("(from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)",
			a, b, b, a).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// PendingTouching 用户相关的全部待处理请求（收发双向），匹配打分用
func (r *ConnectionRepository) PendingTouching(userID uint) ([]model.ConnectionRequest, error) {
	var reqs []model.ConnectionRequest
	err := r.DB.Where("status = ?", model.RequestPending).
		Where("from_user_id = ? OR to_user_id = ?", userID, userID).
		Find(&reqs).Error
	return reqs, err
}

// ListPendingIncoming 收到的在途申请，发起方账号已停用的不再展示
func (r *ConnectionRepository) ListPendingIncoming(userID uint) ([]model.ConnectionRequest, error) {
	var reqs []model.ConnectionRequest
	err := r.DB.Preload("From").
		Joins("JOIN users ON users.id = connection_requests.from_user_id AND users.disabled = ?", false).
		Where("connection_requests.to_user_id = ? AND connection_requests.status = ?", userID, model.RequestPending).
		Order("connection_requests.created_at ASC").
		Find(&reqs).Error
	return reqs, err
}

// ListPendingOutgoing 发出的在途申请，接收方账号已停用的不再展示
func (r *ConnectionRepository) ListPendingOutgoing(userID uint) ([]model.ConnectionRequest, error) {
	var reqs []model.ConnectionRequest
	err := r.DB.Joins("JOIN users ON users.id = connection_requests.to_user_id AND users.disabled = ?", false).
		Where("connection_requests.from_user_id = ? AND connection_requests.status = ?", userID, model.RequestPending).
		Order("connection_requests.created_at ASC").
		Find(&reqs).Error
	return reqs, err
}

func (r *ConnectionRepository) UpdateRequestStatus(id, status string) error {
	now := time.Now()
	return r.DB.Model(&model.ConnectionRequest{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "responded_at": &now}).Error
}

// ---- 连接 ----

func (r *ConnectionRepository) IsConnected(a, b uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.Connection{}).
		Where("pair_key = ?", model.PairKey(a, b)).
		Count(&count).Error
	return count > 0, err
}

func (r *ConnectionRepository) GetByPair(a, b uint) (*model.Connection, error) {
	var conn model.Connection
	err := r.DB.Where("pair_key = ?", model.PairKey(a, b)).First(&conn).Error
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

func (r *ConnectionRepository) ListConnections(userID uint) ([]model.Connection, error) {
	var conns []model.Connection
	err := r.DB.Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Order("created_at ASC").
		Find(&conns).Error
	return conns, err
}

// ConnectedIDs 连接对端的 ID 列表
func (r *ConnectionRepository) ConnectedIDs(userID uint) ([]uint, error) {
	conns, err := r.ListConnections(userID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(conns))
	for i := range conns {
		ids = append(ids, conns[i].OtherUser(userID))
	}
	return ids, nil
}

// ConnectedIDsCached 连接对端 ID 列表 (带缓存)
func (r *ConnectionRepository) ConnectedIDsCached(userID uint) ([]uint, error) {
	if r.Redis == nil {
		return r.ConnectedIDs(userID)
	}

	key := fmt.Sprintf("social:connections:%d", userID)
	cached, err := r.Redis.SMembers(r.ctx, key).Result()
	if err == nil && len(cached) > 0 {
		var ids []uint
		for _, s := range cached {
			var id uint
			fmt.Sscanf(s, "%d", &id)
			if id > 0 {
				ids = append(ids, id)
			}
		}
		return ids, nil
	}

	// 缓存失效，回源数据库
	ids, err := r.ConnectedIDs(userID)
	if err == nil && len(ids) > 0 {
		pipe := r.Redis.Pipeline()
		for _, id := range ids {
			pipe.SAdd(r.ctx, key, id)
		}
		pipe.Expire(r.ctx, key, connCacheTTL)
		pipe.Exec(r.ctx)
	} else if err == nil {
		// 防止缓存穿透
		r.Redis.SAdd(r.ctx, key, 0)
		r.Redis.Expire(r.ctx, key, 5*time.Minute)
	}
	return ids, err
}

func (r *ConnectionRepository) invalidateCache(a, b uint) {
	if r.Redis == nil {
		return
	}
	r.Redis.Del(r.ctx, fmt.Sprintf("social:connections:%d", a))
	r.Redis.Del(r.ctx, fmt.Sprintf("social:connections:%d", b))
}

// AcceptRequest 接受请求的事务单元：
// 1) 请求置为 accepted；2) 反向 pending 请求一并置为 accepted；
// 3) 建立连接记录。pair_key 唯一索引兜底并发下的重复建连。
// 返回建立（或已存在）的连接。
func (r *ConnectionRepository) AcceptRequest(req *model.ConnectionRequest) (*model.Connection, error) {
	now := time.Now()
	pairKey := model.PairKey(req.FromUserID, req.ToUserID)
	var conn model.Connection

	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.ConnectionRequest{}).
			Where("id = ? AND status = ?", req.ID, model.RequestPending).
			Updates(map[string]interface{}{
				"status":       model.RequestAccepted,
				"responded_at": &now,
			}).Error; err != nil {
			return err
		}

		// 对方若也发过请求，一并置为已接受，保证 pair 间不残留 pending
		if err := tx.Model(&model.ConnectionRequest{}).
			Where("from_user_id = ? AND to_user_id = ? AND status = ?",
				req.ToUserID, req.FromUserID, model.RequestPending).
			Updates(map[string]interface{}{
				"status":       model.RequestAccepted,
				"responded_at": &now,
			}).Error; err != nil {
			return err
		}

		// 已有连接（并发接受或重复调用）时不再新建
		err := tx.Where("pair_key = ?", pairKey).First(&conn).Error
		if err == nil {
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		conn = model.Connection{
			PairKey:           pairKey,
			UserAID:           minUint(req.FromUserID, req.ToUserID),
			UserBID:           maxUint(req.FromUserID, req.ToUserID),
			Type:              req.Type,
			LastInteractionAt: now,
		}
		if err := tx.Create(&conn).Error; err != nil {
			// 唯一索引冲突说明另一侧刚建完，读回即可
			if ferr := tx.Where("pair_key = ?", pairKey).First(&conn).Error; ferr == nil {
				return nil
			}
			return err
		}
		return nil
	})

	if err == nil {
		r.invalidateCache(req.FromUserID, req.ToUserID)
	}
	return &conn, err
}

// ---- 对级锁 ----

// AcquirePairLock 对无序用户对加 Redis 短租锁，挡住同对并发的申请/响应。
// Redis 不可用时退化为仅靠事务和唯一索引。
func (r *ConnectionRepository) AcquirePairLock(a, b uint) (bool, error) {
	if r.Redis == nil {
		return true, nil
	}
	key := fmt.Sprintf("social:pairlock:%s", model.PairKey(a, b))
	return r.Redis.SetNX(r.ctx, key, 1, pairLockTTL).Result()
}

func (r *ConnectionRepository) ReleasePairLock(a, b uint) {
	if r.Redis == nil {
		return
	}
	key := fmt.Sprintf("social:pairlock:%s", model.PairKey(a, b))
	r.Redis.Del(r.ctx, key)
}

func minUint(a, b uint) uint {
	if a < b {
		return a
	}
	return b
}

func maxUint(a, b uint) uint {
	if a > b {
		return a
	}
	return b
}
