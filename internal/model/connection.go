package model

import (
	"fmt"
	"time"
)

// 连接请求/连接的类型
const (
	ConnTypeSkillSwap      = "skill-swap"
	ConnTypeStudyBuddy     = "study-buddy"
	ConnTypeProjectPartner = "project-partner"
	ConnTypeMentor         = "mentor"
	ConnTypeGeneral        = "general"
)

// 连接请求状态
const (
	RequestPending   = "pending"
	RequestAccepted  = "accepted"
	RequestRejected  = "rejected"
	RequestCancelled = "cancelled"
)

// ConnectionRequest 连接申请表
// 单条记录，双方按索引各自查询，避免双副本存储的状态发散
type ConnectionRequest struct {
	UUIDBase
	FromUserID       uint       `gorm:"index;not null" json:"fromUserId"`
	From             User       `gorm:"foreignKey:FromUserID;references:ID;constraint:false" json:"-"`
	ToUserID         uint       `gorm:"index;not null" json:"toUserId"`
	To               User       `gorm:"foreignKey:ToUserID;references:ID;constraint:false" json:"-"`
	Type             string     `gorm:"type:varchar(20);default:'general'" json:"type"`
	Message          string     `gorm:"size:255" json:"message"`
	RelatedSkillSwap string     `gorm:"type:varchar(36)" json:"relatedSkillSwap,omitempty"`
	Status           string     `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	RespondedAt      *time.Time `json:"respondedAt,omitempty"`
}

func (ConnectionRequest) TableName() string {
	return "connection_requests"
}

// Connection 已建立的连接，全局唯一记录
// pair_key 的唯一索引保证同一对用户并发接受时也只产生一条连接
type Connection struct {
	UUIDBase
	PairKey           string    `gorm:"type:varchar(41);uniqueIndex;not null" json:"-"`
	UserAID           uint      `gorm:"index;not null" json:"userAId"`
	UserBID           uint      `gorm:"index;not null" json:"userBId"`
	Type              string    `gorm:"type:varchar(20);default:'general'" json:"type"`
	LastInteractionAt time.Time `json:"lastInteractionAt"`
	ChatEnabled       bool      `gorm:"default:true" json:"chatEnabled"`
}

func (Connection) TableName() string {
	return "connections"
}

// PairKey 无序用户对的规范键，小 ID 在前
func PairKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// OtherUser 返回连接中对端的用户 ID
func (c *Connection) OtherUser(userID uint) uint {
	if c.UserAID == userID {
		return c.UserBID
	}
	return c.UserAID
}
