package service

import (
	"fmt"
	"sync"
	"testing"

	"ascendra_backend/internal/model"
	"ascendra_backend/internal/repository"
	"ascendra_backend/pkg/database"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB 内存sqlite，每个测试独立建表
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

var testUserSeq int

func seedUser(t *testing.T, db *gorm.DB, mutate ...func(*model.User)) *model.User {
	t.Helper()
	testUserSeq++
	user := &model.User{
		Name:     fmt.Sprintf("User %d", testUserSeq),
		Email:    fmt.Sprintf("user%d@test.edu", testUserSeq),
		Password: "hashed",
		Role:     model.Student,
	}
	for _, m := range mutate {
		m(user)
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// capturedEvent 记录一次事件投递
type capturedEvent struct {
	UserID uint
	Event  string
	Data   interface{}
}

// capturePublisher 测试用 EventPublisher，记录全部投递
type capturePublisher struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (p *capturePublisher) Publish(userID uint, event string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, capturedEvent{UserID: userID, Event: event, Data: data})
}

func (p *capturePublisher) byEvent(event string) []capturedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []capturedEvent
	for _, e := range p.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

// newConnectionStack 组装连接工作流依赖（无Redis，缓存与锁退化为直连DB）
func newConnectionStack(t *testing.T, db *gorm.DB) (*ConnectionService, *capturePublisher) {
	t.Helper()
	pub := &capturePublisher{}
	connRepo := repository.NewConnectionRepository(db, nil)
	userRepo := repository.NewUserRepository(db)
	return NewConnectionService(connRepo, userRepo, pub), pub
}
