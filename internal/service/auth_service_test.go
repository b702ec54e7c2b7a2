package service

import (
	"testing"
	"time"

	"ascendra_backend/internal/config"
	"ascendra_backend/internal/model"
	"ascendra_backend/internal/repository"
	"ascendra_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAuthService(db *gorm.DB) *AuthService {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret-0123456789abcdef"
	cfg.JWT.ExpireTime = time.Hour
	return NewAuthService(repository.NewUserRepository(db), cfg)
}

// TestRegister_HashesPasswordAndDefaultsRole 密码入库即散列，角色默认student
func TestRegister_HashesPasswordAndDefaultsRole(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	user := &model.User{Name: "Alice", Email: "alice@test.edu", Password: "secret123"}
	require.NoError(t, svc.Register(user))

	assert.NotEqual(t, "secret123", user.Password)
	assert.Equal(t, model.Student, user.Role)
	assert.NotZero(t, user.ID)
}

// TestRegister_DuplicateEmail 邮箱唯一
func TestRegister_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	require.NoError(t, svc.Register(&model.User{Name: "Alice", Email: "alice@test.edu", Password: "secret123"}))
	err := svc.Register(&model.User{Name: "Impostor", Email: "alice@test.edu", Password: "other456"})
	assert.ErrorIs(t, err, util.ErrEmailRegistered)
}

// TestLogin_RoundTrip 注册后可登录，令牌可解析出身份
func TestLogin_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	require.NoError(t, svc.Register(&model.User{Name: "Alice", Email: "alice@test.edu", Password: "secret123"}))

	token, user, err := svc.Login("alice@test.edu", "secret123")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NotEmpty(t, token)

	claims, err := util.ParseJWT(token, svc.Cfg.JWT.Secret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, model.Student, claims.Role)
	assert.Equal(t, "alice@test.edu", claims.Email)
}

// TestLogin_BadCredentials 错误密码与未知邮箱同样报无效凭证
func TestLogin_BadCredentials(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	require.NoError(t, svc.Register(&model.User{Name: "Alice", Email: "alice@test.edu", Password: "secret123"}))

	_, _, err := svc.Login("alice@test.edu", "wrong")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)
	_, _, err = svc.Login("nobody@test.edu", "secret123")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)
}

// TestUpdateProfile_PartialFields 只更新提交的字段
func TestUpdateProfile_PartialFields(t *testing.T) {
	db := newTestDB(t)
	userSvc := NewUserService(repository.NewUserRepository(db))
	user := seedUser(t, db, func(u *model.User) {
		u.College = "Engineering"
		u.Course = "CS"
	})

	newCollege := "Business"
	skills := []string{"Excel", "Accounting"}
	updated, err := userSvc.UpdateProfile(user.ID, ProfileUpdate{
		College: &newCollege,
		Skills:  &skills,
	})
	require.NoError(t, err)
	assert.Equal(t, "Business", updated.College)
	assert.Equal(t, "CS", updated.Course)
	assert.Equal(t, model.StringList{"Excel", "Accounting"}, updated.Skills)
}

// TestSetDisabled_TogglesAccount 停用/恢复账号
func TestSetDisabled_TogglesAccount(t *testing.T) {
	db := newTestDB(t)
	userSvc := NewUserService(repository.NewUserRepository(db))
	user := seedUser(t, db)

	require.NoError(t, userSvc.SetDisabled(user.ID, true))
	got, err := userSvc.GetProfile(user.ID)
	require.NoError(t, err)
	assert.True(t, got.Disabled)

	require.NoError(t, userSvc.SetDisabled(user.ID, false))
	got, err = userSvc.GetProfile(user.ID)
	require.NoError(t, err)
	assert.False(t, got.Disabled)

	assert.ErrorIs(t, userSvc.SetDisabled(user.ID+999, true), util.ErrUserNotFound)
}

// TestUpdateProfile_NoFields 空更新不报错，返回现状
func TestUpdateProfile_NoFields(t *testing.T) {
	db := newTestDB(t)
	userSvc := NewUserService(repository.NewUserRepository(db))
	user := seedUser(t, db)

	updated, err := userSvc.UpdateProfile(user.ID, ProfileUpdate{})
	require.NoError(t, err)
	assert.Equal(t, user.ID, updated.ID)
}
