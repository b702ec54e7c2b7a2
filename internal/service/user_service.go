package service

import (
	"ascendra_backend/internal/model"
	"ascendra_backend/internal/repository"
	"ascendra_backend/internal/util"

	"gorm.io/gorm"
)

// ProfileUpdate 可更新的画像字段，nil 表示不改
type ProfileUpdate struct {
	Name      *string   `json:"name"`
	Avatar    *string   `json:"avatar"`
	College   *string   `json:"college"`
	Course    *string   `json:"course"`
	Year      *int      `json:"year"`
	Location  *string   `json:"location"`
	Skills    *[]string `json:"skills"`
	Interests *[]string `json:"interests"`
}

type UserService struct {
	UserRepo *repository.UserRepository
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{UserRepo: userRepo}
}

func (s *UserService) GetProfile(userID uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) UpdateProfile(userID uint, upd ProfileUpdate) (*model.User, error) {
	fields := map[string]interface{}{}
	if upd.Name != nil {
		fields["name"] = *upd.Name
	}
	if upd.Avatar != nil {
		fields["avatar"] = *upd.Avatar
	}
	if upd.College != nil {
		fields["college"] = *upd.College
	}
	if upd.Course != nil {
		fields["course"] = *upd.Course
	}
	if upd.Year != nil {
		fields["year"] = *upd.Year
	}
	if upd.Location != nil {
		fields["location"] = *upd.Location
	}
	if upd.Skills != nil {
		fields["skills"] = model.StringList(*upd.Skills)
	}
	if upd.Interests != nil {
		fields["interests"] = model.StringList(*upd.Interests)
	}

	if len(fields) > 0 {
		if err := s.UserRepo.UpdateFields(userID, fields); err != nil {
			return nil, err
		}
	}
	return s.GetProfile(userID)
}

func (s *UserService) UpdateAvatar(userID uint, url string) error {
	return s.UserRepo.UpdateFields(userID, map[string]interface{}{"avatar": url})
}

func (s *UserService) ListUsers() ([]model.User, error) {
	return s.UserRepo.FindAll()
}

// SetDisabled 停用/恢复账号。停用的账号不再进入匹配候选池。
func (s *UserService) SetDisabled(userID uint, disabled bool) error {
	if _, err := s.GetProfile(userID); err != nil {
		return err
	}
	return s.UserRepo.UpdateFields(userID, map[string]interface{}{"disabled": disabled})
}
