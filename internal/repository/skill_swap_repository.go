package repository

import (
	"ascendra_backend/internal/model"

	"gorm.io/gorm"
)

type SkillSwapRepository struct {
	DB *gorm.DB
}

func NewSkillSwapRepository(db *gorm.DB) *SkillSwapRepository {
	return &SkillSwapRepository{DB: db}
}

func (r *SkillSwapRepository) Create(swap *model.SkillSwap) error {
	return r.DB.Create(swap).Error
}

func (r *SkillSwapRepository) FindByID(id string) (*model.SkillSwap, error) {
	var swap model.SkillSwap
	err := r.DB.First(&swap, "id = ?", id).Error
	return &swap, err
}

func (r *SkillSwapRepository) ListByUser(userID uint) ([]model.SkillSwap, error) {
	var swaps []model.SkillSwap
	err := r.DB.Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&swaps).Error
	return swaps, err
}

// ListByUsers 一次取多个用户的挂单，避免匹配时逐用户查询
func (r *SkillSwapRepository) ListByUsers(userIDs []uint) ([]model.SkillSwap, error) {
	var swaps []model.SkillSwap
	if len(userIDs) == 0 {
		return swaps, nil
	}
	err := r.DB.Where("user_id IN ?", userIDs).
		Order("created_at ASC").
		Find(&swaps).Error
	return swaps, err
}

// ListAvailableExcluding 技能市场：他人的所有 available 挂单，按发布顺序。
// 停用账号的挂单不上架。
func (r *SkillSwapRepository) ListAvailableExcluding(userID uint) ([]model.SkillSwap, error) {
	var swaps []model.SkillSwap
	err := r.DB.Preload("User").
		Joins("JOIN users ON users.id = skill_swaps.user_id AND users.disabled = ?", false).
		Where("skill_swaps.user_id <> ? AND skill_swaps.status = ?", userID, model.SwapAvailable).
		Order("skill_swaps.created_at ASC").
		Find(&swaps).Error
	return swaps, err
}
