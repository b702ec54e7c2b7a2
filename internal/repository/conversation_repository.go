package repository

import (
	"ascendra_backend/internal/model"

	"gorm.io/gorm"
)

type ConversationRepository struct {
	DB *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{DB: db}
}

func (r *ConversationRepository) Create(conv *model.Conversation) error {
	return r.DB.Create(conv).Error
}

func (r *ConversationRepository) FindByIDAndUser(id string, userID uint) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.DB.Where("id = ? AND user_id = ?", id, userID).First(&conv).Error
	return &conv, err
}

func (r *ConversationRepository) ListByUser(userID uint) ([]model.Conversation, error) {
	var convs []model.Conversation
	err := r.DB.Select("id", "user_id", "title", "is_active", "created_at", "updated_at").
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&convs).Error
	return convs, err
}

func (r *ConversationRepository) Save(conv *model.Conversation) error {
	return r.DB.Save(conv).Error
}

func (r *ConversationRepository) Delete(id string, userID uint) error {
	result := r.DB.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Conversation{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
