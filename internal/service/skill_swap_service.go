package service

import (
	"ascendra_backend/internal/model"
	"ascendra_backend/internal/repository"
)

// MarketplaceEntry 技能市场条目：挂单 + 发布者最小画像
type MarketplaceEntry struct {
	model.SkillSwap
	Owner MarketplaceOwner `json:"user"`
}

type MarketplaceOwner struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Avatar  string `json:"avatar"`
	College string `json:"college"`
}

type SkillSwapService struct {
	SwapRepo *repository.SkillSwapRepository
}

func NewSkillSwapService(swapRepo *repository.SkillSwapRepository) *SkillSwapService {
	return &SkillSwapService{SwapRepo: swapRepo}
}

func (s *SkillSwapService) Create(userID uint, offerSkill, wantSkill string) (*model.SkillSwap, error) {
	swap := &model.SkillSwap{
		UserID:     userID,
		OfferSkill: offerSkill,
		WantSkill:  wantSkill,
		Status:     model.SwapAvailable,
	}
	if err := s.SwapRepo.Create(swap); err != nil {
		return nil, err
	}
	return swap, nil
}

func (s *SkillSwapService) ListOwn(userID uint) ([]model.SkillSwap, error) {
	return s.SwapRepo.ListByUser(userID)
}

// Marketplace 他人的全部 available 挂单，发布顺序，不排序不打分
func (s *SkillSwapService) Marketplace(userID uint) ([]MarketplaceEntry, error) {
	swaps, err := s.SwapRepo.ListAvailableExcluding(userID)
	if err != nil {
		return nil, err
	}
	entries := make([]MarketplaceEntry, 0, len(swaps))
	for i := range swaps {
		owner := swaps[i].User
		swaps[i].User = model.User{}
		entries = append(entries, MarketplaceEntry{
			SkillSwap: swaps[i],
			Owner: MarketplaceOwner{
				ID:      owner.ID,
				Name:    owner.Name,
				Avatar:  owner.Avatar,
				College: owner.College,
			},
		})
	}
	return entries, nil
}
