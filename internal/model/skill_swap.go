package model

// 技能交换状态
const (
	SwapAvailable  = "available"
	SwapMatched    = "matched"
	SwapInProgress = "in-progress"
	SwapCompleted  = "completed"
)

// SkillSwap 技能交换挂单：我教 offer_skill，想学 want_skill
type SkillSwap struct {
	UUIDBase
	UserID      uint   `gorm:"index;not null" json:"userId"`
	User        User   `gorm:"foreignKey:UserID;references:ID;constraint:false" json:"-"`
	OfferSkill  string `gorm:"size:100;not null" json:"offerSkill"`
	WantSkill   string `gorm:"size:100;not null" json:"wantSkill"`
	Status      string `gorm:"type:varchar(20);default:'available';index" json:"status"`
	MatchedWith *uint  `json:"matchedWith,omitempty"`
}

func (SkillSwap) TableName() string {
	return "skill_swaps"
}
