package model

import (
	"time"
)

type UserRole string

const (
	Student   UserRole = "student"
	Counselor UserRole = "counselor"
	Admin     UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name      string     `gorm:"size:100;not null" json:"name"`
	Email     string     `gorm:"size:100;unique;not null" json:"email"`
	Password  string     `gorm:"size:100;not null" json:"-"`
	Role      UserRole   `gorm:"type:varchar(20);default:'student'" json:"role"`
	Avatar    string     `gorm:"size:255" json:"avatar"`
	College   string     `gorm:"size:150" json:"college"`
	Course    string     `gorm:"size:150" json:"course"`
	Year      int        `gorm:"default:0" json:"year"`
	Location  string     `gorm:"size:150" json:"location"`
	Skills    StringList `gorm:"type:json" json:"skills"`
	Interests StringList `gorm:"type:json" json:"interests"`
	Disabled  bool       `gorm:"default:false" json:"disabled"`
	LastLogin time.Time  `json:"lastLogin"`
	LastSeen  time.Time  `json:"lastSeen"`
}

func (User) TableName() string {
	return "users"
}

// PublicProfile 对其他用户可见的最小画像
type PublicProfile struct {
	ID        uint       `json:"id"`
	Name      string     `json:"name"`
	Avatar    string     `json:"avatar"`
	College   string     `json:"college"`
	Course    string     `json:"course"`
	Year      int        `json:"year"`
	Skills    StringList `json:"skills"`
	Interests StringList `json:"interests"`
}

func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:        u.ID,
		Name:      u.Name,
		Avatar:    u.Avatar,
		College:   u.College,
		Course:    u.Course,
		Year:      u.Year,
		Skills:    u.Skills,
		Interests: u.Interests,
	}
}
