package model

import "time"

type User struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Username  string    `gorm:"type:varchar(100);unique" json:"username"`
	Email     string    `gorm:"type:varchar(255);unique;index" json:"email"`
	Password  string    `gorm:"type:varchar(255)" json:"-"`
	Anonymous bool      `json:"anonymous"` // 匿名用户没有邮箱和密码
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AuthClaims struct {
	UserID string `json:"user_id"`
}
