package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lovecourt/backend/internal/model"
	"github.com/lovecourt/backend/internal/repository"
)

// IdentityService 解析会话使用的稳定用户标识
// 优先使用鉴权注入的身份；没有时生成匿名 ID 并尽力登记，
// 登记失败绝不阻塞消息发送——匿名身份在本地同样可用
type IdentityService struct {
	users *repository.UserRepository // 可为 nil（未配置数据库）
}

// NewIdentityService 构造身份服务
func NewIdentityService(users *repository.UserRepository) *IdentityService {
	return &IdentityService{users: users}
}

// Ensure 返回可用的用户标识：provided 非空原样返回，否则签发匿名 ID
func (s *IdentityService) Ensure(ctx context.Context, provided string) string {
	if provided != "" {
		return provided
	}

	id, _ := uuid.NewV7()
	anon := "anon_" + id.String()

	if s.users != nil {
		user := &model.User{
			ID:        anon,
			Username:  anon,
			Anonymous: true,
		}
		if err := s.users.Create(ctx, user); err != nil {
			slog.Warn("匿名用户登记失败，仅本地使用", "error", err)
		}
	}
	return anon
}
