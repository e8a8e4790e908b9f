package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lovecourt/backend/internal/model"
	"github.com/lovecourt/backend/internal/repository"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	userRepo *repository.UserRepository // 可为 nil（未配置数据库，仅匿名可用）
	identity *IdentityService
}

func NewAuthService(userRepo *repository.UserRepository, identity *IdentityService) *AuthService {
	return &AuthService{userRepo: userRepo, identity: identity}
}

// Register 注册逻辑
func (s *AuthService) Register(ctx context.Context, username, email, password string) error {
	if s.userRepo == nil {
		return errors.New("未配置数据库，仅支持匿名登录")
	}

	// 密码加密
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	id, _ := uuid.NewV7()
	user := &model.User{
		ID:       id.String(),
		Username: username,
		Email:    email,
		Password: string(hash),
	}
	return s.userRepo.Create(ctx, user)
}

// Login 登录逻辑，返回 Token
func (s *AuthService) Login(ctx context.Context, email, password string) (string, string, error) {
	if s.userRepo == nil {
		return "", "", errors.New("未配置数据库，仅支持匿名登录")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", "", errors.New("invalid credentials") // 模糊报错为了安全
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", "", errors.New("invalid credentials")
	}

	return s.generateToken(user.ID)
}

// AnonymousLogin 签发匿名身份和配套 Token
// 对应小程序端的 openid 登录：拿不到后端身份时退化为本地匿名 ID
func (s *AuthService) AnonymousLogin(ctx context.Context) (string, string, error) {
	userID := s.identity.Ensure(ctx, "")
	return s.generateToken(userID)
}

func (s *AuthService) generateToken(userID string) (string, string, error) {
	secret := viper.GetString("jwt.secret")
	expireHours := viper.GetInt("jwt.expire_hours")
	if expireHours <= 0 {
		expireHours = 24 * 7
	}

	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour * time.Duration(expireHours)).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(secret))
	return ss, userID, err
}
