package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/yeisme/dataroom/pkg/configs"
	"github.com/yeisme/dataroom/pkg/internal/model"
	"github.com/yeisme/dataroom/pkg/queue"
	"github.com/yeisme/dataroom/pkg/rule"
)

// TokenIssuer 签发与校验 HS256 访问令牌，sub 为用户 ID.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewTokenIssuer 按认证配置创建.
func NewTokenIssuer(cfg configs.AuthConfig) *TokenIssuer {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = configs.DefaultAuthTokenTTL
	}

	return &TokenIssuer{secret: []byte(cfg.Secret), ttl: ttl, issuer: cfg.Issuer}
}

// Issue 为用户签发令牌.
func (t *TokenIssuer) Issue(uid uint) (string, error) {
	issuedAt := now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(uid), 10),
		Issuer:    t.issuer,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(t.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Parse 校验令牌并返回用户 ID. 任何失败都归为 ErrUnauthorized.
func (t *TokenIssuer) Parse(token string) (uint, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	var claims jwt.RegisteredClaims

	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return 0, errors.Join(ErrUnauthorized, err)
	}

	uid, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || uid == 0 {
		return 0, fmt.Errorf("subject %q: %w", claims.Subject, ErrUnauthorized)
	}

	return uint(uid), nil
}

// AuthService 登录与令牌.
type AuthService struct {
	base
	tokens *TokenIssuer
}

// NewAuthService 从 context 获取依赖实例.
func NewAuthService(c context.Context) *AuthService {
	b := newBase(c)

	return &AuthService{base: b, tokens: NewTokenIssuer(b.cfg.Auth)}
}

// Login 按用户名登录，未知用户名自动创建，邮箱为 <username>@<email_domain>.
func (s *AuthService) Login(ctx context.Context, username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(username) > 50 {
		return "", ErrInvalidName
	}

	var (
		u       model.User
		created bool
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("username = ?", username).First(&u).Error
		if err == nil {
			return nil
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("load user: %w", err)
		}

		u = model.User{Username: username, Email: username + "@" + s.cfg.Auth.EmailDomain}
		if err := rule.ValidateVar(u.Email, "email"); err != nil {
			return ErrInvalidName
		}

		created = true

		return createOrConflict(tx, &u)
	})
	if err != nil {
		return "", err
	}

	if created {
		emit(ctx, &s.base, queue.TopicUserCreated, u.ID, queue.UserPayload{UserID: u.ID, Username: u.Username, Email: u.Email})
	}

	return s.tokens.Issue(u.ID)
}

// Tokens 返回令牌签发器.
func (s *AuthService) Tokens() *TokenIssuer {
	return s.tokens
}
