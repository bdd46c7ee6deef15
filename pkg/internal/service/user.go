package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yeisme/dataroom/pkg/internal/model"
	"github.com/yeisme/dataroom/pkg/internal/types"
	"github.com/yeisme/dataroom/pkg/queue"
)

// UserService 用户信息维护.
type UserService struct {
	base
	tokens *TokenIssuer
}

// NewUserService 从 context 获取依赖实例.
func NewUserService(c context.Context) *UserService {
	b := newBase(c)

	return &UserService{base: b, tokens: NewTokenIssuer(b.cfg.Auth)}
}

// Get 返回用户信息.
func (s *UserService) Get(ctx context.Context, uid uint) (*types.UserView, error) {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, uid).Error; err != nil {
		return nil, mapNotFound(err, "user")
	}

	v := userView(&u)

	return &v, nil
}

// Create 注册用户并返回访问令牌.
func (s *UserService) Create(ctx context.Context, req *types.CreateUserRequest) (string, error) {
	u := model.User{Username: req.Username, Email: req.Email}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUserFree(tx, req.Username, req.Email, 0); err != nil {
			return err
		}

		return createOrConflict(tx, &u)
	})
	if err != nil {
		return "", err
	}

	emit(ctx, &s.base, queue.TopicUserCreated, u.ID, queue.UserPayload{UserID: u.ID, Username: u.Username, Email: u.Email})

	return s.tokens.Issue(u.ID)
}

// Update 修改用户名与邮箱.
func (s *UserService) Update(ctx context.Context, uid uint, req *types.UpdateUserRequest) (*types.UserView, error) {
	var u model.User

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&u, uid).Error; err != nil {
			return mapNotFound(err, "user")
		}

		if err := ensureUserFree(tx, req.Username, req.Email, uid); err != nil {
			return err
		}

		if err := tx.Model(&u).Updates(map[string]any{"username": req.Username, "email": req.Email}).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrConflict
			}

			return fmt.Errorf("update user: %w", err)
		}

		u.Username, u.Email = req.Username, req.Email

		return nil
	})
	if err != nil {
		return nil, err
	}

	emit(ctx, &s.base, queue.TopicUserUpdated, uid, queue.UserPayload{UserID: uid, Username: u.Username, Email: u.Email})

	v := userView(&u)

	return &v, nil
}

// Delete 删除用户及其拥有的全部数据室.
func (s *UserService) Delete(ctx context.Context, uid uint) error {
	var (
		u    model.User
		keys []string
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&u, uid).Error; err != nil {
			return mapNotFound(err, "user")
		}

		var rooms []uint
		if err := lockRows(tx, lockUpdate).Model(&model.DataRoom{}).Where("owner_id = ?", uid).Pluck("id", &rooms).Error; err != nil {
			return fmt.Errorf("list data rooms: %w", err)
		}

		for _, id := range rooms {
			res, err := deleteDataRoomContents(tx, id)
			if err != nil {
				return err
			}

			keys = append(keys, res.Keys...)
		}

		if err := tx.Where("owner_id = ?", uid).Delete(&model.DataRoom{}).Error; err != nil {
			return fmt.Errorf("delete data rooms: %w", err)
		}

		return tx.Delete(&u).Error
	})
	if err != nil {
		return err
	}

	s.removeBlobs(ctx, keys)
	s.invalidate(ctx, uid)
	emit(ctx, &s.base, queue.TopicUserDeleted, uid, queue.UserPayload{UserID: uid, Username: u.Username})

	return nil
}

func ensureUserFree(tx *gorm.DB, username, email string, except uint) error {
	var n int64
	if err := tx.Model(&model.User{}).
		Where("(username = ? OR email = ?) AND id <> ?", username, email, except).
		Count(&n).Error; err != nil {
		return fmt.Errorf("check user: %w", err)
	}

	if n > 0 {
		return fmt.Errorf("username or email: %w", ErrConflict)
	}

	return nil
}
