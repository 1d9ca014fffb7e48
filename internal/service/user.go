package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/James-gosling/postgres-crud-app/internal/domain"
	"github.com/James-gosling/postgres-crud-app/internal/repository"
)

// UserService 负责用户记录相关的业务逻辑。
// 它在仓库之上做字段校验，并把仓库层错误映射为业务错误。
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService 创建 UserService 实例。
func NewUserService(userRepo repository.UserRepository) *UserService {
	if userRepo == nil {
		panic("UserRepository cannot be nil for UserService")
	}
	return &UserService{userRepo: userRepo}
}

// List 返回全部用户，按创建时间降序。
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to list users")
		return nil, ErrInternalServer
	}
	return users, nil
}

// Get 返回指定 ID 的用户。
func (s *UserService) Get(ctx context.Context, id uint) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		logrus.WithError(err).WithField("user_id", id).Error("Failed to fetch user")
		return nil, ErrInternalServer
	}
	return user, nil
}

// Create 校验输入并创建新用户。
func (s *UserService) Create(ctx context.Context, name, email string, age *int) (*domain.User, error) {
	logCtx := logrus.WithFields(logrus.Fields{"name": name, "email": email})

	// 1. 基本验证 (仅检查必填字段是否存在)
	if name == "" || email == "" {
		return nil, ErrValidation
	}

	// 2. 创建用户对象并保存 (调用 Repository 接口)
	user := &domain.User{
		Name:  name,
		Email: email,
		Age:   age,
	}
	if err := s.userRepo.Insert(ctx, user); err != nil {
		// --- 只检查来自 Repository 的特定错误 ---
		if errors.Is(err, repository.ErrDuplicateEntry) {
			logCtx.WithError(err).Warn("Create failed: email already exists")
			return nil, ErrEmailTaken // 返回业务错误
		}
		// 其他数据库错误
		logCtx.WithError(err).Error("Database error during user creation")
		return nil, ErrInternalServer
	}

	logCtx.WithField("user_id", user.ID).Info("User created successfully")
	return user, nil
}

// Update 校验输入并整体替换用户的可变字段。
func (s *UserService) Update(ctx context.Context, id uint, name, email string, age *int) (*domain.User, error) {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": id, "email": email})

	// 1. 基本验证
	if name == "" || email == "" {
		return nil, ErrValidation
	}

	// 2. 调用 Repository 执行更新
	updated, err := s.userRepo.Update(ctx, &domain.User{
		ID:    id,
		Name:  name,
		Email: email,
		Age:   age,
	})
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			logCtx.WithError(err).Warn("Update failed: user not found")
			return nil, ErrUserNotFound
		}
		if errors.Is(err, repository.ErrDuplicateEntry) {
			logCtx.WithError(err).Warn("Update failed: email already exists")
			return nil, ErrEmailTaken
		}
		logCtx.WithError(err).Error("Database error during user update")
		return nil, ErrInternalServer
	}

	logCtx.Info("User updated successfully")
	return updated, nil
}

// Delete 删除指定 ID 的用户并返回被删除的记录。
func (s *UserService) Delete(ctx context.Context, id uint) (*domain.User, error) {
	logCtx := logrus.WithField("user_id", id)

	deleted, err := s.userRepo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			logCtx.WithError(err).Warn("Delete failed: user not found")
			return nil, ErrUserNotFound
		}
		logCtx.WithError(err).Error("Database error during user deletion")
		return nil, ErrInternalServer
	}

	logCtx.WithField("email", deleted.Email).Info("User deleted successfully")
	return deleted, nil
}
