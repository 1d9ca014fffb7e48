package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/James-gosling/postgres-crud-app/internal/domain"
	"github.com/James-gosling/postgres-crud-app/internal/repository"
)

// uniqueViolation 是 PostgreSQL 唯一约束冲突的 SQLSTATE 代码
const uniqueViolation = "23505"

// GormUserRepository 是 UserRepository 接口的 GORM 实现
type GormUserRepository struct {
	db *gorm.DB // 依赖 GORM DB 连接
}

// NewGormUserRepository 创建 GormUserRepository 实例
// db *gorm.DB 通过依赖注入传入
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	if db == nil {
		// 早期失败比运行时 panic 更好
		panic("database connection cannot be nil for GormUserRepository")
	}
	return &GormUserRepository{db: db}
}

// FindAll 实现查询全部用户，按创建时间降序
func (r *GormUserRepository) FindAll(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list users: %w", err)
	}
	return users, nil
}

// FindByID 实现根据用户 ID 查找用户
func (r *GormUserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	// GORM 会自动根据主键查找
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		// 检查是否是记录未找到错误
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 映射为定义的仓库层错误
			return nil, repository.ErrUserNotFound
		}
		// 对于其他数据库错误，包装原始错误并返回
		return nil, fmt.Errorf("gorm: find user by id %d: %w", id, err)
	}
	return &user, nil
}

// Insert 实现创建新用户记录
// ID、CreatedAt、UpdatedAt 由数据库/GORM 填充到传入的 user 上
func (r *GormUserRepository) Insert(ctx context.Context, user *domain.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if err != nil {
		if isDuplicateEntryError(err) {
			return repository.ErrDuplicateEntry // 映射为定义的仓库错误
		}
		return fmt.Errorf("gorm: insert user (email: %s): %w", user.Email, err)
	}
	return nil
}

// Update 实现整体替换可变字段并刷新 updated_at
func (r *GormUserRepository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	// 1. 确认记录存在 (不存在时直接返回 ErrUserNotFound)
	var existing domain.User
	if err := r.db.WithContext(ctx).First(&existing, user.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("gorm: find user by id %d: %w", user.ID, err)
	}

	// 2. 使用 map 更新，保证 age 为 nil 时也能写入 NULL
	//    (struct 更新会跳过零值字段，无法清空 age)
	updates := map[string]interface{}{
		"name":  user.Name,
		"email": user.Email,
		"age":   user.Age,
	}
	result := r.db.WithContext(ctx).Model(&existing).Updates(updates)
	if err := result.Error; err != nil {
		if isDuplicateEntryError(err) {
			return nil, repository.ErrDuplicateEntry
		}
		return nil, fmt.Errorf("gorm: update user %d: %w", user.ID, err)
	}
	if result.RowsAffected == 0 {
		// 两次读写之间记录被删除 (已接受的竞争窗口)
		return nil, repository.ErrUserNotFound
	}

	// 3. 重新读取，返回数据库中的最终状态 (含刷新后的 updated_at)
	var updated domain.User
	if err := r.db.WithContext(ctx).First(&updated, user.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("gorm: reload user %d: %w", user.ID, err)
	}
	return &updated, nil
}

// Delete 实现删除用户并返回被删除的记录
func (r *GormUserRepository) Delete(ctx context.Context, id uint) (*domain.User, error) {
	// 先取出记录，删除成功后将其返回给调用方
	var user domain.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("gorm: find user by id %d: %w", id, err)
	}

	result := r.db.WithContext(ctx).Delete(&domain.User{}, id)
	if err := result.Error; err != nil {
		return nil, fmt.Errorf("gorm: delete user %d: %w", id, err)
	}
	if result.RowsAffected == 0 {
		return nil, repository.ErrUserNotFound
	}
	return &user, nil
}

// isDuplicateEntryError 检查错误是否为唯一约束冲突。
// 优先使用 GORM 的统一翻译错误，其次检查 PostgreSQL 驱动的 SQLSTATE。
func isDuplicateEntryError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
