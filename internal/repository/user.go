package repository

import (
	"context"

	"github.com/James-gosling/postgres-crud-app/internal/domain"
)

// UserRepository 定义了用户数据的存储和检索操作。
// 每个方法对应一条参数化语句；调用方不得跨请求持有任何底层连接。
type UserRepository interface {
	// FindAll 返回所有用户记录，按 created_at 降序排列。
	FindAll(ctx context.Context) ([]domain.User, error)

	// FindByID 根据用户 ID 查找用户。
	// 如果用户不存在，应返回明确的错误，例如 repository.ErrUserNotFound。
	FindByID(ctx context.Context, id uint) (*domain.User, error)

	// Insert 创建新用户。ID/CreatedAt/UpdatedAt 由数据库填充。
	// 如果 email 已存在，返回 repository.ErrDuplicateEntry。
	Insert(ctx context.Context, user *domain.User) error

	// Update 整体替换可变字段 (name/email/age) 并刷新 updated_at。
	// 返回更新后的记录；不存在时返回 ErrUserNotFound，
	// email 与其他记录冲突时返回 ErrDuplicateEntry。
	Update(ctx context.Context, user *domain.User) (*domain.User, error)

	// Delete 删除指定 ID 的用户并返回被删除的记录。
	// 不存在时返回 ErrUserNotFound。
	Delete(ctx context.Context, id uint) (*domain.User, error)
}
