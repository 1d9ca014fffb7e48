package service_test // 测试包

import (
	"context"
	"errors"
	"testing"
	"time"

	// 导入必要的包
	"github.com/James-gosling/postgres-crud-app/internal/domain"
	"github.com/James-gosling/postgres-crud-app/internal/repository"
	"github.com/James-gosling/postgres-crud-app/internal/repository/mocks" // 导入 Mock 实现
	"github.com/James-gosling/postgres-crud-app/internal/service"          // 导入被测试的包
	"github.com/stretchr/testify/assert"                                   // 导入断言库
	"github.com/stretchr/testify/mock"                                     // 导入 Mock 库
	"github.com/stretchr/testify/require"                                  // 导入 Require 断言库
)

// --- 测试 Create 方法 ---

func TestUserService_Create_Success(t *testing.T) {
	// Arrange: 准备 Mock 对象, Service 实例, 和测试数据
	mockUserRepo := new(mocks.UserRepository)
	userService := service.NewUserService(mockUserRepo)

	ctx := context.Background()
	name := "Ada"
	email := "ada@example.com"
	age := 30

	// 设置 Mock 预期: Insert 被调用时模拟数据库填充 ID 和时间戳
	mockUserRepo.On("Insert", ctx, mock.MatchedBy(func(user *domain.User) bool {
		assert.Equal(t, name, user.Name)
		assert.Equal(t, email, user.Email)
		require.NotNil(t, user.Age, "age 应被传递到仓库层")
		assert.Equal(t, age, *user.Age)
		return true
	})).
		Run(func(args mock.Arguments) { // 模拟数据库填充字段
			userArg := args.Get(1).(*domain.User)
			userArg.ID = 5
			now := time.Now()
			userArg.CreatedAt = now
			userArg.UpdatedAt = now // 创建时两个时间戳相等
		}).
		Return(nil).
		Once()

	// Act: 执行被测试的 Create 方法
	created, err := userService.Create(ctx, name, email, &age)

	// Assert: 验证 Create 的结果
	require.NoError(t, err, "成功创建时不应有错误")
	require.NotNil(t, created, "成功创建时应返回用户对象")
	assert.Equal(t, uint(5), created.ID, "返回的用户 ID 应为 5")
	assert.Equal(t, created.CreatedAt, created.UpdatedAt, "创建时 created_at 应等于 updated_at")

	// Verify: 确保 Mock 的所有预期都被满足
	mockUserRepo.AssertExpectations(t)
}

func TestUserService_Create_NilAge(t *testing.T) {
	// Arrange: age 缺省时应以 nil 传递到仓库层 (存储为 NULL)
	mockUserRepo := new(mocks.UserRepository)
	userService := service.NewUserService(mockUserRepo)
	ctx := context.Background()

	mockUserRepo.On("Insert", ctx, mock.MatchedBy(func(user *domain.User) bool {
		return user.Age == nil
	})).Return(nil).Once()

	// Act
	_, err := userService.Create(ctx, "Bob", "bob@example.com", nil)

	// Assert
	assert.NoError(t, err)
	mockUserRepo.AssertExpectations(t)
}

func TestUserService_Create_MissingFields(t *testing.T) {
	// Arrange
	mockUserRepo := new(mocks.UserRepository)
	userService := service.NewUserService(mockUserRepo)
	ctx := context.Background()

	cases := []struct {
		label string
		name  string
		email string
	}{
		{"missing name", "", "a@example.com"},
		{"missing email", "Ada", ""},
		{"missing both", "", ""},
	}
	for _, tc := range cases {
		// Act
		_, err := userService.Create(ctx, tc.name, tc.email, nil)

		// Assert: 字段缺失是客户端错误，不应触达仓库层
		require.Error(t, err, tc.label)
		assert.True(t, errors.Is(err, service.ErrValidation), "错误类型应为 ErrValidation (%s)", tc.label)
	}
	mockUserRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestUserService_Create_DuplicateEmail(t *testing.T) {
	// Arrange
	mockUserRepo := new(mocks.UserRepository)
	userService := service.NewUserService(mockUserRepo)
	ctx := context.Background()

	// 设置 Mock 预期: 仓库层报告唯一约束冲突
	mockUserRepo.On("Insert", ctx, mock.Anything).Return(repository.ErrDuplicateEntry).Once()

	// Act
	_, err := userService.Create(ctx, "Ada", "taken@example.com", nil)

	// Assert
	require.Error(t, err, "邮箱已存在时应返回错误")
	assert.True(t, errors.Is(err, service.ErrEmailTaken), "错误类型应为 ErrEmailTaken")
	mockUserRepo.AssertExpectations(t)
}

func TestUserService_Create_StoreError(t *testing.T) {
	// Arrange: 其他数据库错误不应泄露，统一映射为 ErrInternalServer
	mockUserRepo := new(mocks.UserRepository)
	userService := service.NewUserService(mockUserRepo)
	ctx := context.Background()

	mockUserRepo.On("Insert", ctx, mock.Anything).Return(errors.New("connection refused")).Once()

	// Act
	_, err := userService.Create(ctx, "Ada", "ada@example.com", nil)

	// Assert
	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrInternalServer), "错误类型应为 ErrInternalServer")
	mockUserRepo.AssertExpectations(t)
}

// --- 测试 Get / List 方法 ---

func TestUserService_Get_NotFound(t *testing.T) {
	// Arrange
	mockUserRepo := new(mocks.UserRepository)
	userService := service.NewUserService(mockUserRepo)
	ctx := context.Background()

	mockUserRepo.On("FindByID", ctx, uint(42)).Return(nil, repository.ErrUserNotFound).Once()

	// Act
	_, err := userService.Get(ctx, 42)

	// Assert
	assert.True(t, errors.Is(err, service.ErrUserNotFound), "错误类型应为 ErrUserNotFound")
	mockUserRepo.AssertExpectations(t)
}

func TestUserService_List_StoreError(t *testing.T) {
	// Arrange
	mockUserRepo := new(mocks.UserRepository)
	userService := service.NewUserService(mockUserRepo)
	ctx := context.Background()

	mockUserRepo.On("FindAll", ctx).Return(nil, errors.New("dial tcp: connection refused")).Once()

	// Act
	_, err := userService.List(ctx)

	// Assert
	assert.True(t, errors.Is(err, service.ErrInternalServer), "错误类型应为 ErrInternalServer")
	mockUserRepo.AssertExpectations(t)
}

// --- 测试 Update 方法 ---

func TestUserService_Update_Success(t *testing.T) {
	// Arrange
	mockUserRepo := new(mocks.UserRepository)
	userService := service.NewUserService(mockUserRepo)
	ctx := context.Background()
	age := 31

	createdAt := time.Now().Add(-time.Hour)
	updated := &domain.User{
		ID: 7, Name: "Ada L.", Email: "ada@example.com", Age: &age,
		CreatedAt: createdAt, UpdatedAt: time.Now(),
	}
	mockUserRepo.On("Update", ctx, mock.MatchedBy(func(user *domain.User) bool {
		return user.ID == 7 && user.Name == "Ada L." && user.Age != nil && *user.Age == 31
	})).Return(updated, nil).Once()

	// Act
	got, err := userService.Update(ctx, 7, "Ada L.", "ada@example.com", &age)

	// Assert
	require.NoError(t, err, "成功更新时不应有错误")
	require.NotNil(t, got)
	assert.Equal(t, "Ada L.", got.Name)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt), "更新后 updated_at 应晚于 created_at")
	mockUserRepo.AssertExpectations(t)
}

func TestUserService_Update_MissingFields(t *testing.T) {
	// Arrange
	mockUserRepo := new(mocks.UserRepository)
	userService := service.NewUserService(mockUserRepo)

	// Act
	_, err := userService.Update(context.Background(), 7, "", "ada@example.com", nil)

	// Assert
	assert.True(t, errors.Is(err, service.ErrValidation), "错误类型应为 ErrValidation")
	mockUserRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUserService_Update_NotFound(t *testing.T) {
	// Arrange
	mockUserRepo := new(mocks.UserRepository)
	userService := service.NewUserService(mockUserRepo)
	ctx := context.Background()

	mockUserRepo.On("Update", ctx, mock.Anything).Return(nil, repository.ErrUserNotFound).Once()

	// Act
	_, err := userService.Update(ctx, 999, "Ghost", "ghost@example.com", nil)

	// Assert
	assert.True(t, errors.Is(err, service.ErrUserNotFound), "错误类型应为 ErrUserNotFound")
	mockUserRepo.AssertExpectations(t)
}

func TestUserService_Update_DuplicateEmail(t *testing.T) {
	// Arrange
	mockUserRepo := new(mocks.UserRepository)
	userService := service.NewUserService(mockUserRepo)
	ctx := context.Background()

	mockUserRepo.On("Update", ctx, mock.Anything).Return(nil, repository.ErrDuplicateEntry).Once()

	// Act
	_, err := userService.Update(ctx, 7, "Ada", "taken@example.com", nil)

	// Assert
	assert.True(t, errors.Is(err, service.ErrEmailTaken), "错误类型应为 ErrEmailTaken")
	mockUserRepo.AssertExpectations(t)
}

// --- 测试 Delete 方法 ---

func TestUserService_Delete_Success(t *testing.T) {
	// Arrange
	mockUserRepo := new(mocks.UserRepository)
	userService := service.NewUserService(mockUserRepo)
	ctx := context.Background()

	deleted := &domain.User{ID: 3, Name: "Ada", Email: "ada@example.com"}
	mockUserRepo.On("Delete", ctx, uint(3)).Return(deleted, nil).Once()

	// Act
	got, err := userService.Delete(ctx, 3)

	// Assert
	require.NoError(t, err, "成功删除时不应有错误")
	assert.Equal(t, uint(3), got.ID, "应返回被删除的记录")
	mockUserRepo.AssertExpectations(t)
}

func TestUserService_Delete_NotFound(t *testing.T) {
	// Arrange
	mockUserRepo := new(mocks.UserRepository)
	userService := service.NewUserService(mockUserRepo)
	ctx := context.Background()

	mockUserRepo.On("Delete", ctx, uint(404)).Return(nil, repository.ErrUserNotFound).Once()

	// Act
	_, err := userService.Delete(ctx, 404)

	// Assert
	assert.True(t, errors.Is(err, service.ErrUserNotFound), "错误类型应为 ErrUserNotFound")
	mockUserRepo.AssertExpectations(t)
}
