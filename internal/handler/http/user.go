package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/James-gosling/postgres-crud-app/internal/domain"
	"github.com/James-gosling/postgres-crud-app/internal/service"
)

// UserHandler 封装了用户 CRUD 相关的 HTTP 处理逻辑
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler 创建 UserHandler 实例
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// ViewData 是传给 HTML 模板的视图模型：
// 记录列表 + 可选的 "正在编辑" 记录 + 可选的错误信息。
type ViewData struct {
	Users       []domain.User
	EditingUser *domain.User
	Error       string
}

// userPayload 定义创建/更新请求的 JSON 结构体
type userPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Age   *int   `json:"age"`
}

// Index 处理 GET /：渲染全部用户列表，无编辑记录
func (h *UserHandler) Index(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		// 存储不可用时仍渲染页面：空列表 + 错误横幅
		logrus.WithError(err).Error("Handler.Index: Failed to load users")
		c.HTML(http.StatusInternalServerError, "index.html", ViewData{
			Users: []domain.User{},
			Error: "Failed to load users",
		})
		return
	}
	c.HTML(http.StatusOK, "index.html", ViewData{Users: users})
}

// Create 处理 POST /users：创建成功后重定向回列表页。
// 注意与 Update 的响应不对称：成功是重定向，冲突/存储错误渲染 HTML，
// 而字段缺失返回 JSON。这一行为沿用既有客户端的预期，不要擅自统一。
func (h *UserHandler) Create(c *gin.Context) {
	name, email, age, err := h.bindUserInput(c)
	if err != nil {
		logrus.WithError(err).Warn("Handler.Create: Invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input format")
		return
	}

	_, err = h.userService.Create(c.Request.Context(), name, email, age)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		if errors.Is(err, service.ErrEmailTaken) {
			h.renderWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		h.renderWithError(c, http.StatusInternalServerError, "Failed to create user")
		return
	}

	c.Redirect(http.StatusSeeOther, "/")
}

// Edit 处理 GET /users/:id：渲染列表页并把匹配的记录标记为编辑中。
// 这里先取单条记录再取列表，两次读取之间没有事务耦合；
// 记录在间隙被删除的竞争窗口是已接受的行为。
func (h *UserHandler) Edit(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	user, err := h.userService.Get(c.Request.Context(), id)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	c.HTML(http.StatusOK, "index.html", ViewData{
		Users:       users,
		EditingUser: user,
	})
}

// Update 处理 PUT /users/:id：整体替换 name/email/age 并返回更新后的记录
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	name, email, age, err := h.bindUserInput(c)
	if err != nil {
		logrus.WithError(err).Warn("Handler.Update: Invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input format")
		return
	}

	updated, err := h.userService.Update(c.Request.Context(), id, name, email, age)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, gin.H{
		"success": true,
		"user":    updated,
	})
}

// Delete 处理 DELETE /users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	deleted, err := h.userService.Delete(c.Request.Context(), id)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, gin.H{
		"success": true,
		"message": "User " + strconv.FormatUint(uint64(deleted.ID), 10) + " deleted successfully",
	})
}

// Health 处理 GET /health：只要进程存活就返回 OK，不探测存储
func (h *UserHandler) Health(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, gin.H{"status": "OK"})
}

// bindUserInput 同时支持 JSON 和表单编码的请求体。
// 表单中 age 为空串表示 "未填写"，映射为 nil (存储为 NULL)。
func (h *UserHandler) bindUserInput(c *gin.Context) (name, email string, age *int, err error) {
	if strings.HasPrefix(c.ContentType(), "application/json") {
		var payload userPayload
		if err = c.ShouldBindJSON(&payload); err != nil {
			return "", "", nil, err
		}
		return payload.Name, payload.Email, payload.Age, nil
	}

	name = c.PostForm("name")
	email = c.PostForm("email")
	if raw := c.PostForm("age"); raw != "" {
		parsed, perr := strconv.Atoi(raw)
		if perr != nil {
			return "", "", nil, perr
		}
		age = &parsed
	}
	return name, email, age, nil
}

// renderWithError 渲染列表页并附带错误信息 (Create 的失败路径)。
// 如果连列表都拿不到，就渲染空列表，错误信息保持不变。
func (h *UserHandler) renderWithError(c *gin.Context, code int, message string) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		users = []domain.User{}
	}
	c.HTML(code, "index.html", ViewData{
		Users: users,
		Error: message,
	})
}

// parseID 解析路径参数中的记录 ID。
// 非数字的 ID 不可能匹配任何记录，与未知 ID 一样按 404 处理。
func parseID(c *gin.Context) (uint, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		logrus.WithField("id", raw).Warn("Invalid user id in path")
		ErrorResponse(c, http.StatusNotFound, service.ErrUserNotFound.Error())
		return 0, false
	}
	return uint(id), true
}
