// Package domain 定义了应用程序中使用的数据结构 (数据库模型)。
package domain

import "time"

// User 表示由本服务管理的唯一持久化实体。
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`                                        // 记录唯一标识符 (主键, 数据库生成, 不可变)
	Name      string    `gorm:"type:text;not null" json:"name"`                              // 用户姓名，不能为空
	Email     string    `gorm:"type:text;uniqueIndex:idx_users_email;not null" json:"email"` // 用户邮箱，必须唯一且不能为空
	Age       *int      `json:"age"`                                                         // 年龄，可选；缺省时存储为 NULL
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`                            // 记录创建时间 (插入时设置一次，之后不再修改)
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`                            // 记录最后更新时间 (每次成功更新时刷新)
}
