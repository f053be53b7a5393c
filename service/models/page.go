/*
 * @module service/models/page
 * @description 工作空间页面模型，页面内容为自由格式JSON，自动化执行器只读取其中的任务结构
 * @architecture DDD领域驱动设计 - 实体模型
 * @documentReference ai_docs/automation_engine_design.md
 * @stateFlow 页面CRUD由工作空间服务负责，本服务仅读取（归档自动化例外）
 * @rules 内容结构不做强约束，执行器需容忍任意形状的数据
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service/pagedata, service/automation
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Page 工作空间页面模型
type Page struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID      string    `json:"user_id" gorm:"not null;type:varchar(36);index"`
	WorkspaceID *string   `json:"workspace_id,omitempty" gorm:"type:varchar(36);index"`
	Title       string    `json:"title" gorm:"size:255"`
	Content     JSONB     `json:"content,omitempty" gorm:"type:jsonb"` // 自由格式页面内容
	CreatedAt   time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate GORM钩子，创建前生成UUID
func (p *Page) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// Tasks 提取页面内容中的任务列表
// 页面内容为自由格式，没有tasks数组或形状不符时返回nil
func (p *Page) Tasks() []interface{} {
	if p.Content == nil {
		return nil
	}
	raw, exists := p.Content["tasks"]
	if !exists {
		return nil
	}
	tasks, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	return tasks
}
