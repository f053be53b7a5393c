/*
 * @module service/models/automation
 * @description 自动化配置模型，记录用户在工作空间内启用的自动化及其运行状态
 * @architecture DDD领域驱动设计 - 实体模型
 * @documentReference ai_docs/automation_engine_design.md
 * @stateFlow idle -> running -> success/failed；禁用时转为paused，重新启用回到idle
 * @rules 同一(用户,工作空间,自动化类型)三元组至多存在一条配置
 * @dependencies gorm.io/gorm, github.com/google/uuid, service/meta
 * @refs service/automation, api/controllers/automation_controller.go
 */

package models

import (
	"errors"
	"time"

	"workhub-service/service/meta"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AutomationConfiguration 自动化配置模型
type AutomationConfiguration struct {
	ID             string     `json:"id" gorm:"primaryKey;type:varchar(36)" example:"550e8400-e29b-41d4-a716-446655440000"`
	UserID         string     `json:"user_id" gorm:"not null;type:varchar(36);index;uniqueIndex:uniq_user_workspace_type" example:"550e8400-e29b-41d4-a716-446655440000"`
	WorkspaceID    *string    `json:"workspace_id,omitempty" gorm:"type:varchar(36);index;uniqueIndex:uniq_user_workspace_type"` // 为空表示用户级全局配置
	AutomationType string     `json:"automation_type" gorm:"not null;size:50;uniqueIndex:uniq_user_workspace_type" example:"tasks-to-calendar"`
	IsEnabled      bool       `json:"is_enabled" gorm:"not null;default:true"`
	Settings       JSONB      `json:"settings,omitempty" gorm:"type:jsonb"` // 按自动化类型的配置项模式解释
	Status         string     `json:"status" gorm:"not null;size:20;default:'idle'" example:"idle"`
	LastRunAt      *time.Time `json:"last_run_at,omitempty"`
	NextRunAt      *time.Time `json:"next_run_at,omitempty"`
	RunLeaseAt     *time.Time `json:"run_lease_at,omitempty"` // running状态的租约时间戳，用于回收崩溃遗留的执行
	ItemsProcessed int        `json:"items_processed" gorm:"default:0"`    // 最近一次运行处理的条目数，非累计值
	ErrorMessage   string     `json:"error_message,omitempty" gorm:"type:text"` // 最近一次失败原因，成功后清空
	CreatedAt      time.Time  `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time  `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate GORM钩子，创建前生成UUID并验证
func (ac *AutomationConfiguration) BeforeCreate(tx *gorm.DB) error {
	if ac.ID == "" {
		ac.ID = uuid.New().String()
	}
	if ac.Status == "" {
		ac.Status = meta.AutomationStatusIdle
	}
	return ac.Validate()
}

// BeforeUpdate GORM钩子，更新前验证
// 条件批量更新时模型实例为空，跳过校验
func (ac *AutomationConfiguration) BeforeUpdate(tx *gorm.DB) error {
	if ac.AutomationType == "" {
		return nil
	}
	return ac.Validate()
}

// Validate 验证自动化类型与状态
func (ac *AutomationConfiguration) Validate() error {
	if !meta.IsValidAutomationType(ac.AutomationType) {
		return errors.New("无效的自动化类型: " + ac.AutomationType)
	}
	if ac.Status != "" && !meta.IsValidAutomationStatus(ac.Status) {
		return errors.New("无效的自动化状态: " + ac.Status)
	}
	return nil
}

// IsRunning 判断是否正在执行
func (ac *AutomationConfiguration) IsRunning() bool {
	return ac.Status == meta.AutomationStatusRunning
}

// IsPaused 判断是否已暂停
func (ac *AutomationConfiguration) IsPaused() bool {
	return ac.Status == meta.AutomationStatusPaused
}

// IsWorkspaceScoped 判断是否绑定到特定工作空间
func (ac *AutomationConfiguration) IsWorkspaceScoped() bool {
	return ac.WorkspaceID != nil && *ac.WorkspaceID != ""
}

// LeaseExpired 判断running租约是否已超过给定TTL
// 租约过期的配置视为上次执行进程已崩溃，可被新的执行回收
func (ac *AutomationConfiguration) LeaseExpired(ttl time.Duration, now time.Time) bool {
	if ac.Status != meta.AutomationStatusRunning {
		return false
	}
	if ac.RunLeaseAt == nil {
		return true
	}
	return ac.RunLeaseAt.Add(ttl).Before(now)
}
