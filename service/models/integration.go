/*
 * @module service/models/integration
 * @description 第三方集成模型，包含加密的OAuth凭证和资源级同步记录
 * @architecture DDD领域驱动设计 - 实体模型
 * @documentReference ai_docs/integration_sync_design.md
 * @stateFlow 凭证：授权创建 -> 刷新更新 -> 撤销停用；同步：pending -> in_progress -> success/failed
 * @rules 凭证明文永不落库；同步记录按(用户,集成类型,资源类型)原地更新，不追加历史
 * @dependencies gorm.io/gorm, github.com/google/uuid, service/meta
 * @refs service/credential, service/syncstate, service/vault
 */

package models

import (
	"errors"
	"time"

	"workhub-service/service/meta"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IntegrationToken 集成凭证模型
// 访问令牌与刷新令牌均为Vault加密后的密文
type IntegrationToken struct {
	ID                    string           `json:"id" gorm:"primaryKey;type:varchar(36)" example:"550e8400-e29b-41d4-a716-446655440000"`
	UserID                string           `json:"user_id" gorm:"not null;type:varchar(36);index" example:"550e8400-e29b-41d4-a716-446655440000"`
	IntegrationType       string           `json:"integration_type" gorm:"not null;size:50;index" example:"google-calendar"`
	EncryptedAccessToken  string           `json:"-" gorm:"not null;type:text"`
	EncryptedRefreshToken string           `json:"-" gorm:"type:text"`
	Scopes                JSONBStringArray `json:"scopes,omitempty" gorm:"type:jsonb"`
	ExpiresAt             *time.Time       `json:"expires_at,omitempty"`
	ExternalUserID        string           `json:"external_user_id,omitempty" gorm:"size:191"`
	ExternalEmail         string           `json:"external_email,omitempty" gorm:"size:191"`
	EncryptedAuditDetail  string           `json:"-" gorm:"type:text"` // 授权时的审计详情密文，仅用于展示
	IsActive              bool             `json:"is_active" gorm:"not null;default:true;index"`
	RevokedAt             *time.Time       `json:"revoked_at,omitempty"`
	CreatedAt             time.Time        `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt             time.Time        `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate GORM钩子，创建前生成UUID并验证
func (it *IntegrationToken) BeforeCreate(tx *gorm.DB) error {
	if it.ID == "" {
		it.ID = uuid.New().String()
	}
	if !meta.IsValidIntegrationType(it.IntegrationType) {
		return errors.New("无效的集成类型: " + it.IntegrationType)
	}
	if it.EncryptedAccessToken == "" {
		return errors.New("访问令牌密文不能为空")
	}
	return nil
}

// IsExpired 判断凭证是否已过期
// 未设置过期时间的凭证视为永不过期
func (it *IntegrationToken) IsExpired(now time.Time) bool {
	if it.ExpiresAt == nil {
		return false
	}
	return !it.ExpiresAt.After(now)
}

// IntegrationSync 集成同步记录模型
// 每个(用户,集成类型,资源类型)三元组一条记录，原地更新
type IntegrationSync struct {
	ID              string     `json:"id" gorm:"primaryKey;type:varchar(36)" example:"550e8400-e29b-41d4-a716-446655440000"`
	UserID          string     `json:"user_id" gorm:"not null;type:varchar(36);index" example:"550e8400-e29b-41d4-a716-446655440000"`
	IntegrationType string     `json:"integration_type" gorm:"not null;size:50;index" example:"google-calendar"`
	ResourceType    string     `json:"resource_type" gorm:"not null;size:50" example:"calendar-events"`
	Status          string     `json:"status" gorm:"not null;size:20;default:'pending'" example:"pending"`
	LastSyncAt      *time.Time `json:"last_sync_at,omitempty"`
	NextSyncAt      *time.Time `json:"next_sync_at,omitempty"`
	ItemsSynced     int        `json:"items_synced" gorm:"default:0"`
	ErrorMessage    string     `json:"error_message,omitempty" gorm:"type:text"`
	FailureCount    int        `json:"failure_count" gorm:"default:0"` // 仅在失败时递增，是重试资格的唯一判据
	Metadata        JSONB      `json:"metadata,omitempty" gorm:"type:jsonb"` // 续传状态，如分页游标
	CreatedAt       time.Time  `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time  `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate GORM钩子，创建前生成UUID并验证
func (is *IntegrationSync) BeforeCreate(tx *gorm.DB) error {
	if is.ID == "" {
		is.ID = uuid.New().String()
	}
	if is.Status == "" {
		is.Status = meta.SyncStatusPending
	}
	if !meta.IsValidIntegrationType(is.IntegrationType) {
		return errors.New("无效的集成类型: " + is.IntegrationType)
	}
	if !meta.IsValidSyncStatus(is.Status) {
		return errors.New("无效的同步状态: " + is.Status)
	}
	return nil
}

// IsRetryEligible 判断是否符合自动重试条件
func (is *IntegrationSync) IsRetryEligible() bool {
	if is.Status == meta.SyncStatusPending {
		return true
	}
	return is.Status == meta.SyncStatusFailed && is.FailureCount < meta.MaxSyncFailures
}
