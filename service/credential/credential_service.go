/*
 * @module service/credential
 * @description 集成凭证服务，管理加密的OAuth凭证：保存、刷新、撤销与当前凭证解析
 * @architecture 分层架构 - 服务层
 * @documentReference ai_docs/integration_sync_design.md
 * @stateFlow 授权成功 -> 保存加密凭证 -> 令牌刷新更新 -> 撤销时停用该集成的全部活跃凭证
 * @rules
 *   - 同一(用户,集成类型)可存在多条历史凭证，当前凭证为最近创建的活跃行
 *   - 撤销在单个事务内停用全部活跃行
 *   - 凭证明文仅在加解密调用的瞬间存在
 * @dependencies gorm.io/gorm, service/models, service/meta, service/vault
 * @refs api/controllers/credential_controller.go, service/automation
 */

package credential

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"workhub-service/service/meta"
	"workhub-service/service/models"
	"workhub-service/service/vault"

	"gorm.io/gorm"
)

// ErrTokenNotFound 凭证不存在或不属于调用者
var ErrTokenNotFound = errors.New("集成凭证不存在")

// Service 集成凭证服务
type Service struct {
	db    *gorm.DB
	vault *vault.Vault
}

// NewService 创建集成凭证服务
func NewService(db *gorm.DB, v *vault.Vault) *Service {
	return &Service{
		db:    db,
		vault: v,
	}
}

// SaveTokenRequest 保存凭证请求
type SaveTokenRequest struct {
	IntegrationType string     `json:"integration_type"`
	AccessToken     string     `json:"access_token"`
	RefreshToken    string     `json:"refresh_token,omitempty"`
	Scopes          []string   `json:"scopes,omitempty"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	ExternalUserID  string     `json:"external_user_id,omitempty"`
	ExternalEmail   string     `json:"external_email,omitempty"`
	AuditDetail     string     `json:"audit_detail,omitempty"`
}

// SaveToken 保存新凭证，令牌经Vault加密后落库
func (s *Service) SaveToken(ctx context.Context, userID string, req *SaveTokenRequest) (*models.IntegrationToken, error) {
	if !meta.IsValidIntegrationType(req.IntegrationType) {
		return nil, fmt.Errorf("无效的集成类型: %s", req.IntegrationType)
	}
	if req.AccessToken == "" {
		return nil, fmt.Errorf("访问令牌不能为空")
	}

	encryptedAccess, err := s.vault.Encrypt(req.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("加密访问令牌失败: %w", err)
	}

	var encryptedRefresh string
	if req.RefreshToken != "" {
		encryptedRefresh, err = s.vault.Encrypt(req.RefreshToken)
		if err != nil {
			return nil, fmt.Errorf("加密刷新令牌失败: %w", err)
		}
	}

	var encryptedAudit string
	if req.AuditDetail != "" {
		encryptedAudit, err = s.vault.Encrypt(req.AuditDetail)
		if err != nil {
			return nil, fmt.Errorf("加密审计详情失败: %w", err)
		}
	}

	token := &models.IntegrationToken{
		UserID:                userID,
		IntegrationType:       req.IntegrationType,
		EncryptedAccessToken:  encryptedAccess,
		EncryptedRefreshToken: encryptedRefresh,
		EncryptedAuditDetail:  encryptedAudit,
		Scopes:                req.Scopes,
		ExpiresAt:             req.ExpiresAt,
		ExternalUserID:        req.ExternalUserID,
		ExternalEmail:         req.ExternalEmail,
		IsActive:              true,
	}

	if err := s.db.WithContext(ctx).Create(token).Error; err != nil {
		return nil, fmt.Errorf("保存凭证失败: %w", err)
	}

	return token, nil
}

// UpdateTokenRequest 更新凭证请求，用于令牌刷新
type UpdateTokenRequest struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// UpdateToken 更新凭证内容（令牌刷新场景）
func (s *Service) UpdateToken(ctx context.Context, userID, tokenID string, req *UpdateTokenRequest) (*models.IntegrationToken, error) {
	var token models.IntegrationToken
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", tokenID, userID).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("查询凭证失败: %w", err)
	}

	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}

	if req.AccessToken != "" {
		encrypted, err := s.vault.Encrypt(req.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("加密访问令牌失败: %w", err)
		}
		updates["encrypted_access_token"] = encrypted
	}
	if req.RefreshToken != "" {
		encrypted, err := s.vault.Encrypt(req.RefreshToken)
		if err != nil {
			return nil, fmt.Errorf("加密刷新令牌失败: %w", err)
		}
		updates["encrypted_refresh_token"] = encrypted
	}
	if req.ExpiresAt != nil {
		updates["expires_at"] = req.ExpiresAt
	}

	if err := s.db.WithContext(ctx).Model(&token).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("更新凭证失败: %w", err)
	}

	return &token, nil
}

// GetCurrentToken 获取当前凭证：最近创建的活跃行
// 不存在活跃凭证时返回ErrTokenNotFound
func (s *Service) GetCurrentToken(ctx context.Context, userID, integrationType string) (*models.IntegrationToken, error) {
	var token models.IntegrationToken
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND integration_type = ? AND is_active = ?", userID, integrationType, true).
		Order("created_at DESC").
		First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("查询当前凭证失败: %w", err)
	}
	return &token, nil
}

// GetDecryptedAccessToken 解密访问令牌
// 解密失败向上传播：没有有效密钥时调用方无法继续
func (s *Service) GetDecryptedAccessToken(token *models.IntegrationToken) (string, error) {
	plaintext, err := s.vault.Decrypt(token.EncryptedAccessToken)
	if err != nil {
		return "", fmt.Errorf("解密访问令牌失败: %w", err)
	}
	return plaintext, nil
}

// GetDecryptedRefreshToken 解密刷新令牌
func (s *Service) GetDecryptedRefreshToken(token *models.IntegrationToken) (string, error) {
	if token.EncryptedRefreshToken == "" {
		return "", nil
	}
	plaintext, err := s.vault.Decrypt(token.EncryptedRefreshToken)
	if err != nil {
		return "", fmt.Errorf("解密刷新令牌失败: %w", err)
	}
	return plaintext, nil
}

// ListUserTokens 列出用户全部凭证
func (s *Service) ListUserTokens(ctx context.Context, userID string) ([]models.IntegrationToken, error) {
	var tokens []models.IntegrationToken
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&tokens).Error
	if err != nil {
		return nil, fmt.Errorf("查询凭证列表失败: %w", err)
	}
	return tokens, nil
}

// Revoke 撤销指定集成的全部活跃凭证
// 在单个事务内完成，避免部分撤销的中间状态
func (s *Service) Revoke(ctx context.Context, userID, integrationType string) (int64, error) {
	now := time.Now()
	var revoked int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.IntegrationToken{}).
			Where("user_id = ? AND integration_type = ? AND is_active = ?", userID, integrationType, true).
			Updates(map[string]interface{}{
				"is_active":  false,
				"revoked_at": now,
				"updated_at": now,
			})
		if result.Error != nil {
			return fmt.Errorf("撤销凭证失败: %w", result.Error)
		}
		revoked = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}

	return revoked, nil
}

// IsExpired 判断凭证是否已过期
func (s *Service) IsExpired(token *models.IntegrationToken) bool {
	return token.IsExpired(time.Now())
}

// TokenDescription 凭证展示信息，敏感字段脱敏或省略
type TokenDescription struct {
	ID              string     `json:"id"`
	IntegrationType string     `json:"integration_type"`
	Scopes          []string   `json:"scopes,omitempty"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	IsExpired       bool       `json:"is_expired"`
	IsActive        bool       `json:"is_active"`
	RevokedAt       *time.Time `json:"revoked_at,omitempty"`
	MaskedEmail     string     `json:"masked_email,omitempty"`
	AuditDetail     string     `json:"audit_detail,omitempty"` // 解密失败时为空，表示不可用
	CreatedAt       time.Time  `json:"created_at"`
}

// DescribeToken 生成凭证的展示信息
// 审计详情经DecryptOrEmpty解密：密文损坏时展示为空而不是报错
func (s *Service) DescribeToken(token *models.IntegrationToken) *TokenDescription {
	return &TokenDescription{
		ID:              token.ID,
		IntegrationType: token.IntegrationType,
		Scopes:          token.Scopes,
		ExpiresAt:       token.ExpiresAt,
		IsExpired:       token.IsExpired(time.Now()),
		IsActive:        token.IsActive,
		RevokedAt:       token.RevokedAt,
		MaskedEmail:     maskEmail(token.ExternalEmail),
		AuditDetail:     s.vault.DecryptOrEmpty(token.EncryptedAuditDetail),
		CreatedAt:       token.CreatedAt,
	}
}

// maskEmail 邮箱脱敏
func maskEmail(email string) string {
	if email == "" {
		return ""
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return email // 无效邮箱格式，不处理
	}

	username := parts[0]
	domain := parts[1]

	if len(username) <= 2 {
		return strings.Repeat("*", len(username)) + "@" + domain
	}

	masked := string(username[0]) + strings.Repeat("*", len(username)-2) + string(username[len(username)-1])
	return masked + "@" + domain
}
