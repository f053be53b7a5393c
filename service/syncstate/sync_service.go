/*
 * @module service/syncstate
 * @description 同步状态跟踪服务，记录每个(用户,集成类型,资源类型)的同步进度与重试账目
 * @architecture 分层架构 - 服务层
 * @documentReference ai_docs/integration_sync_design.md
 * @stateFlow pending -> in_progress -> success/failed；失败且次数未达上限的记录重回待处理队列
 * @rules
 *   - failure_count仅在失败时递增，累计达到上限后停止自动重试
 *   - 同步记录原地更新，本服务不删除历史
 * @dependencies gorm.io/gorm, service/models, service/meta
 * @refs api/controllers/sync_controller.go, service/trigger
 */

package syncstate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"workhub-service/service/meta"
	"workhub-service/service/models"

	"gorm.io/gorm"
)

// ErrSyncNotFound 同步记录不存在或不属于调用者
var ErrSyncNotFound = errors.New("同步记录不存在")

// Service 同步状态跟踪服务
type Service struct {
	db *gorm.DB
}

// NewService 创建同步状态跟踪服务
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateSyncRequest 创建同步记录请求
type CreateSyncRequest struct {
	IntegrationType string       `json:"integration_type"`
	ResourceType    string       `json:"resource_type"`
	NextSyncAt      *time.Time   `json:"next_sync_at,omitempty"`
	Metadata        models.JSONB `json:"metadata,omitempty"`
}

// CreateSync 创建同步记录，初始状态始终为pending
func (s *Service) CreateSync(ctx context.Context, userID string, req *CreateSyncRequest) (*models.IntegrationSync, error) {
	if !meta.IsValidIntegrationType(req.IntegrationType) {
		return nil, fmt.Errorf("无效的集成类型: %s", req.IntegrationType)
	}
	if req.ResourceType == "" {
		return nil, fmt.Errorf("资源类型不能为空")
	}

	sync := &models.IntegrationSync{
		UserID:          userID,
		IntegrationType: req.IntegrationType,
		ResourceType:    req.ResourceType,
		Status:          meta.SyncStatusPending,
		NextSyncAt:      req.NextSyncAt,
		Metadata:        req.Metadata,
	}

	if err := s.db.WithContext(ctx).Create(sync).Error; err != nil {
		return nil, fmt.Errorf("创建同步记录失败: %w", err)
	}

	return sync, nil
}

// UpdateSyncRequest 更新同步记录请求，调用方驱动
type UpdateSyncRequest struct {
	Status       string       `json:"status,omitempty"`
	ItemsSynced  *int         `json:"items_synced,omitempty"`
	ErrorMessage *string      `json:"error_message,omitempty"`
	NextSyncAt   *time.Time   `json:"next_sync_at,omitempty"`
	Metadata     models.JSONB `json:"metadata,omitempty"`
}

// UpdateSync 更新同步记录，始终刷新修改时间
// 状态转为failed时failure_count递增；转为success时记录同步时间并清空错误
func (s *Service) UpdateSync(ctx context.Context, userID, syncID string, req *UpdateSyncRequest) (*models.IntegrationSync, error) {
	var sync models.IntegrationSync
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", syncID, userID).First(&sync).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSyncNotFound
		}
		return nil, fmt.Errorf("查询同步记录失败: %w", err)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"updated_at": now,
	}

	if req.Status != "" {
		if !meta.IsValidSyncStatus(req.Status) {
			return nil, fmt.Errorf("无效的同步状态: %s", req.Status)
		}
		updates["status"] = req.Status

		switch req.Status {
		case meta.SyncStatusFailed:
			updates["failure_count"] = gorm.Expr("failure_count + 1")
			if req.ErrorMessage != nil {
				updates["error_message"] = *req.ErrorMessage
			}
		case meta.SyncStatusSuccess:
			updates["last_sync_at"] = now
			updates["error_message"] = ""
		}
	}

	if req.ItemsSynced != nil {
		updates["items_synced"] = *req.ItemsSynced
	}
	if req.ErrorMessage != nil && req.Status != meta.SyncStatusFailed {
		updates["error_message"] = *req.ErrorMessage
	}
	if req.NextSyncAt != nil {
		updates["next_sync_at"] = req.NextSyncAt
	}
	if req.Metadata != nil {
		updates["metadata"] = req.Metadata
	}

	if err := s.db.WithContext(ctx).Model(&sync).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("更新同步记录失败: %w", err)
	}

	// 重新加载以获得表达式更新后的真实值
	if err := s.db.WithContext(ctx).First(&sync, "id = ?", sync.ID).Error; err != nil {
		return nil, fmt.Errorf("重载同步记录失败: %w", err)
	}

	return &sync, nil
}

// GetLastSync 获取指定资源的同步记录
func (s *Service) GetLastSync(ctx context.Context, userID, integrationType, resourceType string) (*models.IntegrationSync, error) {
	var sync models.IntegrationSync
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND integration_type = ? AND resource_type = ?", userID, integrationType, resourceType).
		Order("updated_at DESC").
		First(&sync).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSyncNotFound
		}
		return nil, fmt.Errorf("查询同步记录失败: %w", err)
	}
	return &sync, nil
}

// ListUserSyncs 列出用户全部同步记录
func (s *Service) ListUserSyncs(ctx context.Context, userID string) ([]models.IntegrationSync, error) {
	var syncs []models.IntegrationSync
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&syncs).Error
	if err != nil {
		return nil, fmt.Errorf("查询同步记录列表失败: %w", err)
	}
	return syncs, nil
}

// ListPendingSyncs 查询全量待处理同步队列，供内部调度消费
func (s *Service) ListPendingSyncs(ctx context.Context) ([]models.IntegrationSync, error) {
	return s.listPending(ctx, "")
}

// ListUserPendingSyncs 查询当前用户的待处理同步队列
func (s *Service) ListUserPendingSyncs(ctx context.Context, userID string) ([]models.IntegrationSync, error) {
	return s.listPending(ctx, userID)
}

// listPending 待处理队列查询
// 规则：pending状态，或failed且失败次数未达上限；按下次同步时间升序（缺省回退到创建时间），限定批量大小
// 这是自动重试资格的唯一判据
func (s *Service) listPending(ctx context.Context, userID string) ([]models.IntegrationSync, error) {
	query := s.db.WithContext(ctx).
		Where("(status = ? OR (status = ? AND failure_count < ?))",
			meta.SyncStatusPending, meta.SyncStatusFailed, meta.MaxSyncFailures)
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	var syncs []models.IntegrationSync
	err := query.
		Order("COALESCE(next_sync_at, created_at) ASC").
		Limit(meta.PendingSyncBatchSize).
		Find(&syncs).Error
	if err != nil {
		return nil, fmt.Errorf("查询待处理同步队列失败: %w", err)
	}
	return syncs, nil
}
