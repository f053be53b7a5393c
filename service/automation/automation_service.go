/*
 * @module service/automation/automation_service
 * @description 自动化配置服务，提供按用户归属的配置CRUD、启停切换与统计聚合
 * @architecture 分层架构 - 服务层
 * @documentReference ai_docs/automation_engine_design.md
 * @stateFlow 创建(idle) -> 更新/启停 -> 执行引擎驱动状态流转 -> 删除(硬删除)
 * @rules
 *   - 同一(用户,工作空间,类型)三元组至多一条配置，重复创建返回冲突
 *   - 所有操作按user_id过滤，归属失败与不存在对调用方不可区分
 *   - 禁用强制置为paused，重新启用从paused回到idle
 * @dependencies gorm.io/gorm, github.com/lib/pq, service/models, service/meta
 * @refs api/controllers/automation_controller.go, service/automation/engine.go
 */

package automation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"workhub-service/service/meta"
	"workhub-service/service/models"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

var (
	// ErrNotFound 配置不存在或不属于调用者
	ErrNotFound = errors.New("自动化配置不存在")
	// ErrConflict 相同(用户,工作空间,类型)的配置已存在
	ErrConflict = errors.New("相同类型的自动化配置已存在")
	// ErrAlreadyRunning 配置正在执行中，无法再次启动
	ErrAlreadyRunning = errors.New("自动化正在执行中")
)

// Service 自动化配置服务
type Service struct {
	db *gorm.DB
}

// NewService 创建自动化配置服务
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateRequest 创建自动化配置请求
type CreateRequest struct {
	WorkspaceID    *string      `json:"workspace_id,omitempty"`
	AutomationType string       `json:"automation_type"`
	Settings       models.JSONB `json:"settings,omitempty"`
	IsEnabled      *bool        `json:"is_enabled,omitempty"`
	NextRunAt      *time.Time   `json:"next_run_at,omitempty"`
}

// Create 创建自动化配置
// 三元组唯一性在服务层显式检查，并以唯一索引兜底并发竞争
func (s *Service) Create(ctx context.Context, userID string, req *CreateRequest) (*models.AutomationConfiguration, error) {
	// 空字符串工作空间等同于未指定，统一归一为NULL存储，保证两种写法命中同一唯一性判定
	if req.WorkspaceID != nil && *req.WorkspaceID == "" {
		req.WorkspaceID = nil
	}

	def, exists := meta.GetAutomationDefinition(req.AutomationType)
	if !exists {
		return nil, fmt.Errorf("无效的自动化类型: %s", req.AutomationType)
	}
	if !def.IsAvailable {
		return nil, fmt.Errorf("自动化类型 %s 当前不可用", req.AutomationType)
	}

	settings := req.Settings
	if settings == nil {
		settings = models.JSONB{}
	}
	if err := def.ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("配置项验证失败: %w", err)
	}

	// 显式检查三元组唯一性
	var count int64
	query := s.db.WithContext(ctx).Model(&models.AutomationConfiguration{}).
		Where("user_id = ? AND automation_type = ?", userID, req.AutomationType)
	if req.WorkspaceID != nil {
		query = query.Where("workspace_id = ?", *req.WorkspaceID)
	} else {
		query = query.Where("workspace_id IS NULL")
	}
	if err := query.Count(&count).Error; err != nil {
		return nil, fmt.Errorf("检查配置唯一性失败: %w", err)
	}
	if count > 0 {
		return nil, ErrConflict
	}

	enabled := true
	if req.IsEnabled != nil {
		enabled = *req.IsEnabled
	}

	config := &models.AutomationConfiguration{
		UserID:         userID,
		WorkspaceID:    req.WorkspaceID,
		AutomationType: req.AutomationType,
		IsEnabled:      enabled,
		Settings:       settings,
		Status:         meta.AutomationStatusIdle,
		NextRunAt:      req.NextRunAt,
	}

	if err := s.db.WithContext(ctx).Create(config).Error; err != nil {
		// 唯一索引兜底：并发创建时数据库返回唯一约束冲突
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("创建自动化配置失败: %w", err)
	}

	return config, nil
}

// Get 按归属获取自动化配置
func (s *Service) Get(ctx context.Context, userID, automationID string) (*models.AutomationConfiguration, error) {
	var config models.AutomationConfiguration
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", automationID, userID).
		First(&config).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("查询自动化配置失败: %w", err)
	}
	return &config, nil
}

// List 列出用户的自动化配置，可选按工作空间过滤
func (s *Service) List(ctx context.Context, userID string, workspaceID *string) ([]models.AutomationConfiguration, error) {
	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if workspaceID != nil && *workspaceID != "" {
		query = query.Where("workspace_id = ?", *workspaceID)
	}

	var configs []models.AutomationConfiguration
	if err := query.Order("created_at ASC").Find(&configs).Error; err != nil {
		return nil, fmt.Errorf("查询自动化配置列表失败: %w", err)
	}
	return configs, nil
}

// UpdateRequest 更新自动化配置请求，仅支持部分字段
type UpdateRequest struct {
	IsEnabled *bool        `json:"is_enabled,omitempty"`
	Settings  models.JSONB `json:"settings,omitempty"`
	NextRunAt *time.Time   `json:"next_run_at,omitempty"`
}

// Update 部分更新is_enabled、settings和next_run_at，不触碰status
func (s *Service) Update(ctx context.Context, userID, automationID string, req *UpdateRequest) (*models.AutomationConfiguration, error) {
	config, err := s.Get(ctx, userID, automationID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}

	if req.IsEnabled != nil {
		updates["is_enabled"] = *req.IsEnabled
	}
	if req.Settings != nil {
		def, _ := meta.GetAutomationDefinition(config.AutomationType)
		if err := def.ValidateSettings(req.Settings); err != nil {
			return nil, fmt.Errorf("配置项验证失败: %w", err)
		}
		updates["settings"] = req.Settings
	}
	if req.NextRunAt != nil {
		updates["next_run_at"] = req.NextRunAt
	}

	if err := s.db.WithContext(ctx).Model(config).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("更新自动化配置失败: %w", err)
	}

	return s.Get(ctx, userID, automationID)
}

// Toggle 切换启用状态
// 禁用强制status=paused；从paused重新启用回到idle，其余状态保持不变
func (s *Service) Toggle(ctx context.Context, userID, automationID string, enabled bool) (*models.AutomationConfiguration, error) {
	config, err := s.Get(ctx, userID, automationID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"is_enabled": enabled,
		"updated_at": time.Now(),
	}

	if !enabled {
		updates["status"] = meta.AutomationStatusPaused
	} else if config.Status == meta.AutomationStatusPaused {
		updates["status"] = meta.AutomationStatusIdle
	}

	if err := s.db.WithContext(ctx).Model(config).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("切换自动化状态失败: %w", err)
	}

	return s.Get(ctx, userID, automationID)
}

// Delete 硬删除自动化配置
func (s *Service) Delete(ctx context.Context, userID, automationID string) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", automationID, userID).
		Delete(&models.AutomationConfiguration{})
	if result.Error != nil {
		return fmt.Errorf("删除自动化配置失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Statistics 自动化统计信息
type Statistics struct {
	Total               int            `json:"total"`
	Enabled             int            `json:"enabled"`
	Running             int            `json:"running"`
	Failed              int            `json:"failed"`
	TotalItemsProcessed int            `json:"total_items_processed"`
	LastSuccessfulRunAt *time.Time     `json:"last_successful_run_at,omitempty"`
	ByType              map[string]int `json:"by_type"`
}

// GetStatistics 聚合用户的自动化统计
// 逐行聚合已有数据，单条配置的异常状态不会导致统计失败
func (s *Service) GetStatistics(ctx context.Context, userID string, workspaceID *string) (*Statistics, error) {
	configs, err := s.List(ctx, userID, workspaceID)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{
		ByType: make(map[string]int),
	}

	for _, config := range configs {
		stats.Total++
		stats.ByType[config.AutomationType]++

		if config.IsEnabled {
			stats.Enabled++
		}
		switch config.Status {
		case meta.AutomationStatusRunning:
			stats.Running++
		case meta.AutomationStatusFailed:
			stats.Failed++
		case meta.AutomationStatusSuccess:
			if config.LastRunAt != nil &&
				(stats.LastSuccessfulRunAt == nil || config.LastRunAt.After(*stats.LastSuccessfulRunAt)) {
				stats.LastSuccessfulRunAt = config.LastRunAt
			}
		}
		stats.TotalItemsProcessed += config.ItemsProcessed
	}

	return stats, nil
}

// isUniqueViolation 判断错误是否为PostgreSQL唯一约束冲突
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
