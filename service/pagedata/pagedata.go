/*
 * @module service/pagedata
 * @description 工作空间页面数据访问，为自动化执行器提供按工作空间范围的只读页面读取
 * @architecture 分层架构 - 数据访问层（外部协作方的本地视图）
 * @documentReference ai_docs/automation_engine_design.md
 * @stateFlow 无状态查询；归档自动化通过UpdatePageContent写回页面内容
 * @rules 页面CRUD由工作空间服务负责，本模块仅提供执行器所需的最小访问面
 * @dependencies gorm.io/gorm, service/models
 * @refs service/automation
 */

package pagedata

import (
	"context"
	"errors"
	"fmt"

	"workhub-service/service/models"

	"gorm.io/gorm"
)

// ErrPageNotFound 页面不存在或不属于调用者
var ErrPageNotFound = errors.New("页面不存在")

// Store 页面数据访问器
type Store struct {
	db *gorm.DB
}

// NewStore 创建页面数据访问器
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// ListWorkspacePages 列出工作空间内的页面
// workspaceID为空时返回用户的全部页面
func (s *Store) ListWorkspacePages(ctx context.Context, userID string, workspaceID *string) ([]models.Page, error) {
	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if workspaceID != nil && *workspaceID != "" {
		query = query.Where("workspace_id = ?", *workspaceID)
	}

	var pages []models.Page
	if err := query.Order("created_at ASC").Find(&pages).Error; err != nil {
		return nil, fmt.Errorf("查询工作空间页面失败: %w", err)
	}
	return pages, nil
}

// GetPage 获取单个页面
func (s *Store) GetPage(ctx context.Context, userID, pageID string) (*models.Page, error) {
	var page models.Page
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", pageID, userID).First(&page).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, fmt.Errorf("查询页面失败: %w", err)
	}
	return &page, nil
}

// UpdatePageContent 写回页面内容
// 仅供归档类自动化使用，其他执行器保持只读
func (s *Store) UpdatePageContent(ctx context.Context, userID, pageID string, content models.JSONB) error {
	result := s.db.WithContext(ctx).Model(&models.Page{}).
		Where("id = ? AND user_id = ?", pageID, userID).
		Update("content", content)
	if result.Error != nil {
		return fmt.Errorf("更新页面内容失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrPageNotFound
	}
	return nil
}
