/*
 * @module service/trigger
 * @description 自动化触发服务，周期性触发到期的自动化并观测待处理同步积压
 * @architecture 分层架构 - 调度触发层，基于cron的拉取式驱动
 * @documentReference ai_docs/automation_engine_design.md
 * @stateFlow 定时tick -> 查询到期配置 -> 逐个调用执行引擎 -> 记录结果
 * @rules
 *   - 仅触发已启用且next_run_at到期的配置，执行语义完全由引擎负责
 *   - 调度时间为一次性语义，触发后清除，由调用方重新设置下次执行时间
 *   - 单个自动化的失败不影响本轮其余触发
 *   - 同步记录的重试由外部消费方拉取待处理队列驱动，本服务仅记录积压情况
 * @dependencies github.com/robfig/cron/v3, gorm.io/gorm, service/automation, service/syncstate
 * @refs service/init.go
 */

package trigger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"workhub-service/service/automation"
	"workhub-service/service/meta"
	"workhub-service/service/models"
	"workhub-service/service/syncstate"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Service 自动化触发服务
type Service struct {
	db      *gorm.DB
	engine  *automation.Engine
	syncs   *syncstate.Service
	cron    *cron.Cron
	started bool
}

// NewService 创建触发服务
func NewService(db *gorm.DB, engine *automation.Engine, syncs *syncstate.Service) *Service {
	return &Service{
		db:     db,
		engine: engine,
		syncs:  syncs,
		cron:   cron.New(),
	}
}

// Start 启动周期触发
func (s *Service) Start() error {
	if s.started {
		return nil
	}

	if _, err := s.cron.AddFunc("@every 1m", s.tick); err != nil {
		return err
	}

	s.cron.Start()
	s.started = true
	slog.Info("自动化触发服务已启动")
	return nil
}

// Stop 停止周期触发，等待进行中的tick完成
func (s *Service) Stop() {
	if !s.started {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.started = false
	slog.Info("自动化触发服务已停止")
}

// tick 单轮触发
func (s *Service) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	s.runDueAutomations(ctx)
	s.reportSyncBacklog(ctx)
}

// runDueAutomations 触发到期的自动化
func (s *Service) runDueAutomations(ctx context.Context) {
	now := time.Now()

	var due []models.AutomationConfiguration
	err := s.db.WithContext(ctx).
		Where("is_enabled = ? AND next_run_at IS NOT NULL AND next_run_at <= ?", true, now).
		Where("status <> ?", meta.AutomationStatusRunning).
		Limit(100).
		Find(&due).Error
	if err != nil {
		slog.Error("查询到期自动化失败", "error", err)
		return
	}

	for _, config := range due {
		result, err := s.engine.Run(ctx, config.UserID, config.ID, false)
		if err != nil {
			if errors.Is(err, automation.ErrAlreadyRunning) {
				continue
			}
			slog.Error("触发自动化失败", "automation_id", config.ID, "error", err)
			continue
		}
		s.consumeSchedule(ctx, &config)
		slog.Info("自动化触发完成",
			"automation_id", config.ID,
			"automation_type", config.AutomationType,
			"success", result.Success,
			"items_processed", result.ItemsProcessed)
	}
}

// consumeSchedule 清除已触发的一次性调度时间，调用方通过更新接口重新设置下次执行
// 条件更新避免覆盖触发期间新写入的调度时间
func (s *Service) consumeSchedule(ctx context.Context, config *models.AutomationConfiguration) {
	err := s.db.WithContext(ctx).Model(&models.AutomationConfiguration{}).
		Where("id = ? AND next_run_at = ?", config.ID, config.NextRunAt).
		Update("next_run_at", nil).Error
	if err != nil {
		slog.Error("清除自动化调度时间失败", "automation_id", config.ID, "error", err)
	}
}

// reportSyncBacklog 记录待处理同步队列的积压情况
func (s *Service) reportSyncBacklog(ctx context.Context) {
	pending, err := s.syncs.ListPendingSyncs(ctx)
	if err != nil {
		slog.Error("查询待处理同步队列失败", "error", err)
		return
	}
	if len(pending) > 0 {
		slog.Info("待处理同步积压", "count", len(pending))
	}
}
