/*
 * @module service/automation/engine
 * @description 自动化执行引擎，负责状态CAS抢占、按类型分发执行器并固化运行结果
 * @architecture 分层架构 - 执行引擎，同步调用方驱动，无内部调度
 * @documentReference ai_docs/automation_engine_design.md
 * @stateFlow idle/success/failed/paused -> running(CAS+租约) -> success/failed；dry run不触碰配置行
 * @rules
 *   - 同一配置同一时刻至多一次执行：数据库层CAS保证，过期租约可被回收
 *   - 执行器内的任何错误在引擎边界捕获并转为结构化结果，绝不向上抛出
 *   - dry run照常执行读取逻辑，但不回写status/last_run_at/error_message
 * @dependencies gorm.io/gorm, service/models, service/meta, service/credential, service/pagedata, service/runlock, service/event
 * @refs api/controllers/automation_controller.go, service/trigger
 */

package automation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"workhub-service/client"
	"workhub-service/service/credential"
	"workhub-service/service/event"
	"workhub-service/service/meta"
	"workhub-service/service/models"
	"workhub-service/service/pagedata"
	"workhub-service/service/runlock"

	"gorm.io/gorm"
)

// 执行租约TTL，超过该时长仍处于running的配置视为崩溃遗留，可被新的执行回收
const defaultLeaseTTL = 10 * time.Minute

// RunResult 自动化运行结果
type RunResult struct {
	AutomationID   string    `json:"automation_id"`
	AutomationType string    `json:"automation_type"`
	DryRun         bool      `json:"dry_run"`
	Success        bool      `json:"success"`
	ItemsProcessed int       `json:"items_processed"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	CompletedAt    time.Time `json:"completed_at"`
	DurationMs     int64     `json:"duration_ms"`
	Logs           []string  `json:"logs"`
}

// Logf 追加一条运行日志
func (r *RunResult) Logf(format string, args ...interface{}) {
	r.Logs = append(r.Logs, fmt.Sprintf(format, args...))
}

// ExecutionContext 执行器上下文，携带配置、类型化设置和协作方访问器
type ExecutionContext struct {
	Config      *models.AutomationConfiguration
	Settings    interface{}
	Result      *RunResult
	Pages       *pagedata.Store
	Credentials *credential.Service
	Calendar    client.CalendarClient
	Scripts     *ScriptExecutor
	Now         time.Time
}

// ExecutorFunc 类型特定的执行器函数
// 返回本次运行处理的条目数；返回错误表示整次运行失败
type ExecutorFunc func(ctx context.Context, ec *ExecutionContext) (int, error)

// Engine 自动化执行引擎
type Engine struct {
	db          *gorm.DB
	configs     *Service
	pages       *pagedata.Store
	credentials *credential.Service
	calendar    client.CalendarClient
	lock        runlock.Lock
	events      *event.RunEventPublisher
	scripts     *ScriptExecutor
	executors   map[string]ExecutorFunc
	leaseTTL    time.Duration
	now         func() time.Time
}

// NewEngine 创建自动化执行引擎
func NewEngine(db *gorm.DB, configs *Service, pages *pagedata.Store,
	credentials *credential.Service, calendar client.CalendarClient,
	lock runlock.Lock, events *event.RunEventPublisher) *Engine {

	if lock == nil {
		lock = runlock.NoopLock{}
	}

	e := &Engine{
		db:          db,
		configs:     configs,
		pages:       pages,
		credentials: credentials,
		calendar:    calendar,
		lock:        lock,
		events:      events,
		scripts:     NewScriptExecutor(),
		leaseTTL:    defaultLeaseTTL,
		now:         time.Now,
	}

	e.executors = map[string]ExecutorFunc{
		meta.AutomationTypeTasksToCalendar:       runTasksToCalendar,
		meta.AutomationTypeArchiveCompletedTasks: runArchiveCompletedTasks,
		meta.AutomationTypeDueDateReminder:       runDueDateReminder,
		meta.AutomationTypeCustomScript:          runCustomScript,
	}

	return e
}

// Run 执行一次自动化
// dryRun为true时照常执行读取逻辑，但绝不回写配置行
func (e *Engine) Run(ctx context.Context, userID, automationID string, dryRun bool) (*RunResult, error) {
	config, err := e.configs.Get(ctx, userID, automationID)
	if err != nil {
		return nil, err
	}

	startedAt := e.now()
	result := &RunResult{
		AutomationID:   config.ID,
		AutomationType: config.AutomationType,
		DryRun:         dryRun,
		Success:        true,
		StartedAt:      startedAt,
		Logs:           make([]string, 0, 8),
	}

	if !dryRun {
		// 跨实例执行锁：仅减少争用，正确性由下方CAS保证
		acquired, lockErr := e.lock.TryLock(ctx, config.ID, e.leaseTTL)
		if lockErr != nil {
			slog.Warn("获取执行锁失败，退化为仅依赖数据库CAS", "automation_id", config.ID, "error", lockErr)
		} else if !acquired {
			return nil, ErrAlreadyRunning
		} else {
			defer func() {
				if err := e.lock.Unlock(context.Background(), config.ID); err != nil {
					slog.Warn("释放执行锁失败", "automation_id", config.ID, "error", err)
				}
			}()
		}

		if err := e.claimRun(ctx, config, startedAt); err != nil {
			return nil, err
		}
		result.Logf("状态已切换为running")

		e.publish(ctx, config, result, event.RunPhaseStarted)
	}

	count, runErr := e.dispatch(ctx, config, result)

	completedAt := e.now()
	result.CompletedAt = completedAt
	result.DurationMs = completedAt.Sub(startedAt).Milliseconds()
	runDuration.WithLabelValues(config.AutomationType).Observe(completedAt.Sub(startedAt).Seconds())

	if runErr != nil {
		result.Success = false
		result.ErrorMessage = runErr.Error()
		result.Logf("执行失败: %v", runErr)
		runsTotal.WithLabelValues(config.AutomationType, "failed").Inc()

		if !dryRun {
			if err := e.persistFailure(ctx, config, completedAt, runErr); err != nil {
				slog.Error("固化失败结果时出错", "automation_id", config.ID, "error", err)
			}
			e.publish(ctx, config, result, event.RunPhaseFailed)
		}
		return result, nil
	}

	result.ItemsProcessed = count
	result.Logf("执行完成，处理 %d 个条目", count)
	runsTotal.WithLabelValues(config.AutomationType, "success").Inc()
	itemsProcessed.WithLabelValues(config.AutomationType).Add(float64(count))

	if !dryRun {
		if err := e.persistSuccess(ctx, config, completedAt, count); err != nil {
			slog.Error("固化成功结果时出错", "automation_id", config.ID, "error", err)
		}
		e.publish(ctx, config, result, event.RunPhaseSucceeded)
	}

	return result, nil
}

// claimRun 以CAS方式抢占running状态并写入租约
// 仅当当前不是running、或running租约已过期时抢占成功
func (e *Engine) claimRun(ctx context.Context, config *models.AutomationConfiguration, now time.Time) error {
	staleBefore := now.Add(-e.leaseTTL)

	result := e.db.WithContext(ctx).Model(&models.AutomationConfiguration{}).
		Where("id = ? AND user_id = ?", config.ID, config.UserID).
		Where("status <> ? OR run_lease_at IS NULL OR run_lease_at < ?",
			meta.AutomationStatusRunning, staleBefore).
		Updates(map[string]interface{}{
			"status":       meta.AutomationStatusRunning,
			"run_lease_at": now,
			"updated_at":   now,
		})
	if result.Error != nil {
		return fmt.Errorf("抢占执行状态失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyRunning
	}

	config.Status = meta.AutomationStatusRunning
	config.RunLeaseAt = &now
	return nil
}

// dispatch 解析配置并分发到类型特定的执行器
// panic在此转为普通错误，保证引擎自身不崩溃
func (e *Engine) dispatch(ctx context.Context, config *models.AutomationConfiguration, result *RunResult) (count int, err error) {
	defer func() {
		if r := recover(); r != nil {
			count = 0
			err = fmt.Errorf("执行器异常退出: %v", r)
		}
	}()

	executor, exists := e.executors[config.AutomationType]
	if !exists {
		return 0, fmt.Errorf("自动化类型 %s 未实现", config.AutomationType)
	}

	settings, err := ParseSettings(config.AutomationType, config.Settings)
	if err != nil {
		return 0, fmt.Errorf("配置解析失败: %w", err)
	}

	ec := &ExecutionContext{
		Config:      config,
		Settings:    settings,
		Result:      result,
		Pages:       e.pages,
		Credentials: e.credentials,
		Calendar:    e.calendar,
		Scripts:     e.scripts,
		Now:         e.now(),
	}

	return executor(ctx, ec)
}

// persistSuccess 固化成功结果：状态、运行时间、条目数，并清空错误信息和租约
func (e *Engine) persistSuccess(ctx context.Context, config *models.AutomationConfiguration, completedAt time.Time, count int) error {
	return e.db.WithContext(ctx).Model(&models.AutomationConfiguration{}).
		Where("id = ?", config.ID).
		Updates(map[string]interface{}{
			"status":          meta.AutomationStatusSuccess,
			"last_run_at":     completedAt,
			"items_processed": count,
			"error_message":   "",
			"run_lease_at":    nil,
			"updated_at":      completedAt,
		}).Error
}

// persistFailure 固化失败结果：状态与错误信息，并清空租约
func (e *Engine) persistFailure(ctx context.Context, config *models.AutomationConfiguration, completedAt time.Time, runErr error) error {
	return e.db.WithContext(ctx).Model(&models.AutomationConfiguration{}).
		Where("id = ?", config.ID).
		Updates(map[string]interface{}{
			"status":        meta.AutomationStatusFailed,
			"error_message": runErr.Error(),
			"run_lease_at":  nil,
			"updated_at":    completedAt,
		}).Error
}

// publish 发布运行生命周期事件
func (e *Engine) publish(ctx context.Context, config *models.AutomationConfiguration, result *RunResult, phase string) {
	if e.events == nil {
		return
	}
	e.events.Publish(ctx, event.RunEvent{
		AutomationID:   config.ID,
		AutomationType: config.AutomationType,
		UserID:         config.UserID,
		Phase:          phase,
		DryRun:         result.DryRun,
		ItemsProcessed: result.ItemsProcessed,
		ErrorMessage:   result.ErrorMessage,
	})
}
