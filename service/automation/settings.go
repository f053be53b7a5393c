/*
 * @module service/automation/settings
 * @description 自动化配置项解析，将自由格式的settings按类型映射为具体的配置结构体
 * @architecture 按automation_type区分的标签联合，在引擎边界完成解析与验证
 * @documentReference ai_docs/automation_engine_design.md
 * @stateFlow JSONB settings -> 目录模式验证 -> 类型化配置结构体 -> 执行器消费
 * @rules 执行器只接触类型化配置，不直接读取原始settings
 * @dependencies github.com/spf13/cast, service/models, service/meta
 * @refs service/automation/engine.go, service/automation/executors.go
 */

package automation

import (
	"fmt"

	"workhub-service/service/meta"
	"workhub-service/service/models"

	"github.com/spf13/cast"
)

// TasksToCalendarSettings 任务同步到日历的配置
type TasksToCalendarSettings struct {
	TaskStatuses      []string
	AddAsAllDayEvents bool
	CalendarID        string
}

// ArchiveCompletedTasksSettings 归档已完成任务的配置
type ArchiveCompletedTasksSettings struct {
	TaskStatuses  []string
	OlderThanDays int
}

// DueDateReminderSettings 到期提醒的配置
type DueDateReminderSettings struct {
	DaysAhead      int
	IncludeOverdue bool
}

// CustomScriptSettings 自定义脚本的配置
type CustomScriptSettings struct {
	Script string
}

// ParseSettings 按自动化类型解析配置项
// 先按目录模式验证结构，再用缺省值补齐可选项
func ParseSettings(automationType string, raw models.JSONB) (interface{}, error) {
	def, exists := meta.GetAutomationDefinition(automationType)
	if !exists {
		return nil, fmt.Errorf("无效的自动化类型: %s", automationType)
	}

	settings := map[string]interface{}(raw)
	if settings == nil {
		settings = map[string]interface{}{}
	}
	if err := def.ValidateSettings(settings); err != nil {
		return nil, err
	}

	// 缺省值补齐
	merged := make(map[string]interface{}, len(settings))
	for _, field := range def.Settings {
		if value, ok := settings[field.Key]; ok && value != nil {
			merged[field.Key] = value
		} else if field.DefaultValue != nil {
			merged[field.Key] = field.DefaultValue
		}
	}

	switch automationType {
	case meta.AutomationTypeTasksToCalendar:
		statuses, err := cast.ToStringSliceE(merged["taskStatuses"])
		if err != nil {
			return nil, fmt.Errorf("解析taskStatuses失败: %w", err)
		}
		return &TasksToCalendarSettings{
			TaskStatuses:      statuses,
			AddAsAllDayEvents: cast.ToBool(merged["addAsAllDayEvents"]),
			CalendarID:        cast.ToString(merged["calendarId"]),
		}, nil

	case meta.AutomationTypeArchiveCompletedTasks:
		statuses, err := cast.ToStringSliceE(merged["taskStatuses"])
		if err != nil {
			return nil, fmt.Errorf("解析taskStatuses失败: %w", err)
		}
		return &ArchiveCompletedTasksSettings{
			TaskStatuses:  statuses,
			OlderThanDays: cast.ToInt(merged["olderThanDays"]),
		}, nil

	case meta.AutomationTypeDueDateReminder:
		return &DueDateReminderSettings{
			DaysAhead:      cast.ToInt(merged["daysAhead"]),
			IncludeOverdue: cast.ToBool(merged["includeOverdue"]),
		}, nil

	case meta.AutomationTypeCustomScript:
		return &CustomScriptSettings{
			Script: cast.ToString(merged["script"]),
		}, nil

	default:
		// 目录中注册但尚无解析分支的类型
		return nil, fmt.Errorf("自动化类型 %s 的配置解析未实现", automationType)
	}
}

// containsStatus 判断任务状态是否在选中集合内
func containsStatus(statuses []string, status string) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
