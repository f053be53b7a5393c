/*
 * @module service/automation/executors
 * @description 类型特定的自动化执行器实现，遍历工作空间页面并应用各自的业务规则
 * @architecture 策略模式 - 每种自动化类型一个执行器函数
 * @documentReference ai_docs/automation_engine_design.md
 * @stateFlow 读取页面 -> 提取任务结构 -> 应用规则 -> 返回处理条目数
 * @rules
 *   - 单页数据损坏按条目级可恢复错误处理：记日志并跳过，不中断整次运行
 *   - 条目计数按页统计：页面包含有效任务列表即计为一个处理条目
 * @dependencies service/pagedata, service/credential, client, github.com/spf13/cast
 * @refs service/automation/engine.go
 */

package automation

import (
	"context"
	"fmt"
	"time"

	"workhub-service/client"
	"workhub-service/service/meta"

	"github.com/spf13/cast"
)

// runTasksToCalendar 任务同步到日历
// 扫描工作空间页面的任务列表，将符合状态条件的任务推送为日历事件
func runTasksToCalendar(ctx context.Context, ec *ExecutionContext) (int, error) {
	settings, ok := ec.Settings.(*TasksToCalendarSettings)
	if !ok {
		return 0, fmt.Errorf("配置类型不匹配")
	}

	if ec.Calendar == nil {
		return 0, fmt.Errorf("日历客户端未配置")
	}

	// 解析当前凭证，解密失败向上传播
	token, err := ec.Credentials.GetCurrentToken(ctx, ec.Config.UserID, meta.IntegrationTypeGoogleCalendar)
	if err != nil {
		return 0, fmt.Errorf("未绑定日历集成: %w", err)
	}
	if token.IsExpired(ec.Now) {
		return 0, fmt.Errorf("日历凭证已过期")
	}
	accessToken, err := ec.Credentials.GetDecryptedAccessToken(token)
	if err != nil {
		return 0, err
	}

	pages, err := ec.Pages.ListWorkspacePages(ctx, ec.Config.UserID, ec.Config.WorkspaceID)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, page := range pages {
		tasks := page.Tasks()
		if len(tasks) == 0 {
			continue
		}

		matched := 0
		for i, raw := range tasks {
			task, ok := raw.(map[string]interface{})
			if !ok {
				// 单条任务损坏：记日志并跳过
				ec.Result.Logf("页面 %s 第 %d 条任务格式异常，已跳过", page.ID, i)
				continue
			}

			status := cast.ToString(task["status"])
			if !containsStatus(settings.TaskStatuses, status) {
				continue
			}

			evt := &client.CalendarEvent{
				CalendarID:  settings.CalendarID,
				Title:       cast.ToString(task["title"]),
				Description: fmt.Sprintf("来自页面「%s」的任务", page.Title),
				AllDay:      settings.AddAsAllDayEvents,
			}
			if due := cast.ToString(task["dueDate"]); due != "" {
				if dueAt, err := time.Parse(time.RFC3339, due); err == nil {
					evt.StartAt = &dueAt
				} else {
					ec.Result.Logf("页面 %s 任务「%s」的到期时间无法解析，已按无日期处理", page.ID, evt.Title)
				}
			}

			if err := ec.Calendar.CreateEvent(ctx, accessToken, evt); err != nil {
				return processed, fmt.Errorf("创建日历事件失败: %w", err)
			}
			matched++
		}

		processed++
		ec.Result.Logf("页面 %s 处理完成，推送 %d 条任务", page.ID, matched)
	}

	return processed, nil
}

// runArchiveCompletedTasks 归档已完成任务
// 将完成时间早于阈值的任务打上archived标记并写回页面
func runArchiveCompletedTasks(ctx context.Context, ec *ExecutionContext) (int, error) {
	settings, ok := ec.Settings.(*ArchiveCompletedTasksSettings)
	if !ok {
		return 0, fmt.Errorf("配置类型不匹配")
	}

	cutoff := ec.Now.AddDate(0, 0, -settings.OlderThanDays)

	pages, err := ec.Pages.ListWorkspacePages(ctx, ec.Config.UserID, ec.Config.WorkspaceID)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, page := range pages {
		tasks := page.Tasks()
		if len(tasks) == 0 {
			continue
		}

		archived := 0
		for i, raw := range tasks {
			task, ok := raw.(map[string]interface{})
			if !ok {
				ec.Result.Logf("页面 %s 第 %d 条任务格式异常，已跳过", page.ID, i)
				continue
			}
			if cast.ToBool(task["archived"]) {
				continue
			}
			if !containsStatus(settings.TaskStatuses, cast.ToString(task["status"])) {
				continue
			}

			completedAt, err := time.Parse(time.RFC3339, cast.ToString(task["completedAt"]))
			if err != nil {
				ec.Result.Logf("页面 %s 第 %d 条任务缺少有效完成时间，已跳过", page.ID, i)
				continue
			}
			if completedAt.After(cutoff) {
				continue
			}

			task["archived"] = true
			archived++
		}

		if archived == 0 {
			continue
		}

		if err := ec.Pages.UpdatePageContent(ctx, page.UserID, page.ID, page.Content); err != nil {
			return processed, fmt.Errorf("写回页面 %s 失败: %w", page.ID, err)
		}
		processed++
		ec.Result.Logf("页面 %s 归档 %d 条任务", page.ID, archived)
	}

	return processed, nil
}

// runDueDateReminder 到期提醒
// 扫描到期窗口内的任务并生成提醒日志
func runDueDateReminder(ctx context.Context, ec *ExecutionContext) (int, error) {
	settings, ok := ec.Settings.(*DueDateReminderSettings)
	if !ok {
		return 0, fmt.Errorf("配置类型不匹配")
	}

	windowEnd := ec.Now.AddDate(0, 0, settings.DaysAhead)

	pages, err := ec.Pages.ListWorkspacePages(ctx, ec.Config.UserID, ec.Config.WorkspaceID)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, page := range pages {
		tasks := page.Tasks()
		if len(tasks) == 0 {
			continue
		}

		hits := 0
		for i, raw := range tasks {
			task, ok := raw.(map[string]interface{})
			if !ok {
				ec.Result.Logf("页面 %s 第 %d 条任务格式异常，已跳过", page.ID, i)
				continue
			}

			status := cast.ToString(task["status"])
			if status == "done" || status == "cancelled" {
				continue
			}

			dueAt, err := time.Parse(time.RFC3339, cast.ToString(task["dueDate"]))
			if err != nil {
				continue
			}

			overdue := dueAt.Before(ec.Now)
			if overdue && !settings.IncludeOverdue {
				continue
			}
			if !overdue && dueAt.After(windowEnd) {
				continue
			}

			hits++
			if overdue {
				ec.Result.Logf("提醒: 页面「%s」的任务「%s」已逾期", page.Title, cast.ToString(task["title"]))
			} else {
				ec.Result.Logf("提醒: 页面「%s」的任务「%s」将于 %s 到期", page.Title, cast.ToString(task["title"]), dueAt.Format("2006-01-02"))
			}
		}

		if hits > 0 {
			processed++
		}
	}

	return processed, nil
}

// runCustomScript 自定义脚本
// 使用脚本引擎执行用户脚本，脚本返回值作为处理条目数
func runCustomScript(ctx context.Context, ec *ExecutionContext) (int, error) {
	settings, ok := ec.Settings.(*CustomScriptSettings)
	if !ok {
		return 0, fmt.Errorf("配置类型不匹配")
	}

	pages, err := ec.Pages.ListWorkspacePages(ctx, ec.Config.UserID, ec.Config.WorkspaceID)
	if err != nil {
		return 0, err
	}

	// 页面转为自由格式数据传入脚本
	pageData := make([]map[string]interface{}, 0, len(pages))
	for _, page := range pages {
		pageData = append(pageData, map[string]interface{}{
			"id":           page.ID,
			"workspace_id": page.WorkspaceID,
			"title":        page.Title,
			"content":      map[string]interface{}(page.Content),
		})
	}

	params := map[string]interface{}{
		"userId": ec.Config.UserID,
		"pages":  pageData,
	}
	if ec.Config.WorkspaceID != nil {
		params["workspaceId"] = *ec.Config.WorkspaceID
	}

	result, err := ec.Scripts.Execute(ctx, settings.Script, params)
	if err != nil {
		return 0, err
	}

	count, err := cast.ToIntE(result)
	if err != nil {
		return 0, fmt.Errorf("脚本返回值必须为处理条目数: %v", result)
	}

	return count, nil
}
