/*
 * @module service/meta/integration
 * @description 第三方集成元数据，定义支持的集成类型、同步状态和资源类型
 * @architecture 静态元数据注册表 - 编译期只读配置
 * @documentReference ai_docs/integration_sync_design.md
 * @stateFlow 同步状态流转：pending -> in_progress -> success/failed，failed可重回pending
 * @rules 失败次数达到上限后不再自动重试，需人工介入
 * @dependencies 无
 * @refs service/credential, service/syncstate
 */

package meta

// 集成类型常量
const (
	IntegrationTypeGoogleCalendar = "google-calendar"
	IntegrationTypeGoogleDrive    = "google-drive"
	IntegrationTypeSlack          = "slack"
)

var IntegrationTypes = []MetaField{
	{
		Name:        "google-calendar",
		DisplayName: "Google 日历",
		Type:        "string",
		Required:    true,
	},
	{
		Name:        "google-drive",
		DisplayName: "Google 云端硬盘",
		Type:        "string",
		Required:    true,
	},
	{
		Name:        "slack",
		DisplayName: "Slack",
		Type:        "string",
		Required:    true,
	},
}

// 同步状态常量
const (
	SyncStatusPending    = "pending"
	SyncStatusInProgress = "in_progress"
	SyncStatusSuccess    = "success"
	SyncStatusFailed     = "failed"
	SyncStatusPaused     = "paused"
	SyncStatusCancelled  = "cancelled"
)

var SyncStatuses = []MetaField{
	{
		Name:        "pending",
		DisplayName: "待同步",
		Type:        "string",
		Required:    true,
	},
	{
		Name:        "in_progress",
		DisplayName: "同步中",
		Type:        "string",
		Required:    true,
	},
	{
		Name:        "success",
		DisplayName: "成功",
		Type:        "string",
		Required:    true,
	},
	{
		Name:        "failed",
		DisplayName: "失败",
		Type:        "string",
		Required:    true,
	},
	{
		Name:        "paused",
		DisplayName: "已暂停",
		Type:        "string",
		Required:    true,
	},
	{
		Name:        "cancelled",
		DisplayName: "已取消",
		Type:        "string",
		Required:    true,
	},
}

// 同步资源类型常量
const (
	SyncResourceCalendarEvents = "calendar-events"
	SyncResourceDriveFiles     = "drive-files"
	SyncResourceSlackChannels  = "slack-channels"
)

var SyncResources = []string{
	SyncResourceCalendarEvents,
	SyncResourceDriveFiles,
	SyncResourceSlackChannels,
}

// MaxSyncFailures 自动重试的累计失败次数上限
// 达到上限后该同步记录不再出现在待处理队列中
const MaxSyncFailures = 3

// PendingSyncBatchSize 待处理同步队列单次查询的最大批量
const PendingSyncBatchSize = 50

// IsValidIntegrationType 验证集成类型是否合法
func IsValidIntegrationType(integrationType string) bool {
	for _, t := range IntegrationTypes {
		if t.Name == integrationType {
			return true
		}
	}
	return false
}

// IsValidSyncStatus 验证同步状态是否合法
func IsValidSyncStatus(status string) bool {
	for _, s := range SyncStatuses {
		if s.Name == status {
			return true
		}
	}
	return false
}
