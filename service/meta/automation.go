/*
 * @module service/meta/automation
 * @description 自动化目录元数据，定义所有可用的自动化类型及其配置项模式
 * @architecture 静态元数据注册表 - 编译期只读配置
 * @documentReference ai_docs/automation_engine_design.md
 * @stateFlow 无状态：进程启动时注册表即完整，运行期不可变更
 * @rules 自动化类型一经发布不可更名；配置项模式变更需保持向后兼容
 * @dependencies fmt
 * @refs service/automation, api/controllers/meta_controller.go
 */

package meta

import "fmt"

// 自动化类型常量
const (
	AutomationTypeTasksToCalendar       = "tasks-to-calendar"
	AutomationTypeArchiveCompletedTasks = "archive-completed-tasks"
	AutomationTypeDueDateReminder       = "due-date-reminder"
	AutomationTypeCustomScript          = "custom-script"
)

// 自动化配置状态常量
const (
	AutomationStatusIdle    = "idle"
	AutomationStatusRunning = "running"
	AutomationStatusSuccess = "success"
	AutomationStatusFailed  = "failed"
	AutomationStatusPaused  = "paused"
)

var AutomationStatuses = []MetaField{
	{
		Name:        "idle",
		DisplayName: "空闲",
		Type:        "string",
		Required:    true,
	},
	{
		Name:        "running",
		DisplayName: "执行中",
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
}

// 配置项字段类型常量
const (
	SettingTypeBoolean     = "boolean"
	SettingTypeString      = "string"
	SettingTypeNumber      = "number"
	SettingTypeSelect      = "select"
	SettingTypeMultiselect = "multiselect"
)

// AutomationSettingField 自动化配置项定义
type AutomationSettingField struct {
	Key          string      `json:"key"`
	Label        string      `json:"label"`
	Type         string      `json:"type"` // boolean, string, number, select, multiselect
	Required     bool        `json:"required"`
	DefaultValue interface{} `json:"default_value,omitempty"`
	Options      []string    `json:"options,omitempty"` // 用于select/multiselect类型
	Description  string      `json:"description,omitempty"`
}

// AutomationDefinition 自动化类型完整定义
type AutomationDefinition struct {
	Type                string                   `json:"type"`
	Name                string                   `json:"name"`
	Description         string                   `json:"description"`
	Category            string                   `json:"category"`
	RequiresIntegration bool                     `json:"requires_integration"`
	IntegrationType     string                   `json:"integration_type,omitempty"`
	IsAvailable         bool                     `json:"is_available"`
	Settings            []AutomationSettingField `json:"settings"`
}

// AutomationDefinitions 自动化目录注册表，进程级只读
var AutomationDefinitions = map[string]AutomationDefinition{
	AutomationTypeTasksToCalendar: {
		Type:                AutomationTypeTasksToCalendar,
		Name:                "任务同步到日历",
		Description:         "扫描工作空间页面中的任务列表，将符合状态条件的任务推送到外部日历",
		Category:            "integration",
		RequiresIntegration: true,
		IntegrationType:     IntegrationTypeGoogleCalendar,
		IsAvailable:         true,
		Settings: []AutomationSettingField{
			{
				Key:          "taskStatuses",
				Label:        "任务状态",
				Type:         SettingTypeMultiselect,
				Required:     true,
				DefaultValue: []string{"todo"},
				Options:      []string{"todo", "in_progress", "done"},
				Description:  "仅同步处于所选状态的任务",
			},
			{
				Key:          "addAsAllDayEvents",
				Label:        "创建为全天事件",
				Type:         SettingTypeBoolean,
				Required:     false,
				DefaultValue: true,
			},
			{
				Key:          "calendarId",
				Label:        "目标日历ID",
				Type:         SettingTypeString,
				Required:     false,
				DefaultValue: "primary",
			},
		},
	},
	AutomationTypeArchiveCompletedTasks: {
		Type:        AutomationTypeArchiveCompletedTasks,
		Name:        "归档已完成任务",
		Description: "将完成超过指定天数的任务标记为已归档",
		Category:    "housekeeping",
		IsAvailable: true,
		Settings: []AutomationSettingField{
			{
				Key:          "taskStatuses",
				Label:        "任务状态",
				Type:         SettingTypeMultiselect,
				Required:     true,
				DefaultValue: []string{"done"},
				Options:      []string{"done", "cancelled"},
			},
			{
				Key:          "olderThanDays",
				Label:        "完成天数阈值",
				Type:         SettingTypeNumber,
				Required:     false,
				DefaultValue: 30,
				Description:  "仅归档完成时间早于该天数的任务",
			},
		},
	},
	AutomationTypeDueDateReminder: {
		Type:        AutomationTypeDueDateReminder,
		Name:        "到期提醒",
		Description: "扫描即将到期的任务并生成提醒记录",
		Category:    "notification",
		IsAvailable: true,
		Settings: []AutomationSettingField{
			{
				Key:          "daysAhead",
				Label:        "提前天数",
				Type:         SettingTypeNumber,
				Required:     true,
				DefaultValue: 3,
			},
			{
				Key:          "includeOverdue",
				Label:        "包含已逾期任务",
				Type:         SettingTypeBoolean,
				Required:     false,
				DefaultValue: true,
			},
		},
	},
	AutomationTypeCustomScript: {
		Type:        AutomationTypeCustomScript,
		Name:        "自定义脚本",
		Description: "使用内置脚本引擎对工作空间页面执行自定义处理逻辑",
		Category:    "advanced",
		IsAvailable: true,
		Settings: []AutomationSettingField{
			{
				Key:         "script",
				Label:       "脚本内容",
				Type:        SettingTypeString,
				Required:    true,
				Description: "脚本需返回处理的条目数量",
			},
		},
	},
}

// IsValidAutomationType 验证自动化类型是否存在于目录中
func IsValidAutomationType(automationType string) bool {
	_, exists := AutomationDefinitions[automationType]
	return exists
}

// GetAutomationDefinition 获取自动化类型定义
func GetAutomationDefinition(automationType string) (AutomationDefinition, bool) {
	def, exists := AutomationDefinitions[automationType]
	return def, exists
}

// IsValidAutomationStatus 验证自动化状态是否合法
func IsValidAutomationStatus(status string) bool {
	for _, s := range AutomationStatuses {
		if s.Name == status {
			return true
		}
	}
	return false
}

// ValidateSettings 按配置项模式验证设置内容
// 检查必填项是否存在、select/multiselect取值是否在枚举范围内
// 有缺省值的必填项允许缺失，由解析方补齐
func (d *AutomationDefinition) ValidateSettings(settings map[string]interface{}) error {
	for _, field := range d.Settings {
		value, exists := settings[field.Key]
		if !exists || value == nil {
			if field.Required && field.DefaultValue == nil {
				return fmt.Errorf("缺少必填配置项: %s", field.Key)
			}
			continue
		}

		switch field.Type {
		case SettingTypeSelect:
			str, ok := value.(string)
			if !ok {
				return fmt.Errorf("配置项 %s 必须为字符串", field.Key)
			}
			if !containsOption(field.Options, str) {
				return fmt.Errorf("配置项 %s 的取值 %s 不在可选范围内", field.Key, str)
			}
		case SettingTypeMultiselect:
			items, err := toStringSlice(value)
			if err != nil {
				return fmt.Errorf("配置项 %s 必须为字符串数组", field.Key)
			}
			for _, item := range items {
				if !containsOption(field.Options, item) {
					return fmt.Errorf("配置项 %s 的取值 %s 不在可选范围内", field.Key, item)
				}
			}
		case SettingTypeBoolean:
			if _, ok := value.(bool); !ok {
				return fmt.Errorf("配置项 %s 必须为布尔值", field.Key)
			}
		case SettingTypeNumber:
			switch value.(type) {
			case int, int32, int64, float32, float64:
			default:
				return fmt.Errorf("配置项 %s 必须为数字", field.Key)
			}
		case SettingTypeString:
			if _, ok := value.(string); !ok {
				return fmt.Errorf("配置项 %s 必须为字符串", field.Key)
			}
		}
	}
	return nil
}

func containsOption(options []string, value string) bool {
	for _, opt := range options {
		if opt == value {
			return true
		}
	}
	return false
}

func toStringSlice(value interface{}) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return v, nil
	case []interface{}:
		result := make([]string, 0, len(v))
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("数组元素不是字符串")
			}
			result = append(result, str)
		}
		return result, nil
	default:
		return nil, fmt.Errorf("不是字符串数组")
	}
}
