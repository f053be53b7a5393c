/*
 * @module service/automation/automation_service_test
 * @description 自动化配置服务单元测试
 * @architecture 测试层 - 内存SQLite数据库集成测试
 * @documentReference ai_docs/test_plan.md
 * @stateFlow 测试数据库初始化 -> 服务方法调用 -> 状态断言 -> 清理
 * @rules 覆盖三元组唯一性、归属隔离、启停状态流转与统计聚合
 * @dependencies testing, testify, workhub-service/testutil
 * @refs automation_service.go
 */

package automation

import (
	"context"
	"testing"
	"time"

	"workhub-service/service/meta"
	"workhub-service/service/models"
	"workhub-service/testutil"

	"github.com/stretchr/testify/suite"
)

type AutomationServiceTestSuite struct {
	suite.Suite
	testDB  *testutil.TestDB
	service *Service
	ctx     context.Context
}

func (suite *AutomationServiceTestSuite) SetupSuite() {
	suite.testDB = testutil.NewTestDB()
	suite.service = NewService(suite.testDB.DB)
	suite.ctx = context.Background()
}

func (suite *AutomationServiceTestSuite) TearDownSuite() {
	suite.testDB.Close()
}

func (suite *AutomationServiceTestSuite) SetupTest() {
	suite.testDB.CleanDB()
}

func (suite *AutomationServiceTestSuite) TestCreate_Success() {
	config, err := suite.service.Create(suite.ctx, "user-1", &CreateRequest{
		AutomationType: meta.AutomationTypeDueDateReminder,
		Settings:       models.JSONB{"daysAhead": 7},
	})

	suite.NoError(err)
	suite.NotEmpty(config.ID)
	suite.Equal(meta.AutomationStatusIdle, config.Status)
	suite.True(config.IsEnabled)
	suite.Nil(config.WorkspaceID)
}

func (suite *AutomationServiceTestSuite) TestCreate_InvalidType() {
	_, err := suite.service.Create(suite.ctx, "user-1", &CreateRequest{
		AutomationType: "time-travel",
	})
	suite.Error(err)
}

func (suite *AutomationServiceTestSuite) TestCreate_InvalidSettings() {
	_, err := suite.service.Create(suite.ctx, "user-1", &CreateRequest{
		AutomationType: meta.AutomationTypeTasksToCalendar,
		Settings:       models.JSONB{"taskStatuses": []interface{}{"blocked"}},
	})
	suite.Error(err)
}

func (suite *AutomationServiceTestSuite) TestCreate_ConflictOnSameTriple() {
	workspaceID := "ws-1"

	_, err := suite.service.Create(suite.ctx, "user-1", &CreateRequest{
		WorkspaceID:    &workspaceID,
		AutomationType: meta.AutomationTypeArchiveCompletedTasks,
	})
	suite.NoError(err)

	// 同一(用户,工作空间,类型)再次创建冲突
	_, err = suite.service.Create(suite.ctx, "user-1", &CreateRequest{
		WorkspaceID:    &workspaceID,
		AutomationType: meta.AutomationTypeArchiveCompletedTasks,
	})
	suite.ErrorIs(err, ErrConflict)

	// 不同工作空间不冲突
	otherWorkspace := "ws-2"
	_, err = suite.service.Create(suite.ctx, "user-1", &CreateRequest{
		WorkspaceID:    &otherWorkspace,
		AutomationType: meta.AutomationTypeArchiveCompletedTasks,
	})
	suite.NoError(err)

	// 不同用户不冲突
	_, err = suite.service.Create(suite.ctx, "user-2", &CreateRequest{
		WorkspaceID:    &workspaceID,
		AutomationType: meta.AutomationTypeArchiveCompletedTasks,
	})
	suite.NoError(err)
}

func (suite *AutomationServiceTestSuite) TestCreate_ConflictOnUserLevelConfig() {
	_, err := suite.service.Create(suite.ctx, "user-1", &CreateRequest{
		AutomationType: meta.AutomationTypeDueDateReminder,
	})
	suite.NoError(err)

	// 工作空间为空同样参与唯一性判定
	_, err = suite.service.Create(suite.ctx, "user-1", &CreateRequest{
		AutomationType: meta.AutomationTypeDueDateReminder,
	})
	suite.ErrorIs(err, ErrConflict)
}

func (suite *AutomationServiceTestSuite) TestCreate_EmptyWorkspaceNormalizedToNull() {
	empty := ""
	config, err := suite.service.Create(suite.ctx, "user-1", &CreateRequest{
		WorkspaceID:    &empty,
		AutomationType: meta.AutomationTypeDueDateReminder,
	})
	suite.NoError(err)
	// 空字符串工作空间落库为NULL
	suite.Nil(config.WorkspaceID)

	// 与未指定工作空间的创建命中同一条唯一性判定
	_, err = suite.service.Create(suite.ctx, "user-1", &CreateRequest{
		AutomationType: meta.AutomationTypeDueDateReminder,
	})
	suite.ErrorIs(err, ErrConflict)

	// 再次以空字符串创建同样冲突
	_, err = suite.service.Create(suite.ctx, "user-1", &CreateRequest{
		WorkspaceID:    &empty,
		AutomationType: meta.AutomationTypeDueDateReminder,
	})
	suite.ErrorIs(err, ErrConflict)
}

func (suite *AutomationServiceTestSuite) TestCreateAndUpdate_NextRunAt() {
	nextRun := time.Now().Add(time.Hour).Truncate(time.Second)
	config, err := suite.service.Create(suite.ctx, "user-1", &CreateRequest{
		AutomationType: meta.AutomationTypeDueDateReminder,
		NextRunAt:      &nextRun,
	})
	suite.NoError(err)
	suite.NotNil(config.NextRunAt)
	suite.WithinDuration(nextRun, *config.NextRunAt, time.Second)

	later := nextRun.Add(24 * time.Hour)
	updated, err := suite.service.Update(suite.ctx, "user-1", config.ID, &UpdateRequest{
		NextRunAt: &later,
	})
	suite.NoError(err)
	suite.NotNil(updated.NextRunAt)
	suite.WithinDuration(later, *updated.NextRunAt, time.Second)
	// 其余字段不受影响
	suite.True(updated.IsEnabled)
	suite.Equal(meta.AutomationStatusIdle, updated.Status)
}

func (suite *AutomationServiceTestSuite) TestGet_OwnershipScoped() {
	config, err := suite.service.Create(suite.ctx, "user-1", &CreateRequest{
		AutomationType: meta.AutomationTypeDueDateReminder,
	})
	suite.NoError(err)

	found, err := suite.service.Get(suite.ctx, "user-1", config.ID)
	suite.NoError(err)
	suite.Equal(config.ID, found.ID)

	// 归属失败与不存在对调用方不可区分
	_, err = suite.service.Get(suite.ctx, "user-2", config.ID)
	suite.ErrorIs(err, ErrNotFound)

	_, err = suite.service.Get(suite.ctx, "user-1", "no-such-id")
	suite.ErrorIs(err, ErrNotFound)
}

func (suite *AutomationServiceTestSuite) TestList_FiltersByWorkspace() {
	workspaceID := "ws-1"
	_, err := suite.service.Create(suite.ctx, "user-1", &CreateRequest{
		WorkspaceID:    &workspaceID,
		AutomationType: meta.AutomationTypeArchiveCompletedTasks,
	})
	suite.NoError(err)
	_, err = suite.service.Create(suite.ctx, "user-1", &CreateRequest{
		AutomationType: meta.AutomationTypeDueDateReminder,
	})
	suite.NoError(err)

	all, err := suite.service.List(suite.ctx, "user-1", nil)
	suite.NoError(err)
	suite.Len(all, 2)

	scoped, err := suite.service.List(suite.ctx, "user-1", &workspaceID)
	suite.NoError(err)
	suite.Len(scoped, 1)
	suite.Equal(meta.AutomationTypeArchiveCompletedTasks, scoped[0].AutomationType)

	other, err := suite.service.List(suite.ctx, "user-2", nil)
	suite.NoError(err)
	suite.Len(other, 0)
}

func (suite *AutomationServiceTestSuite) TestUpdate_PartialFields() {
	config, err := suite.service.Create(suite.ctx, "user-1", &CreateRequest{
		AutomationType: meta.AutomationTypeDueDateReminder,
		Settings:       models.JSONB{"daysAhead": 3},
	})
	suite.NoError(err)

	disabled := false
	updated, err := suite.service.Update(suite.ctx, "user-1", config.ID, &UpdateRequest{
		IsEnabled: &disabled,
	})
	suite.NoError(err)
	suite.False(updated.IsEnabled)
	// 未传settings时保持原值
	suite.Equal(float64(3), updated.Settings["daysAhead"])

	updated, err = suite.service.Update(suite.ctx, "user-1", config.ID, &UpdateRequest{
		Settings: models.JSONB{"daysAhead": 10},
	})
	suite.NoError(err)
	suite.Equal(float64(10), updated.Settings["daysAhead"])
	// 未传is_enabled时保持原值
	suite.False(updated.IsEnabled)
}

func (suite *AutomationServiceTestSuite) TestUpdate_RejectsInvalidSettings() {
	config, err := suite.service.Create(suite.ctx, "user-1", &CreateRequest{
		AutomationType: meta.AutomationTypeTasksToCalendar,
	})
	suite.NoError(err)

	_, err = suite.service.Update(suite.ctx, "user-1", config.ID, &UpdateRequest{
		Settings: models.JSONB{"taskStatuses": []interface{}{"blocked"}},
	})
	suite.Error(err)
}

func (suite *AutomationServiceTestSuite) TestToggle_StatusTransitions() {
	config, err := suite.service.Create(suite.ctx, "user-1", &CreateRequest{
		AutomationType: meta.AutomationTypeDueDateReminder,
	})
	suite.NoError(err)

	// 禁用：强制paused
	toggled, err := suite.service.Toggle(suite.ctx, "user-1", config.ID, false)
	suite.NoError(err)
	suite.False(toggled.IsEnabled)
	suite.Equal(meta.AutomationStatusPaused, toggled.Status)

	// 启用：从paused回到idle
	toggled, err = suite.service.Toggle(suite.ctx, "user-1", config.ID, true)
	suite.NoError(err)
	suite.True(toggled.IsEnabled)
	suite.Equal(meta.AutomationStatusIdle, toggled.Status)
}

func (suite *AutomationServiceTestSuite) TestToggle_PreservesNonPausedStatus() {
	config, err := suite.service.Create(suite.ctx, "user-1", &CreateRequest{
		AutomationType: meta.AutomationTypeDueDateReminder,
	})
	suite.NoError(err)

	// 模拟上次执行失败
	suite.testDB.DB.Model(&models.AutomationConfiguration{}).
		Where("id = ?", config.ID).
		Update("status", meta.AutomationStatusFailed)

	// 启用已启用的配置不改变failed状态
	toggled, err := suite.service.Toggle(suite.ctx, "user-1", config.ID, true)
	suite.NoError(err)
	suite.Equal(meta.AutomationStatusFailed, toggled.Status)
}

func (suite *AutomationServiceTestSuite) TestDelete() {
	config, err := suite.service.Create(suite.ctx, "user-1", &CreateRequest{
		AutomationType: meta.AutomationTypeDueDateReminder,
	})
	suite.NoError(err)

	// 跨用户删除不可见
	err = suite.service.Delete(suite.ctx, "user-2", config.ID)
	suite.ErrorIs(err, ErrNotFound)

	err = suite.service.Delete(suite.ctx, "user-1", config.ID)
	suite.NoError(err)

	_, err = suite.service.Get(suite.ctx, "user-1", config.ID)
	suite.ErrorIs(err, ErrNotFound)

	// 重复删除
	err = suite.service.Delete(suite.ctx, "user-1", config.ID)
	suite.ErrorIs(err, ErrNotFound)
}

func (suite *AutomationServiceTestSuite) TestGetStatistics() {
	_, err := suite.service.Create(suite.ctx, "user-1", &CreateRequest{
		AutomationType: meta.AutomationTypeDueDateReminder,
	})
	suite.NoError(err)

	archive, err := suite.service.Create(suite.ctx, "user-1", &CreateRequest{
		AutomationType: meta.AutomationTypeArchiveCompletedTasks,
	})
	suite.NoError(err)

	disabled := false
	script, err := suite.service.Create(suite.ctx, "user-1", &CreateRequest{
		AutomationType: meta.AutomationTypeCustomScript,
		Settings:       models.JSONB{"script": "return 0, nil"},
		IsEnabled:      &disabled,
	})
	suite.NoError(err)
	_ = script

	lastRun := time.Now().Add(-time.Minute)
	suite.testDB.DB.Model(&models.AutomationConfiguration{}).
		Where("id = ?", archive.ID).
		Updates(map[string]interface{}{
			"status":          meta.AutomationStatusSuccess,
			"last_run_at":     lastRun,
			"items_processed": 5,
		})

	stats, err := suite.service.GetStatistics(suite.ctx, "user-1", nil)
	suite.NoError(err)
	suite.Equal(3, stats.Total)
	suite.Equal(2, stats.Enabled)
	suite.Equal(0, stats.Running)
	suite.Equal(5, stats.TotalItemsProcessed)
	suite.NotNil(stats.LastSuccessfulRunAt)
	suite.Equal(1, stats.ByType[meta.AutomationTypeArchiveCompletedTasks])
}

func TestAutomationService(t *testing.T) {
	suite.Run(t, new(AutomationServiceTestSuite))
}
