/*
 * @module service/trigger/trigger_service_test
 * @description 自动化触发服务单元测试
 * @architecture 测试层 - 内存SQLite数据库集成测试
 * @dependencies testing, testify, workhub-service/testutil
 * @refs trigger_service.go
 */

package trigger

import (
	"context"
	"testing"
	"time"

	"workhub-service/service/automation"
	"workhub-service/service/credential"
	"workhub-service/service/meta"
	"workhub-service/service/models"
	"workhub-service/service/pagedata"
	"workhub-service/service/runlock"
	"workhub-service/service/syncstate"
	"workhub-service/service/vault"
	"workhub-service/testutil"

	"github.com/stretchr/testify/suite"
)

type TriggerServiceTestSuite struct {
	suite.Suite
	testDB  *testutil.TestDB
	factory *testutil.TestDataFactory
	service *Service
	ctx     context.Context
}

func (suite *TriggerServiceTestSuite) SetupSuite() {
	suite.testDB = testutil.NewTestDB()
	suite.factory = testutil.NewTestDataFactory(suite.testDB.DB)

	configs := automation.NewService(suite.testDB.DB)
	credentials := credential.NewService(suite.testDB.DB, vault.New("trigger-test-key"))
	engine := automation.NewEngine(
		suite.testDB.DB,
		configs,
		pagedata.NewStore(suite.testDB.DB),
		credentials,
		nil,
		runlock.NoopLock{},
		nil,
	)

	suite.service = NewService(suite.testDB.DB, engine, syncstate.NewService(suite.testDB.DB))
	suite.ctx = context.Background()
}

func (suite *TriggerServiceTestSuite) TearDownSuite() {
	suite.testDB.Close()
}

func (suite *TriggerServiceTestSuite) SetupTest() {
	suite.testDB.CleanDB()
}

// reload 重新读取配置行
func (suite *TriggerServiceTestSuite) reload(id string) *models.AutomationConfiguration {
	var config models.AutomationConfiguration
	suite.NoError(suite.testDB.DB.First(&config, "id = ?", id).Error)
	return &config
}

// createDue 创建一条调度时间已到期的提醒自动化
func (suite *TriggerServiceTestSuite) createDue(userID string, opts ...testutil.AutomationOption) *models.AutomationConfiguration {
	base := func(c *models.AutomationConfiguration) {
		c.AutomationType = meta.AutomationTypeDueDateReminder
		c.NextRunAt = testutil.TimePtr(time.Now().Add(-time.Minute))
	}
	return suite.factory.CreateAutomation(userID, append([]testutil.AutomationOption{base}, opts...)...)
}

func (suite *TriggerServiceTestSuite) TestRunDueAutomations_RunsDueConfig() {
	userID := "user-1"
	config := suite.createDue(userID)
	suite.factory.CreatePage(userID, testutil.TaskPageContent(
		map[string]interface{}{"title": "窗口内", "status": "todo", "dueDate": time.Now().Add(48 * time.Hour).Format(time.RFC3339)},
	))

	suite.service.runDueAutomations(suite.ctx)

	got := suite.reload(config.ID)
	suite.Equal(meta.AutomationStatusSuccess, got.Status)
	suite.NotNil(got.LastRunAt)
	suite.Equal(1, got.ItemsProcessed)
	// 一次性调度已消费，等待调用方重新设置
	suite.Nil(got.NextRunAt)
}

func (suite *TriggerServiceTestSuite) TestRunDueAutomations_SkipsNotDue() {
	notDue := suite.createDue("user-1", func(c *models.AutomationConfiguration) {
		c.NextRunAt = testutil.TimePtr(time.Now().Add(time.Hour))
	})
	unscheduled := suite.factory.CreateAutomation("user-1", func(c *models.AutomationConfiguration) {
		c.AutomationType = meta.AutomationTypeDueDateReminder
	})

	suite.service.runDueAutomations(suite.ctx)

	suite.Equal(meta.AutomationStatusIdle, suite.reload(notDue.ID).Status)
	suite.NotNil(suite.reload(notDue.ID).NextRunAt)
	suite.Equal(meta.AutomationStatusIdle, suite.reload(unscheduled.ID).Status)
}

func (suite *TriggerServiceTestSuite) TestRunDueAutomations_SkipsDisabled() {
	disabled := suite.createDue("user-1", func(c *models.AutomationConfiguration) {
		c.IsEnabled = false
		c.Status = meta.AutomationStatusPaused
	})

	suite.service.runDueAutomations(suite.ctx)

	got := suite.reload(disabled.ID)
	suite.Equal(meta.AutomationStatusPaused, got.Status)
	suite.NotNil(got.NextRunAt)
}

func (suite *TriggerServiceTestSuite) TestRunDueAutomations_SkipsRunning() {
	running := suite.createDue("user-1", func(c *models.AutomationConfiguration) {
		c.Status = meta.AutomationStatusRunning
		c.RunLeaseAt = testutil.TimePtr(time.Now())
	})

	suite.service.runDueAutomations(suite.ctx)

	got := suite.reload(running.ID)
	suite.Equal(meta.AutomationStatusRunning, got.Status)
	suite.NotNil(got.NextRunAt)
}

func (suite *TriggerServiceTestSuite) TestConsumeSchedule_KeepsRescheduledTime() {
	config := suite.createDue("user-1")

	// 触发期间调用方重新设置了调度时间，条件更新不应覆盖
	rescheduled := testutil.TimePtr(time.Now().Add(time.Hour))
	suite.NoError(suite.testDB.DB.Model(&models.AutomationConfiguration{}).
		Where("id = ?", config.ID).
		Update("next_run_at", rescheduled).Error)

	suite.service.consumeSchedule(suite.ctx, config)

	suite.NotNil(suite.reload(config.ID).NextRunAt)
}

func (suite *TriggerServiceTestSuite) TestStartStop() {
	suite.NoError(suite.service.Start())
	// 重复启动幂等
	suite.NoError(suite.service.Start())
	suite.service.Stop()
	suite.service.Stop()
}

func TestTriggerService(t *testing.T) {
	suite.Run(t, new(TriggerServiceTestSuite))
}
