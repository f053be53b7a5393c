/*
 * @module service/syncstate/sync_service_test
 * @description 集成同步状态服务单元测试
 * @architecture 测试层 - 内存SQLite数据库集成测试
 * @documentReference ai_docs/test_plan.md
 * @stateFlow 测试数据库初始化 -> 服务方法调用 -> 状态断言 -> 清理
 * @rules 覆盖状态流转、失败计数递增与待处理队列的重试资格判定
 * @dependencies testing, testify, workhub-service/testutil
 * @refs sync_service.go
 */

package syncstate

import (
	"context"
	"testing"
	"time"

	"workhub-service/service/meta"
	"workhub-service/service/models"
	"workhub-service/testutil"

	"github.com/stretchr/testify/suite"
)

type SyncServiceTestSuite struct {
	suite.Suite
	testDB  *testutil.TestDB
	factory *testutil.TestDataFactory
	service *Service
	ctx     context.Context
}

func (suite *SyncServiceTestSuite) SetupSuite() {
	suite.testDB = testutil.NewTestDB()
	suite.factory = testutil.NewTestDataFactory(suite.testDB.DB)
	suite.service = NewService(suite.testDB.DB)
	suite.ctx = context.Background()
}

func (suite *SyncServiceTestSuite) TearDownSuite() {
	suite.testDB.Close()
}

func (suite *SyncServiceTestSuite) SetupTest() {
	suite.testDB.CleanDB()
}

func (suite *SyncServiceTestSuite) TestCreateSync_AlwaysStartsPending() {
	sync, err := suite.service.CreateSync(suite.ctx, "user-1", &CreateSyncRequest{
		IntegrationType: meta.IntegrationTypeGoogleCalendar,
		ResourceType:    meta.SyncResourceCalendarEvents,
	})

	suite.NoError(err)
	suite.Equal(meta.SyncStatusPending, sync.Status)
	suite.Equal(0, sync.FailureCount)
	suite.NotEmpty(sync.ID)
}

func (suite *SyncServiceTestSuite) TestCreateSync_RejectsInvalidInput() {
	_, err := suite.service.CreateSync(suite.ctx, "user-1", &CreateSyncRequest{
		IntegrationType: "unknown",
		ResourceType:    meta.SyncResourceCalendarEvents,
	})
	suite.Error(err)

	_, err = suite.service.CreateSync(suite.ctx, "user-1", &CreateSyncRequest{
		IntegrationType: meta.IntegrationTypeGoogleCalendar,
		ResourceType:    "",
	})
	suite.Error(err)
}

func (suite *SyncServiceTestSuite) TestUpdateSync_FailureIncrementsCount() {
	sync := suite.factory.CreateSync("user-1")

	msg := "远端接口超时"
	updated, err := suite.service.UpdateSync(suite.ctx, "user-1", sync.ID, &UpdateSyncRequest{
		Status:       meta.SyncStatusFailed,
		ErrorMessage: &msg,
	})
	suite.NoError(err)
	suite.Equal(meta.SyncStatusFailed, updated.Status)
	suite.Equal(1, updated.FailureCount)
	suite.Equal("远端接口超时", updated.ErrorMessage)

	// 再次失败继续递增
	updated, err = suite.service.UpdateSync(suite.ctx, "user-1", sync.ID, &UpdateSyncRequest{
		Status: meta.SyncStatusFailed,
	})
	suite.NoError(err)
	suite.Equal(2, updated.FailureCount)
}

func (suite *SyncServiceTestSuite) TestUpdateSync_SuccessClearsError() {
	sync := suite.factory.CreateSync("user-1")

	msg := "临时错误"
	_, err := suite.service.UpdateSync(suite.ctx, "user-1", sync.ID, &UpdateSyncRequest{
		Status:       meta.SyncStatusFailed,
		ErrorMessage: &msg,
	})
	suite.NoError(err)

	items := 42
	updated, err := suite.service.UpdateSync(suite.ctx, "user-1", sync.ID, &UpdateSyncRequest{
		Status:      meta.SyncStatusSuccess,
		ItemsSynced: &items,
	})
	suite.NoError(err)
	suite.Equal(meta.SyncStatusSuccess, updated.Status)
	suite.Equal("", updated.ErrorMessage)
	suite.Equal(42, updated.ItemsSynced)
	suite.NotNil(updated.LastSyncAt)

	// 失败计数保留，不因成功清零
	suite.Equal(1, updated.FailureCount)
}

func (suite *SyncServiceTestSuite) TestUpdateSync_OwnershipScoped() {
	sync := suite.factory.CreateSync("user-1")

	_, err := suite.service.UpdateSync(suite.ctx, "user-2", sync.ID, &UpdateSyncRequest{
		Status: meta.SyncStatusSuccess,
	})
	suite.ErrorIs(err, ErrSyncNotFound)
}

func (suite *SyncServiceTestSuite) TestUpdateSync_RejectsInvalidStatus() {
	sync := suite.factory.CreateSync("user-1")

	_, err := suite.service.UpdateSync(suite.ctx, "user-1", sync.ID, &UpdateSyncRequest{
		Status: "exploded",
	})
	suite.Error(err)
}

func (suite *SyncServiceTestSuite) TestUpdateSync_MetadataCursor() {
	sync := suite.factory.CreateSync("user-1")

	updated, err := suite.service.UpdateSync(suite.ctx, "user-1", sync.ID, &UpdateSyncRequest{
		Status:   meta.SyncStatusInProgress,
		Metadata: models.JSONB{"cursor": "page-3"},
	})
	suite.NoError(err)
	suite.Equal(meta.SyncStatusInProgress, updated.Status)
	suite.Equal("page-3", updated.Metadata["cursor"])
}

func (suite *SyncServiceTestSuite) TestGetLastSync() {
	sync := suite.factory.CreateSync("user-1")

	found, err := suite.service.GetLastSync(suite.ctx, "user-1",
		meta.IntegrationTypeGoogleCalendar, meta.SyncResourceCalendarEvents)
	suite.NoError(err)
	suite.Equal(sync.ID, found.ID)

	_, err = suite.service.GetLastSync(suite.ctx, "user-1",
		meta.IntegrationTypeSlack, meta.SyncResourceSlackChannels)
	suite.ErrorIs(err, ErrSyncNotFound)
}

func (suite *SyncServiceTestSuite) TestListPendingSyncs_RetryEligibility() {
	// pending：可执行
	pending := suite.factory.CreateSync("user-1")

	// failed且未达上限：可执行
	retryable := suite.factory.CreateSync("user-2", func(s *models.IntegrationSync) {
		s.IntegrationType = meta.IntegrationTypeGoogleDrive
		s.ResourceType = meta.SyncResourceDriveFiles
	})
	suite.testDB.DB.Model(retryable).Updates(map[string]interface{}{
		"status":        meta.SyncStatusFailed,
		"failure_count": meta.MaxSyncFailures - 1,
	})

	// failed且已达上限：排除
	exhausted := suite.factory.CreateSync("user-3", func(s *models.IntegrationSync) {
		s.IntegrationType = meta.IntegrationTypeSlack
		s.ResourceType = meta.SyncResourceSlackChannels
	})
	suite.testDB.DB.Model(exhausted).Updates(map[string]interface{}{
		"status":        meta.SyncStatusFailed,
		"failure_count": meta.MaxSyncFailures,
	})

	// success：排除
	done := suite.factory.CreateSync("user-4")
	suite.testDB.DB.Model(done).Update("status", meta.SyncStatusSuccess)

	syncs, err := suite.service.ListPendingSyncs(suite.ctx)
	suite.NoError(err)

	ids := make([]string, 0, len(syncs))
	for _, s := range syncs {
		ids = append(ids, s.ID)
	}
	suite.Contains(ids, pending.ID)
	suite.Contains(ids, retryable.ID)
	suite.NotContains(ids, exhausted.ID)
	suite.NotContains(ids, done.ID)
}

func (suite *SyncServiceTestSuite) TestListUserPendingSyncs_ScopedToCaller() {
	mine := suite.factory.CreateSync("user-1")
	other := suite.factory.CreateSync("user-2", func(s *models.IntegrationSync) {
		s.IntegrationType = meta.IntegrationTypeGoogleDrive
		s.ResourceType = meta.SyncResourceDriveFiles
	})

	// 用户视角仅看到自己的待处理记录
	syncs, err := suite.service.ListUserPendingSyncs(suite.ctx, "user-1")
	suite.NoError(err)
	suite.Len(syncs, 1)
	suite.Equal(mine.ID, syncs[0].ID)

	// 内部调度视角仍为全量队列
	all, err := suite.service.ListPendingSyncs(suite.ctx)
	suite.NoError(err)
	suite.Len(all, 2)

	ids := []string{all[0].ID, all[1].ID}
	suite.Contains(ids, other.ID)
}

func (suite *SyncServiceTestSuite) TestListPendingSyncs_OrderedByNextSyncAt() {
	later := suite.factory.CreateSync("user-1", func(s *models.IntegrationSync) {
		s.NextSyncAt = testutil.TimePtr(time.Now().Add(2 * time.Hour))
	})
	sooner := suite.factory.CreateSync("user-2", func(s *models.IntegrationSync) {
		s.NextSyncAt = testutil.TimePtr(time.Now().Add(time.Hour))
	})

	syncs, err := suite.service.ListPendingSyncs(suite.ctx)
	suite.NoError(err)
	suite.Len(syncs, 2)
	suite.Equal(sooner.ID, syncs[0].ID)
	suite.Equal(later.ID, syncs[1].ID)
}

func (suite *SyncServiceTestSuite) TestIsRetryEligible() {
	sync := &models.IntegrationSync{Status: meta.SyncStatusPending}
	suite.True(sync.IsRetryEligible())

	sync = &models.IntegrationSync{Status: meta.SyncStatusFailed, FailureCount: meta.MaxSyncFailures - 1}
	suite.True(sync.IsRetryEligible())

	sync = &models.IntegrationSync{Status: meta.SyncStatusFailed, FailureCount: meta.MaxSyncFailures}
	suite.False(sync.IsRetryEligible())

	sync = &models.IntegrationSync{Status: meta.SyncStatusSuccess}
	suite.False(sync.IsRetryEligible())
}

func TestSyncService(t *testing.T) {
	suite.Run(t, new(SyncServiceTestSuite))
}
