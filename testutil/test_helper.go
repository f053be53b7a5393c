/*
 * @module testutil/test_helper
 * @description 测试工具和辅助函数
 * @architecture 测试基础设施 - 提供测试通用工具和数据工厂
 * @documentReference ai_docs/test_plan.md
 * @stateFlow 测试环境初始化 -> 测试数据创建 -> 测试执行 -> 清理资源
 * @rules 提供可重用的测试工具，确保测试环境的一致性
 * @dependencies gorm, sqlite, testify, time
 * @refs service/models
 */

package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"workhub-service/service/meta"
	"workhub-service/service/models"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB 测试数据库配置
type TestDB struct {
	DB *gorm.DB
}

// NewTestDB 创建测试数据库
func NewTestDB() *TestDB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect test database: %v", err))
	}

	// 自动迁移所有模型
	err = db.AutoMigrate(
		&models.AutomationConfiguration{},
		&models.IntegrationToken{},
		&models.IntegrationSync{},
		&models.Page{},
	)
	if err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}

	return &TestDB{DB: db}
}

// CleanDB 清理数据库
func (tdb *TestDB) CleanDB() {
	// 清空所有表的数据
	tables := []string{
		"automation_configurations",
		"integration_tokens",
		"integration_syncs",
		"pages",
	}

	for _, table := range tables {
		tdb.DB.Exec(fmt.Sprintf("DELETE FROM %s", table))
	}
}

// Close 关闭数据库连接
func (tdb *TestDB) Close() {
	if db, err := tdb.DB.DB(); err == nil {
		db.Close()
	}
}

// TestDataFactory 测试数据工厂
type TestDataFactory struct {
	DB *gorm.DB
}

// NewTestDataFactory 创建测试数据工厂
func NewTestDataFactory(db *gorm.DB) *TestDataFactory {
	return &TestDataFactory{DB: db}
}

// AutomationOption 自动化配置选项函数类型
type AutomationOption func(*models.AutomationConfiguration)

// CreateAutomation 创建测试自动化配置
func (f *TestDataFactory) CreateAutomation(userID string, opts ...AutomationOption) *models.AutomationConfiguration {
	config := &models.AutomationConfiguration{
		UserID:         userID,
		AutomationType: meta.AutomationTypeArchiveCompletedTasks,
		IsEnabled:      true,
		Status:         meta.AutomationStatusIdle,
		Settings:       models.JSONB{},
	}

	// 应用选项
	for _, opt := range opts {
		opt(config)
	}

	err := f.DB.Create(config).Error
	if err != nil {
		panic(fmt.Sprintf("failed to create test automation: %v", err))
	}

	return config
}

// PageOption 页面选项函数类型
type PageOption func(*models.Page)

// CreatePage 创建测试页面
func (f *TestDataFactory) CreatePage(userID string, content models.JSONB, opts ...PageOption) *models.Page {
	page := &models.Page{
		UserID:  userID,
		Title:   "测试页面",
		Content: content,
	}

	// 应用选项
	for _, opt := range opts {
		opt(page)
	}

	err := f.DB.Create(page).Error
	if err != nil {
		panic(fmt.Sprintf("failed to create test page: %v", err))
	}

	return page
}

// SyncOption 同步记录选项函数类型
type SyncOption func(*models.IntegrationSync)

// CreateSync 创建测试同步记录
func (f *TestDataFactory) CreateSync(userID string, opts ...SyncOption) *models.IntegrationSync {
	sync := &models.IntegrationSync{
		UserID:          userID,
		IntegrationType: meta.IntegrationTypeGoogleCalendar,
		ResourceType:    meta.SyncResourceCalendarEvents,
		Status:          meta.SyncStatusPending,
	}

	// 应用选项
	for _, opt := range opts {
		opt(sync)
	}

	err := f.DB.Create(sync).Error
	if err != nil {
		panic(fmt.Sprintf("failed to create test sync: %v", err))
	}

	return sync
}

// TaskPageContent 构造带任务列表的页面内容
func TaskPageContent(tasks ...map[string]interface{}) models.JSONB {
	items := make([]interface{}, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, t)
	}
	return models.JSONB{"tasks": items}
}

// TimePtr 时间指针辅助函数
func TimePtr(t time.Time) *time.Time {
	return &t
}

// StringPtr 字符串指针辅助函数
func StringPtr(s string) *string {
	return &s
}

// HTTPTestHelper HTTP测试辅助工具
type HTTPTestHelper struct{}

// NewHTTPTestHelper 创建HTTP测试辅助工具
func NewHTTPTestHelper() *HTTPTestHelper {
	return &HTTPTestHelper{}
}

// CreateJSONRequest 创建JSON请求
func (h *HTTPTestHelper) CreateJSONRequest(method, url string, body interface{}) (*http.Request, error) {
	var reqBody io.Reader

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// AssertJSONResponse 断言JSON响应
func (h *HTTPTestHelper) AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedBody interface{}) {
	assert.Equal(t, expectedStatus, w.Code)

	if expectedBody != nil {
		var actualBody interface{}
		err := json.Unmarshal(w.Body.Bytes(), &actualBody)
		assert.NoError(t, err)

		expectedJSON, _ := json.Marshal(expectedBody)
		actualJSON, _ := json.Marshal(actualBody)

		assert.JSONEq(t, string(expectedJSON), string(actualJSON))
	}
}
