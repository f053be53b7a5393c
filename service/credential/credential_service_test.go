/*
 * @module service/credential/credential_service_test
 * @description 集成凭证服务单元测试
 * @architecture 测试层 - 内存SQLite数据库集成测试
 * @documentReference ai_docs/test_plan.md
 * @stateFlow 测试数据库初始化 -> 服务方法调用 -> 状态断言 -> 清理
 * @rules 覆盖凭证保存、当前凭证解析、撤销事务性与展示脱敏
 * @dependencies testing, testify, workhub-service/testutil
 * @refs credential_service.go
 */

package credential

import (
	"context"
	"testing"
	"time"

	"workhub-service/service/meta"
	"workhub-service/service/vault"
	"workhub-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type CredentialServiceTestSuite struct {
	suite.Suite
	testDB  *testutil.TestDB
	service *Service
	ctx     context.Context
}

func (suite *CredentialServiceTestSuite) SetupSuite() {
	suite.testDB = testutil.NewTestDB()
	suite.service = NewService(suite.testDB.DB, vault.New("test-vault-key"))
	suite.ctx = context.Background()
}

func (suite *CredentialServiceTestSuite) TearDownSuite() {
	suite.testDB.Close()
}

func (suite *CredentialServiceTestSuite) SetupTest() {
	suite.testDB.CleanDB()
}

func (suite *CredentialServiceTestSuite) TestSaveToken_EncryptsAtRest() {
	token, err := suite.service.SaveToken(suite.ctx, "user-1", &SaveTokenRequest{
		IntegrationType: meta.IntegrationTypeGoogleCalendar,
		AccessToken:     "plain-access-token",
		RefreshToken:    "plain-refresh-token",
		Scopes:          []string{"calendar.events"},
	})

	suite.NoError(err)
	suite.NotEmpty(token.ID)
	suite.True(token.IsActive)

	// 落库的是密文
	suite.NotEqual("plain-access-token", token.EncryptedAccessToken)
	suite.NotEqual("plain-refresh-token", token.EncryptedRefreshToken)

	// 解密后还原明文
	access, err := suite.service.GetDecryptedAccessToken(token)
	suite.NoError(err)
	suite.Equal("plain-access-token", access)

	refresh, err := suite.service.GetDecryptedRefreshToken(token)
	suite.NoError(err)
	suite.Equal("plain-refresh-token", refresh)
}

func (suite *CredentialServiceTestSuite) TestSaveToken_RejectsInvalidInput() {
	_, err := suite.service.SaveToken(suite.ctx, "user-1", &SaveTokenRequest{
		IntegrationType: "unknown-integration",
		AccessToken:     "token",
	})
	suite.Error(err)

	_, err = suite.service.SaveToken(suite.ctx, "user-1", &SaveTokenRequest{
		IntegrationType: meta.IntegrationTypeGoogleCalendar,
		AccessToken:     "",
	})
	suite.Error(err)
}

func (suite *CredentialServiceTestSuite) TestGetCurrentToken_ReturnsLatestActive() {
	first, err := suite.service.SaveToken(suite.ctx, "user-1", &SaveTokenRequest{
		IntegrationType: meta.IntegrationTypeGoogleCalendar,
		AccessToken:     "first-token",
	})
	suite.NoError(err)

	// 保证created_at有差异
	suite.testDB.DB.Model(first).Update("created_at", time.Now().Add(-time.Hour))

	second, err := suite.service.SaveToken(suite.ctx, "user-1", &SaveTokenRequest{
		IntegrationType: meta.IntegrationTypeGoogleCalendar,
		AccessToken:     "second-token",
	})
	suite.NoError(err)

	current, err := suite.service.GetCurrentToken(suite.ctx, "user-1", meta.IntegrationTypeGoogleCalendar)
	suite.NoError(err)
	suite.Equal(second.ID, current.ID)

	access, err := suite.service.GetDecryptedAccessToken(current)
	suite.NoError(err)
	suite.Equal("second-token", access)
}

func (suite *CredentialServiceTestSuite) TestGetCurrentToken_NotFound() {
	_, err := suite.service.GetCurrentToken(suite.ctx, "user-1", meta.IntegrationTypeSlack)
	suite.ErrorIs(err, ErrTokenNotFound)

	// 其他用户的凭证不可见
	_, err = suite.service.SaveToken(suite.ctx, "user-2", &SaveTokenRequest{
		IntegrationType: meta.IntegrationTypeSlack,
		AccessToken:     "token",
	})
	suite.NoError(err)

	_, err = suite.service.GetCurrentToken(suite.ctx, "user-1", meta.IntegrationTypeSlack)
	suite.ErrorIs(err, ErrTokenNotFound)
}

func (suite *CredentialServiceTestSuite) TestRevoke_DeactivatesAllActiveTokens() {
	for i := 0; i < 3; i++ {
		_, err := suite.service.SaveToken(suite.ctx, "user-1", &SaveTokenRequest{
			IntegrationType: meta.IntegrationTypeGoogleCalendar,
			AccessToken:     "token",
		})
		suite.NoError(err)
	}
	// 其他集成类型不受影响
	_, err := suite.service.SaveToken(suite.ctx, "user-1", &SaveTokenRequest{
		IntegrationType: meta.IntegrationTypeSlack,
		AccessToken:     "token",
	})
	suite.NoError(err)

	revoked, err := suite.service.Revoke(suite.ctx, "user-1", meta.IntegrationTypeGoogleCalendar)
	suite.NoError(err)
	suite.Equal(int64(3), revoked)

	_, err = suite.service.GetCurrentToken(suite.ctx, "user-1", meta.IntegrationTypeGoogleCalendar)
	suite.ErrorIs(err, ErrTokenNotFound)

	// Slack凭证仍然可用
	_, err = suite.service.GetCurrentToken(suite.ctx, "user-1", meta.IntegrationTypeSlack)
	suite.NoError(err)

	// 全部行均带撤销时间
	tokens, err := suite.service.ListUserTokens(suite.ctx, "user-1")
	suite.NoError(err)
	for _, token := range tokens {
		if token.IntegrationType == meta.IntegrationTypeGoogleCalendar {
			suite.False(token.IsActive)
			suite.NotNil(token.RevokedAt)
		}
	}
}

func (suite *CredentialServiceTestSuite) TestRevoke_NoActiveTokens() {
	revoked, err := suite.service.Revoke(suite.ctx, "user-1", meta.IntegrationTypeGoogleCalendar)
	suite.NoError(err)
	suite.Equal(int64(0), revoked)
}

func (suite *CredentialServiceTestSuite) TestUpdateToken_RefreshFlow() {
	token, err := suite.service.SaveToken(suite.ctx, "user-1", &SaveTokenRequest{
		IntegrationType: meta.IntegrationTypeGoogleCalendar,
		AccessToken:     "old-token",
	})
	suite.NoError(err)

	expiresAt := time.Now().Add(time.Hour)
	updated, err := suite.service.UpdateToken(suite.ctx, "user-1", token.ID, &UpdateTokenRequest{
		AccessToken: "new-token",
		ExpiresAt:   &expiresAt,
	})
	suite.NoError(err)

	access, err := suite.service.GetDecryptedAccessToken(updated)
	suite.NoError(err)
	suite.Equal("new-token", access)

	// 跨用户更新不可见
	_, err = suite.service.UpdateToken(suite.ctx, "user-2", token.ID, &UpdateTokenRequest{
		AccessToken: "stolen",
	})
	suite.ErrorIs(err, ErrTokenNotFound)
}

func (suite *CredentialServiceTestSuite) TestIsExpired() {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	expired, err := suite.service.SaveToken(suite.ctx, "user-1", &SaveTokenRequest{
		IntegrationType: meta.IntegrationTypeGoogleCalendar,
		AccessToken:     "token",
		ExpiresAt:       &past,
	})
	suite.NoError(err)
	suite.True(suite.service.IsExpired(expired))

	valid, err := suite.service.SaveToken(suite.ctx, "user-1", &SaveTokenRequest{
		IntegrationType: meta.IntegrationTypeGoogleCalendar,
		AccessToken:     "token",
		ExpiresAt:       &future,
	})
	suite.NoError(err)
	suite.False(suite.service.IsExpired(valid))

	// 无过期时间视为永不过期
	forever, err := suite.service.SaveToken(suite.ctx, "user-1", &SaveTokenRequest{
		IntegrationType: meta.IntegrationTypeGoogleCalendar,
		AccessToken:     "token",
	})
	suite.NoError(err)
	suite.False(suite.service.IsExpired(forever))
}

func (suite *CredentialServiceTestSuite) TestDescribeToken_MasksSensitiveData() {
	token, err := suite.service.SaveToken(suite.ctx, "user-1", &SaveTokenRequest{
		IntegrationType: meta.IntegrationTypeGoogleCalendar,
		AccessToken:     "secret-token",
		ExternalEmail:   "alice@example.com",
		AuditDetail:     "authorized from 10.0.0.1",
	})
	suite.NoError(err)

	desc := suite.service.DescribeToken(token)
	suite.Equal("a***e@example.com", desc.MaskedEmail)
	suite.Equal("authorized from 10.0.0.1", desc.AuditDetail)
	suite.True(desc.IsActive)
}

func (suite *CredentialServiceTestSuite) TestDescribeToken_CorruptedAuditDetail() {
	token, err := suite.service.SaveToken(suite.ctx, "user-1", &SaveTokenRequest{
		IntegrationType: meta.IntegrationTypeGoogleCalendar,
		AccessToken:     "secret-token",
		AuditDetail:     "original detail",
	})
	suite.NoError(err)

	// 模拟密文损坏：展示为空而不是报错
	token.EncryptedAuditDetail = "corrupted"
	desc := suite.service.DescribeToken(token)
	suite.Equal("", desc.AuditDetail)
}

func TestCredentialService(t *testing.T) {
	suite.Run(t, new(CredentialServiceTestSuite))
}

func TestMaskEmail(t *testing.T) {
	tests := []struct {
		email    string
		expected string
	}{
		{"alice@example.com", "a***e@example.com"},
		{"ab@example.com", "**@example.com"},
		{"a@example.com", "*@example.com"},
		{"not-an-email", "not-an-email"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, maskEmail(tt.email))
	}
}
