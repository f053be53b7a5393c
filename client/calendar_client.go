/*
 * @module client/calendar_client
 * @description 外部日历HTTP客户端，使用用户的OAuth访问令牌创建日历事件
 * @architecture 适配器模式 - 封装外部日历API的HTTP调用
 * @documentReference ai_docs/integration_sync_design.md
 * @stateFlow 构造请求 -> Bearer令牌认证 -> 状态码检查 -> 解析响应
 * @rules 令牌由调用方按次传入，客户端不缓存任何凭证
 * @dependencies net/http, encoding/json, time
 * @refs service/automation/executors.go
 */

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// CalendarEvent 待创建的日历事件
type CalendarEvent struct {
	CalendarID  string     `json:"calendar_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	StartAt     *time.Time `json:"start_at,omitempty"`
	EndAt       *time.Time `json:"end_at,omitempty"`
	AllDay      bool       `json:"all_day"`
}

// CalendarClient 日历客户端接口
type CalendarClient interface {
	// CreateEvent 使用访问令牌创建日历事件
	CreateEvent(ctx context.Context, accessToken string, event *CalendarEvent) error
}

// HTTPCalendarClient 基于HTTP的日历客户端实现
type HTTPCalendarClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewCalendarClientFromEnv 按环境变量创建日历客户端
// CALENDAR_API_BASE 指向日历网关服务
func NewCalendarClientFromEnv() *HTTPCalendarClient {
	baseURL := os.Getenv("CALENDAR_API_BASE")
	if baseURL == "" {
		baseURL = "http://localhost:8090"
	}

	return &HTTPCalendarClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// CreateEvent 创建日历事件
func (c *HTTPCalendarClient) CreateEvent(ctx context.Context, accessToken string, event *CalendarEvent) error {
	if accessToken == "" {
		return fmt.Errorf("访问令牌不能为空")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化日历事件失败: %w", err)
	}

	calendarID := event.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}

	url := fmt.Sprintf("%s/calendars/%s/events", c.baseURL, calendarID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("构造日历请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("调用日历服务失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("日历服务返回错误状态 %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
