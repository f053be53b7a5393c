/*
 * @module service/event
 * @description 自动化运行事件发布器，将运行生命周期事件写入Kafka供下游消费
 * @architecture 事件驱动架构 - 适配器模式，封装Kafka生产者
 * @documentReference ai_docs/automation_engine_design.md
 * @stateFlow 运行开始/成功/失败 -> 序列化事件 -> 写入topic
 * @rules 事件发布为尽力而为，失败仅记录日志，不影响自动化执行结果
 * @dependencies github.com/segmentio/kafka-go, encoding/json
 * @refs service/automation/engine.go, service/init.go
 */

package event

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// 运行事件阶段常量
const (
	RunPhaseStarted   = "started"
	RunPhaseSucceeded = "succeeded"
	RunPhaseFailed    = "failed"
)

// RunEvent 自动化运行生命周期事件
type RunEvent struct {
	AutomationID   string    `json:"automation_id"`
	AutomationType string    `json:"automation_type"`
	UserID         string    `json:"user_id"`
	Phase          string    `json:"phase"`
	DryRun         bool      `json:"dry_run"`
	ItemsProcessed int       `json:"items_processed,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// RunEventPublisher 运行事件发布器
type RunEventPublisher struct {
	writer *kafka.Writer
}

// NewPublisherFromEnv 按环境变量创建事件发布器
// 未设置KAFKA_BROKERS时返回禁用的发布器
func NewPublisherFromEnv() *RunEventPublisher {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		slog.Info("未配置Kafka，运行事件发布已禁用")
		return &RunEventPublisher{}
	}

	topic := os.Getenv("KAFKA_RUN_EVENT_TOPIC")
	if topic == "" {
		topic = "workhub.automation.runs"
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(brokers, ",")...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		BatchTimeout: 100 * time.Millisecond,
	}

	slog.Info("运行事件发布器初始化成功", "brokers", brokers, "topic", topic)
	return &RunEventPublisher{writer: writer}
}

// Publish 发布运行事件，失败仅记日志
func (p *RunEventPublisher) Publish(ctx context.Context, evt RunEvent) {
	if p == nil || p.writer == nil {
		return
	}

	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		slog.Warn("序列化运行事件失败", "error", err, "automation_id", evt.AutomationID)
		return
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(evt.AutomationID),
		Value: payload,
	})
	if err != nil {
		slog.Warn("发布运行事件失败", "error", err, "automation_id", evt.AutomationID, "phase", evt.Phase)
	}
}

// Close 关闭底层生产者
func (p *RunEventPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
