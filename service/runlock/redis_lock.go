/*
 * @module service/runlock
 * @description Redis分布式执行锁，多实例部署时避免同一自动化被并发触发
 * @architecture 工具层 - 提供分布式锁能力
 * @documentReference ai_docs/automation_engine_design.md
 * @stateFlow 获取锁 -> 执行自动化 -> 释放锁/自动过期
 * @rules
 *   - 使用Redis SET NX实现，锁自动过期防止死锁
 *   - 执行的正确性由数据库层的状态CAS保证，本锁仅减少跨实例的无效争用
 *   - 未配置Redis时退化为空实现
 * @dependencies github.com/go-redis/redis/v8
 * @refs service/init.go, service/automation/engine.go
 */

package runlock

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
)

// Lock 执行锁接口
type Lock interface {
	// TryLock 尝试获取锁
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Unlock 释放锁
	Unlock(ctx context.Context, key string) error
}

// RedisLock Redis分布式锁实现
type RedisLock struct {
	client     *redis.Client
	instanceID string // 实例ID，用于标识锁的持有者
}

// NewFromEnv 按环境变量创建执行锁
// 未设置REDIS_HOST时返回空实现
func NewFromEnv() Lock {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		slog.Info("未配置Redis，自动化执行锁使用空实现")
		return NoopLock{}
	}

	lock, err := NewRedisLock(host)
	if err != nil {
		slog.Warn("Redis执行锁初始化失败，退化为空实现", "error", err)
		return NoopLock{}
	}
	return lock
}

// NewRedisLock 创建Redis分布式锁
func NewRedisLock(host string) (*RedisLock, error) {
	port := getEnvWithDefault("REDIS_PORT", "6379")
	password := os.Getenv("REDIS_PASSWORD")
	db := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		fmt.Sscanf(dbStr, "%d", &db)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", host, port),
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis连接失败: %w", err)
	}

	// 生成实例ID（使用主机名+进程ID）
	hostname, _ := os.Hostname()
	instanceID := fmt.Sprintf("%s:%d", hostname, os.Getpid())

	slog.Info("Redis执行锁初始化成功",
		"instance_id", instanceID,
		"redis_host", host,
		"redis_port", port)

	return &RedisLock{
		client:     client,
		instanceID: instanceID,
	}, nil
}

// TryLock 尝试获取锁
// 使用SET NX命令，只有当key不存在时才会设置成功
func (r *RedisLock) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	lockKey := fmt.Sprintf("automation_engine:lock:%s", key)

	result, err := r.client.SetNX(ctx, lockKey, r.instanceID, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("获取锁失败: %w", err)
	}

	return result, nil
}

// Unlock 释放锁
// 仅当锁的持有者是本实例时才删除
func (r *RedisLock) Unlock(ctx context.Context, key string) error {
	lockKey := fmt.Sprintf("automation_engine:lock:%s", key)

	holder, err := r.client.Get(ctx, lockKey).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("查询锁持有者失败: %w", err)
	}

	if holder != r.instanceID {
		return fmt.Errorf("锁被其他实例持有: %s", holder)
	}

	if err := r.client.Del(ctx, lockKey).Err(); err != nil {
		return fmt.Errorf("释放锁失败: %w", err)
	}
	return nil
}

// NoopLock 空实现，单实例部署或未配置Redis时使用
type NoopLock struct{}

// TryLock 总是成功
func (NoopLock) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return true, nil
}

// Unlock 无操作
func (NoopLock) Unlock(ctx context.Context, key string) error {
	return nil
}

// getEnvWithDefault 获取环境变量，如果不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
