/*
 * @module service/init
 * @description 服务初始化模块，负责数据库连接、迁移与各业务服务的装配
 * @architecture 分层架构 - 服务层
 * @documentReference ai_docs/automation_engine_design.md
 * @stateFlow 应用启动时执行初始化流程
 * @rules 确保所有依赖服务正常启动后才提供API服务
 * @dependencies gorm.io/gorm, gorm.io/driver/postgres
 * @refs main.go
 */

package service

import (
	"fmt"
	"log"
	"os"

	"workhub-service/client"
	"workhub-service/service/automation"
	"workhub-service/service/credential"
	"workhub-service/service/event"
	"workhub-service/service/models"
	"workhub-service/service/pagedata"
	"workhub-service/service/runlock"
	"workhub-service/service/syncstate"
	"workhub-service/service/trigger"
	"workhub-service/service/vault"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	DB                      *gorm.DB
	GlobalVault             *vault.Vault
	GlobalCredentialService *credential.Service
	GlobalSyncService       *syncstate.Service
	GlobalPageStore         *pagedata.Store
	GlobalAutomationService *automation.Service
	GlobalAutomationEngine  *automation.Engine
	GlobalTriggerService    *trigger.Service
	GlobalRunEventPublisher *event.RunEventPublisher
)

func init() {
	initDatabase()
	runMigrations()
	initServices()
}

// initDatabase 初始化数据库连接
func initDatabase() {
	var dsn string

	// 优先使用DATABASE_URL环境变量
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		dsn = databaseURL
	} else {
		// 使用分离的环境变量构建连接字符串
		host := getEnvWithDefault("DB_HOST", "localhost")
		port := getEnvWithDefault("DB_PORT", "5432")
		user := getEnvWithDefault("DB_USER", "postgres")
		password := getEnvWithDefault("DB_PASSWORD", "things2024")
		dbname := getEnvWithDefault("DB_NAME", "postgres")
		sslmode := getEnvWithDefault("DB_SSLMODE", "disable")
		schema := getEnvWithDefault("DB_SCHEMA", "public")

		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s TimeZone=Asia/Shanghai",
			host, port, user, password, dbname, sslmode, schema)
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	log.Println("数据库连接成功")
}

// getEnvWithDefault 获取环境变量，如果不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// runMigrations 运行数据库迁移
func runMigrations() {
	log.Println("开始运行数据库迁移...")

	if err := DB.AutoMigrate(
		&models.AutomationConfiguration{},
		&models.IntegrationToken{},
		&models.IntegrationSync{},
		&models.Page{},
	); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	log.Println("数据库表结构迁移完成")
}

// initServices 初始化服务
func initServices() {
	GlobalVault = vault.New(getEnvWithDefault("VAULT_KEY", "workhub-dev-vault-key"))
	GlobalCredentialService = credential.NewService(DB, GlobalVault)
	GlobalSyncService = syncstate.NewService(DB)
	GlobalPageStore = pagedata.NewStore(DB)
	GlobalAutomationService = automation.NewService(DB)
	GlobalRunEventPublisher = event.NewPublisherFromEnv()

	GlobalAutomationEngine = automation.NewEngine(
		DB,
		GlobalAutomationService,
		GlobalPageStore,
		GlobalCredentialService,
		client.NewCalendarClientFromEnv(),
		runlock.NewFromEnv(),
		GlobalRunEventPublisher,
	)

	GlobalTriggerService = trigger.NewService(DB, GlobalAutomationEngine, GlobalSyncService)
	if err := GlobalTriggerService.Start(); err != nil {
		log.Fatalf("触发服务启动失败: %v", err)
	}

	log.Println("服务初始化完成")
}
