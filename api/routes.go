/*
 * @module api/routes
 * @description API路由配置模块，负责初始化和配置所有HTTP路由
 * @architecture RESTful API架构
 * @documentReference ai_docs/automation_engine_design.md
 * @stateFlow 无状态HTTP请求处理
 * @rules 遵循RESTful API设计规范，统一错误处理和响应格式
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/cors, github.com/go-chi/render
 * @refs api/controllers
 */

package api

import (
	"workhub-service/api/controllers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
)

// InitRoute 初始化所有API路由
func InitRoute(r *chi.Mux) {
	// 基础中间件
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// CORS配置
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-User-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 健康检查
	healthController := controllers.NewHealthController()
	r.Get("/health", healthController.Health)
	r.Get("/ready", healthController.Ready)

	// 元数据管理
	r.Route("/meta", func(r chi.Router) {
		metaController := controllers.NewMetaController()
		r.Get("/automation-types", metaController.GetAutomationTypes)
		r.Get("/automation-statuses", metaController.GetAutomationStatuses)
		r.Get("/integration-types", metaController.GetIntegrationTypes)
	})

	// 自动化配置管理
	r.Route("/automations", func(r chi.Router) {
		automationController := controllers.NewAutomationController()

		r.Post("/", automationController.CreateAutomation)
		r.Get("/", automationController.ListAutomations)
		r.Get("/statistics", automationController.GetAutomationStatistics)
		r.Get("/{id}", automationController.GetAutomation)
		r.Put("/{id}", automationController.UpdateAutomation)
		r.Delete("/{id}", automationController.DeleteAutomation)

		// 启停开关
		r.Post("/{id}/toggle", automationController.ToggleAutomation)

		// 手动执行，支持dry_run模拟
		r.Post("/{id}/run", automationController.RunAutomation)
	})

	// 集成凭证管理
	r.Route("/credentials", func(r chi.Router) {
		credentialController := controllers.NewCredentialController()

		r.Post("/", credentialController.SaveCredential)
		r.Get("/", credentialController.ListCredentials)
		r.Put("/{id}", credentialController.UpdateCredential)
		r.Get("/{type}/current", credentialController.GetCurrentCredential)
		r.Post("/{type}/revoke", credentialController.RevokeCredential)
	})

	// 集成同步管理
	r.Route("/syncs", func(r chi.Router) {
		syncController := controllers.NewSyncController()

		r.Post("/", syncController.CreateSync)
		r.Get("/", syncController.ListSyncs)
		r.Get("/pending", syncController.ListPendingSyncs)
		r.Put("/{id}", syncController.UpdateSync)
		r.Get("/{type}/last", syncController.GetLastSync)
	})
}
