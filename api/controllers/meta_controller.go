package controllers

import (
	"net/http"

	"workhub-service/service/meta"

	"github.com/go-chi/render"
)

type MetaController struct {
}

func NewMetaController() *MetaController {
	return &MetaController{}
}

// @Summary 获取所有自动化类型元数据
// @Description 获取自动化目录，包含每种类型的参数模式、默认值与依赖的集成
// @Tags 元数据
// @Produce json
// @Success 200 {object} APIResponse{data=map[string]meta.AutomationDefinition}
// @Failure 500 {object} APIResponse
// @Router /meta/automation-types [get]
func (c *MetaController) GetAutomationTypes(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, SuccessResponse("获取自动化类型元数据成功", meta.AutomationDefinitions))
}

// @Summary 获取所有集成类型元数据
// @Description 获取支持的第三方集成类型与同步相关元数据
// @Tags 元数据
// @Produce json
// @Success 200 {object} APIResponse{data=map[string]interface{}}
// @Failure 500 {object} APIResponse
// @Router /meta/integration-types [get]
func (c *MetaController) GetIntegrationTypes(w http.ResponseWriter, r *http.Request) {
	integrationMeta := map[string]interface{}{
		"integration_types": meta.IntegrationTypes,
		"sync_statuses":     meta.SyncStatuses,
		"sync_resources":    meta.SyncResources,
		"max_sync_failures": meta.MaxSyncFailures,
	}
	render.JSON(w, r, SuccessResponse("获取集成类型元数据成功", integrationMeta))
}

// @Summary 获取自动化状态元数据
// @Description 获取自动化配置的状态集合
// @Tags 元数据
// @Produce json
// @Success 200 {object} APIResponse{data=[]string}
// @Failure 500 {object} APIResponse
// @Router /meta/automation-statuses [get]
func (c *MetaController) GetAutomationStatuses(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, SuccessResponse("获取自动化状态元数据成功", meta.AutomationStatuses))
}
