/*
 * @module api/controllers/sync_controller
 * @description 集成同步控制器，提供同步记录的创建、更新、查询与待处理队列接口
 * @architecture 分层架构 - 控制器层
 * @documentReference ai_docs/integration_sync_design.md
 * @stateFlow HTTP请求 -> 身份解析 -> 参数验证 -> 服务调用 -> 响应返回
 * @rules 失败状态更新由服务层累加失败次数，控制器不直接修改计数
 * @dependencies service/syncstate
 * @refs api/routes.go
 */

package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"workhub-service/service"
	"workhub-service/service/syncstate"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// SyncController 集成同步控制器
type SyncController struct {
	syncService *syncstate.Service
}

// NewSyncController 创建集成同步控制器
func NewSyncController() *SyncController {
	return &SyncController{
		syncService: service.GlobalSyncService,
	}
}

// CreateSync 创建同步记录
// @Summary 创建同步记录
// @Description 为当前用户创建一条同步记录，初始状态始终为pending
// @Tags 集成同步管理
// @Accept json
// @Produce json
// @Param X-User-ID header string true "用户ID"
// @Param sync body syncstate.CreateSyncRequest true "同步记录创建信息"
// @Success 200 {object} APIResponse{data=models.IntegrationSync} "创建成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /syncs [post]
func (c *SyncController) CreateSync(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	if userID == "" {
		render.JSON(w, r, UnauthorizedResponse("缺少用户身份", nil))
		return
	}

	var req syncstate.CreateSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数解析失败", err))
		return
	}

	sync, err := c.syncService.CreateSync(r.Context(), userID, &req)
	if err != nil {
		render.JSON(w, r, BadRequestResponse("创建同步记录失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("创建同步记录成功", sync))
}

// UpdateSync 更新同步记录
// @Summary 更新同步记录
// @Description 更新同步状态与结果，失败时服务层自动累加失败次数
// @Tags 集成同步管理
// @Accept json
// @Produce json
// @Param X-User-ID header string true "用户ID"
// @Param id path string true "同步记录ID"
// @Param sync body syncstate.UpdateSyncRequest true "同步记录更新信息"
// @Success 200 {object} APIResponse{data=models.IntegrationSync} "更新成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Failure 404 {object} APIResponse "同步记录不存在"
// @Router /syncs/{id} [put]
func (c *SyncController) UpdateSync(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	if userID == "" {
		render.JSON(w, r, UnauthorizedResponse("缺少用户身份", nil))
		return
	}

	var req syncstate.UpdateSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数解析失败", err))
		return
	}

	sync, err := c.syncService.UpdateSync(r.Context(), userID, chi.URLParam(r, "id"), &req)
	if err != nil {
		if errors.Is(err, syncstate.ErrSyncNotFound) {
			render.JSON(w, r, NotFoundResponse("更新同步记录失败", err))
			return
		}
		render.JSON(w, r, BadRequestResponse("更新同步记录失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("更新同步记录成功", sync))
}

// ListSyncs 获取同步记录列表
// @Summary 获取同步记录列表
// @Description 获取当前用户的全部同步记录
// @Tags 集成同步管理
// @Produce json
// @Param X-User-ID header string true "用户ID"
// @Success 200 {object} APIResponse{data=[]models.IntegrationSync} "获取成功"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /syncs [get]
func (c *SyncController) ListSyncs(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	if userID == "" {
		render.JSON(w, r, UnauthorizedResponse("缺少用户身份", nil))
		return
	}

	syncs, err := c.syncService.ListUserSyncs(r.Context(), userID)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("获取同步记录列表失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("获取同步记录列表成功", syncs))
}

// GetLastSync 获取最近一次同步记录
// @Summary 获取最近一次同步记录
// @Description 获取当前用户指定集成与资源类型的最近一次同步记录
// @Tags 集成同步管理
// @Produce json
// @Param X-User-ID header string true "用户ID"
// @Param type path string true "集成类型" Enums(google-calendar, google-drive, slack)
// @Param resource query string true "资源类型"
// @Success 200 {object} APIResponse{data=models.IntegrationSync} "获取成功"
// @Failure 404 {object} APIResponse "同步记录不存在"
// @Router /syncs/{type}/last [get]
func (c *SyncController) GetLastSync(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	if userID == "" {
		render.JSON(w, r, UnauthorizedResponse("缺少用户身份", nil))
		return
	}

	resourceType := r.URL.Query().Get("resource")
	if resourceType == "" {
		render.JSON(w, r, BadRequestResponse("资源类型不能为空", nil))
		return
	}

	sync, err := c.syncService.GetLastSync(r.Context(), userID, chi.URLParam(r, "type"), resourceType)
	if err != nil {
		if errors.Is(err, syncstate.ErrSyncNotFound) {
			render.JSON(w, r, NotFoundResponse("获取同步记录失败", err))
			return
		}
		render.JSON(w, r, InternalErrorResponse("获取同步记录失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("获取同步记录成功", sync))
}

// ListPendingSyncs 获取待处理同步队列
// @Summary 获取待处理同步队列
// @Description 获取当前用户可执行的同步记录：pending状态以及未达失败上限的failed状态
// @Tags 集成同步管理
// @Produce json
// @Param X-User-ID header string true "用户ID"
// @Success 200 {object} APIResponse{data=[]models.IntegrationSync} "获取成功"
// @Failure 401 {object} APIResponse "缺少用户身份"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /syncs/pending [get]
func (c *SyncController) ListPendingSyncs(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	if userID == "" {
		render.JSON(w, r, UnauthorizedResponse("缺少用户身份", nil))
		return
	}

	syncs, err := c.syncService.ListUserPendingSyncs(r.Context(), userID)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("获取待处理同步队列失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("获取待处理同步队列成功", syncs))
}
