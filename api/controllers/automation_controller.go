/*
 * @module api/controllers/automation_controller
 * @description 自动化配置控制器，提供配置CRUD、启停开关、手动执行与统计接口
 * @architecture 分层架构 - 控制器层
 * @documentReference ai_docs/automation_engine_design.md
 * @stateFlow HTTP请求 -> 身份解析 -> 参数验证 -> 服务调用 -> 响应返回
 * @rules 所有接口按X-User-ID进行归属隔离，跨用户访问一律返回404
 * @dependencies service/automation, service/models
 * @refs api/routes.go
 */

package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"workhub-service/service"
	"workhub-service/service/automation"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// AutomationController 自动化配置控制器
type AutomationController struct {
	automationService *automation.Service
	engine            *automation.Engine
}

// NewAutomationController 创建自动化配置控制器
func NewAutomationController() *AutomationController {
	return &AutomationController{
		automationService: service.GlobalAutomationService,
		engine:            service.GlobalAutomationEngine,
	}
}

// requestUserID 从请求头解析用户身份
func requestUserID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

// ToggleRequest 启停开关请求
type ToggleRequest struct {
	IsEnabled bool `json:"is_enabled" example:"true"`
}

// CreateAutomation 创建自动化配置
// @Summary 创建自动化配置
// @Description 为当前用户创建自动化配置，同一用户同一工作区下同一类型的配置唯一
// @Tags 自动化管理
// @Accept json
// @Produce json
// @Param X-User-ID header string true "用户ID"
// @Param automation body automation.CreateRequest true "自动化配置创建信息"
// @Success 200 {object} APIResponse{data=models.AutomationConfiguration} "创建成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Failure 409 {object} APIResponse "配置已存在"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /automations [post]
func (c *AutomationController) CreateAutomation(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	if userID == "" {
		render.JSON(w, r, UnauthorizedResponse("缺少用户身份", nil))
		return
	}

	var req automation.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数解析失败", err))
		return
	}

	config, err := c.automationService.Create(r.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, automation.ErrConflict) {
			render.JSON(w, r, ConflictResponse("创建自动化配置失败", err))
			return
		}
		render.JSON(w, r, BadRequestResponse("创建自动化配置失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("创建自动化配置成功", config))
}

// ListAutomations 获取自动化配置列表
// @Summary 获取自动化配置列表
// @Description 获取当前用户的自动化配置，可按工作区过滤
// @Tags 自动化管理
// @Produce json
// @Param X-User-ID header string true "用户ID"
// @Param workspace_id query string false "工作区ID"
// @Success 200 {object} APIResponse{data=[]models.AutomationConfiguration} "获取成功"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /automations [get]
func (c *AutomationController) ListAutomations(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	if userID == "" {
		render.JSON(w, r, UnauthorizedResponse("缺少用户身份", nil))
		return
	}

	var workspaceID *string
	if v := r.URL.Query().Get("workspace_id"); v != "" {
		workspaceID = &v
	}

	configs, err := c.automationService.List(r.Context(), userID, workspaceID)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("获取自动化配置列表失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("获取自动化配置列表成功", configs))
}

// GetAutomation 获取自动化配置详情
// @Summary 获取自动化配置详情
// @Description 获取当前用户指定的自动化配置
// @Tags 自动化管理
// @Produce json
// @Param X-User-ID header string true "用户ID"
// @Param id path string true "配置ID"
// @Success 200 {object} APIResponse{data=models.AutomationConfiguration} "获取成功"
// @Failure 404 {object} APIResponse "配置不存在"
// @Router /automations/{id} [get]
func (c *AutomationController) GetAutomation(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	if userID == "" {
		render.JSON(w, r, UnauthorizedResponse("缺少用户身份", nil))
		return
	}

	config, err := c.automationService.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		render.JSON(w, r, NotFoundResponse("获取自动化配置失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("获取自动化配置成功", config))
}

// UpdateAutomation 更新自动化配置
// @Summary 更新自动化配置
// @Description 更新当前用户指定配置的启用状态与参数，不允许直接修改运行状态
// @Tags 自动化管理
// @Accept json
// @Produce json
// @Param X-User-ID header string true "用户ID"
// @Param id path string true "配置ID"
// @Param automation body automation.UpdateRequest true "自动化配置更新信息"
// @Success 200 {object} APIResponse{data=models.AutomationConfiguration} "更新成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Failure 404 {object} APIResponse "配置不存在"
// @Router /automations/{id} [put]
func (c *AutomationController) UpdateAutomation(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	if userID == "" {
		render.JSON(w, r, UnauthorizedResponse("缺少用户身份", nil))
		return
	}

	var req automation.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数解析失败", err))
		return
	}

	config, err := c.automationService.Update(r.Context(), userID, chi.URLParam(r, "id"), &req)
	if err != nil {
		if errors.Is(err, automation.ErrNotFound) {
			render.JSON(w, r, NotFoundResponse("更新自动化配置失败", err))
			return
		}
		render.JSON(w, r, BadRequestResponse("更新自动化配置失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("更新自动化配置成功", config))
}

// ToggleAutomation 切换自动化配置启停状态
// @Summary 切换自动化配置启停状态
// @Description 停用后配置进入paused状态，重新启用后恢复idle
// @Tags 自动化管理
// @Accept json
// @Produce json
// @Param X-User-ID header string true "用户ID"
// @Param id path string true "配置ID"
// @Param toggle body ToggleRequest true "启停开关"
// @Success 200 {object} APIResponse{data=models.AutomationConfiguration} "切换成功"
// @Failure 404 {object} APIResponse "配置不存在"
// @Router /automations/{id}/toggle [post]
func (c *AutomationController) ToggleAutomation(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	if userID == "" {
		render.JSON(w, r, UnauthorizedResponse("缺少用户身份", nil))
		return
	}

	var req ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数解析失败", err))
		return
	}

	config, err := c.automationService.Toggle(r.Context(), userID, chi.URLParam(r, "id"), req.IsEnabled)
	if err != nil {
		if errors.Is(err, automation.ErrNotFound) {
			render.JSON(w, r, NotFoundResponse("切换自动化配置失败", err))
			return
		}
		render.JSON(w, r, InternalErrorResponse("切换自动化配置失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("切换自动化配置成功", config))
}

// DeleteAutomation 删除自动化配置
// @Summary 删除自动化配置
// @Description 删除当前用户指定的自动化配置
// @Tags 自动化管理
// @Produce json
// @Param X-User-ID header string true "用户ID"
// @Param id path string true "配置ID"
// @Success 200 {object} APIResponse "删除成功"
// @Failure 404 {object} APIResponse "配置不存在"
// @Router /automations/{id} [delete]
func (c *AutomationController) DeleteAutomation(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	if userID == "" {
		render.JSON(w, r, UnauthorizedResponse("缺少用户身份", nil))
		return
	}

	if err := c.automationService.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, automation.ErrNotFound) {
			render.JSON(w, r, NotFoundResponse("删除自动化配置失败", err))
			return
		}
		render.JSON(w, r, InternalErrorResponse("删除自动化配置失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("删除自动化配置成功", nil))
}

// RunAutomation 手动执行自动化
// @Summary 手动执行自动化
// @Description 立即执行一次自动化，dry_run=true时仅模拟执行不写入任何状态
// @Tags 自动化管理
// @Produce json
// @Param X-User-ID header string true "用户ID"
// @Param id path string true "配置ID"
// @Param dry_run query bool false "是否模拟执行"
// @Success 200 {object} APIResponse{data=automation.RunResult} "执行完成"
// @Failure 404 {object} APIResponse "配置不存在"
// @Failure 409 {object} APIResponse "自动化正在执行中"
// @Router /automations/{id}/run [post]
func (c *AutomationController) RunAutomation(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	if userID == "" {
		render.JSON(w, r, UnauthorizedResponse("缺少用户身份", nil))
		return
	}

	dryRun := r.URL.Query().Get("dry_run") == "true"

	result, err := c.engine.Run(r.Context(), userID, chi.URLParam(r, "id"), dryRun)
	if err != nil {
		if errors.Is(err, automation.ErrNotFound) {
			render.JSON(w, r, NotFoundResponse("执行自动化失败", err))
			return
		}
		if errors.Is(err, automation.ErrAlreadyRunning) {
			render.JSON(w, r, ConflictResponse("执行自动化失败", err))
			return
		}
		render.JSON(w, r, InternalErrorResponse("执行自动化失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("执行自动化完成", result))
}

// GetAutomationStatistics 获取自动化统计信息
// @Summary 获取自动化统计信息
// @Description 统计当前用户的自动化配置数量、启用数量、处理条目总数等
// @Tags 自动化管理
// @Produce json
// @Param X-User-ID header string true "用户ID"
// @Param workspace_id query string false "工作区ID"
// @Success 200 {object} APIResponse{data=automation.Statistics} "获取成功"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /automations/statistics [get]
func (c *AutomationController) GetAutomationStatistics(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	if userID == "" {
		render.JSON(w, r, UnauthorizedResponse("缺少用户身份", nil))
		return
	}

	var workspaceID *string
	if v := r.URL.Query().Get("workspace_id"); v != "" {
		workspaceID = &v
	}

	stats, err := c.automationService.GetStatistics(r.Context(), userID, workspaceID)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("获取自动化统计信息失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("获取自动化统计信息成功", stats))
}
