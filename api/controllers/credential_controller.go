/*
 * @module api/controllers/credential_controller
 * @description 集成凭证控制器，提供凭证保存、查询、刷新与撤销接口
 * @architecture 分层架构 - 控制器层
 * @documentReference ai_docs/integration_sync_design.md
 * @stateFlow HTTP请求 -> 身份解析 -> 参数验证 -> 服务调用 -> 响应返回
 * @rules 接口永不返回明文令牌，列表与详情均使用脱敏后的展示结构
 * @dependencies service/credential, service/meta
 * @refs api/routes.go
 */

package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"workhub-service/service"
	"workhub-service/service/credential"
	"workhub-service/service/meta"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// CredentialController 集成凭证控制器
type CredentialController struct {
	credentialService *credential.Service
}

// NewCredentialController 创建集成凭证控制器
func NewCredentialController() *CredentialController {
	return &CredentialController{
		credentialService: service.GlobalCredentialService,
	}
}

// SaveCredential 保存集成凭证
// @Summary 保存集成凭证
// @Description 授权完成后保存OAuth凭证，令牌加密后落库
// @Tags 集成凭证管理
// @Accept json
// @Produce json
// @Param X-User-ID header string true "用户ID"
// @Param credential body credential.SaveTokenRequest true "凭证信息"
// @Success 200 {object} APIResponse{data=credential.TokenDescription} "保存成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /credentials [post]
func (c *CredentialController) SaveCredential(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	if userID == "" {
		render.JSON(w, r, UnauthorizedResponse("缺少用户身份", nil))
		return
	}

	var req credential.SaveTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数解析失败", err))
		return
	}

	token, err := c.credentialService.SaveToken(r.Context(), userID, &req)
	if err != nil {
		render.JSON(w, r, BadRequestResponse("保存凭证失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("保存凭证成功", c.credentialService.DescribeToken(token)))
}

// ListCredentials 获取凭证列表
// @Summary 获取凭证列表
// @Description 获取当前用户的全部集成凭证（脱敏展示）
// @Tags 集成凭证管理
// @Produce json
// @Param X-User-ID header string true "用户ID"
// @Success 200 {object} APIResponse{data=[]credential.TokenDescription} "获取成功"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /credentials [get]
func (c *CredentialController) ListCredentials(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	if userID == "" {
		render.JSON(w, r, UnauthorizedResponse("缺少用户身份", nil))
		return
	}

	tokens, err := c.credentialService.ListUserTokens(r.Context(), userID)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("获取凭证列表失败", err))
		return
	}

	descriptions := make([]*credential.TokenDescription, 0, len(tokens))
	for i := range tokens {
		descriptions = append(descriptions, c.credentialService.DescribeToken(&tokens[i]))
	}

	render.JSON(w, r, SuccessResponse("获取凭证列表成功", descriptions))
}

// GetCurrentCredential 获取指定集成的当前凭证
// @Summary 获取指定集成的当前凭证
// @Description 获取当前用户指定集成类型的最新活跃凭证（脱敏展示）
// @Tags 集成凭证管理
// @Produce json
// @Param X-User-ID header string true "用户ID"
// @Param type path string true "集成类型" Enums(google-calendar, google-drive, slack)
// @Success 200 {object} APIResponse{data=credential.TokenDescription} "获取成功"
// @Failure 404 {object} APIResponse "凭证不存在"
// @Router /credentials/{type}/current [get]
func (c *CredentialController) GetCurrentCredential(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	if userID == "" {
		render.JSON(w, r, UnauthorizedResponse("缺少用户身份", nil))
		return
	}

	integrationType := chi.URLParam(r, "type")
	if !meta.IsValidIntegrationType(integrationType) {
		render.JSON(w, r, BadRequestResponse("无效的集成类型", nil))
		return
	}

	token, err := c.credentialService.GetCurrentToken(r.Context(), userID, integrationType)
	if err != nil {
		if errors.Is(err, credential.ErrTokenNotFound) {
			render.JSON(w, r, NotFoundResponse("获取当前凭证失败", err))
			return
		}
		render.JSON(w, r, InternalErrorResponse("获取当前凭证失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("获取当前凭证成功", c.credentialService.DescribeToken(token)))
}

// UpdateCredential 更新集成凭证
// @Summary 更新集成凭证
// @Description 令牌刷新后更新凭证内容
// @Tags 集成凭证管理
// @Accept json
// @Produce json
// @Param X-User-ID header string true "用户ID"
// @Param id path string true "凭证ID"
// @Param credential body credential.UpdateTokenRequest true "凭证更新信息"
// @Success 200 {object} APIResponse{data=credential.TokenDescription} "更新成功"
// @Failure 404 {object} APIResponse "凭证不存在"
// @Router /credentials/{id} [put]
func (c *CredentialController) UpdateCredential(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	if userID == "" {
		render.JSON(w, r, UnauthorizedResponse("缺少用户身份", nil))
		return
	}

	var req credential.UpdateTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数解析失败", err))
		return
	}

	token, err := c.credentialService.UpdateToken(r.Context(), userID, chi.URLParam(r, "id"), &req)
	if err != nil {
		if errors.Is(err, credential.ErrTokenNotFound) {
			render.JSON(w, r, NotFoundResponse("更新凭证失败", err))
			return
		}
		render.JSON(w, r, BadRequestResponse("更新凭证失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("更新凭证成功", c.credentialService.DescribeToken(token)))
}

// RevokeCredential 撤销集成凭证
// @Summary 撤销集成凭证
// @Description 撤销当前用户指定集成类型的全部活跃凭证，操作在单个事务内完成
// @Tags 集成凭证管理
// @Produce json
// @Param X-User-ID header string true "用户ID"
// @Param type path string true "集成类型" Enums(google-calendar, google-drive, slack)
// @Success 200 {object} APIResponse{data=map[string]int64} "撤销成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /credentials/{type}/revoke [post]
func (c *CredentialController) RevokeCredential(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	if userID == "" {
		render.JSON(w, r, UnauthorizedResponse("缺少用户身份", nil))
		return
	}

	integrationType := chi.URLParam(r, "type")
	if !meta.IsValidIntegrationType(integrationType) {
		render.JSON(w, r, BadRequestResponse("无效的集成类型", nil))
		return
	}

	revoked, err := c.credentialService.Revoke(r.Context(), userID, integrationType)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("撤销凭证失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("撤销凭证成功", map[string]int64{"revoked": revoked}))
}
