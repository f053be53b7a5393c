/*
 * @module api/controllers/response
 * @description 统一API响应结构与构造函数
 * @architecture 分层架构 - 控制器层
 * @documentReference ai_docs/automation_engine_design.md
 * @stateFlow 无状态响应构造
 * @rules 所有控制器统一使用本模块构造响应体，status为0表示成功
 * @dependencies 无
 * @refs api/routes.go
 */

package controllers

// APIResponse 统一API响应结构
type APIResponse struct {
	Status int         `json:"status" example:"0"`
	Msg    string      `json:"msg" example:"操作成功"`
	Data   interface{} `json:"data,omitempty"`
}

// PaginatedResponse 分页响应结构
type PaginatedResponse struct {
	Status int         `json:"status" example:"0"`
	Msg    string      `json:"msg" example:"操作成功"`
	Data   interface{} `json:"data"`
	Total  int64       `json:"total" example:"100"`
	Page   int         `json:"page" example:"1"`
	Size   int         `json:"size" example:"10"`
}

// SuccessResponse 构造成功响应
func SuccessResponse(msg string, data interface{}) APIResponse {
	return APIResponse{Status: 0, Msg: msg, Data: data}
}

// BadRequestResponse 构造请求参数错误响应
func BadRequestResponse(msg string, err error) APIResponse {
	return errorResponse(400, msg, err)
}

// UnauthorizedResponse 构造未认证响应
func UnauthorizedResponse(msg string, err error) APIResponse {
	return errorResponse(401, msg, err)
}

// NotFoundResponse 构造资源不存在响应
func NotFoundResponse(msg string, err error) APIResponse {
	return errorResponse(404, msg, err)
}

// ConflictResponse 构造资源冲突响应
func ConflictResponse(msg string, err error) APIResponse {
	return errorResponse(409, msg, err)
}

// InternalErrorResponse 构造服务器内部错误响应
func InternalErrorResponse(msg string, err error) APIResponse {
	return errorResponse(500, msg, err)
}

func errorResponse(status int, msg string, err error) APIResponse {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	return APIResponse{Status: status, Msg: msg}
}
