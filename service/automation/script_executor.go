/*
 * @module service/automation/script_executor
 * @description Yaegi脚本执行器，为自定义脚本自动化提供沙箱化的Go脚本求值能力
 * @architecture 解释器模式 - 封装yaegi，按脚本哈希缓存编译结果
 * @documentReference ai_docs/automation_engine_design.md
 * @stateFlow 脚本哈希 -> 缓存命中/编译 -> 注入参数执行 -> 返回结果
 * @rules 脚本必须内联实现Run函数体，入口签名固定为 func(map[string]interface{}) (interface{}, error)
 * @dependencies github.com/traefik/yaegi, crypto/sha1
 * @refs service/automation/executors.go
 */

package automation

import (
	"context"
	"crypto/sha1"
	"fmt"
	"sync"
	"time"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// ScriptExecutor Yaegi脚本执行器，支持缓存和参数注入
type ScriptExecutor struct {
	mu    sync.RWMutex
	cache map[string]*compiledScript
}

// compiledScript 编译后的脚本，保存可执行函数
type compiledScript struct {
	fn       func(map[string]interface{}) (interface{}, error)
	compiled time.Time // 编译时间
	hash     string    // 脚本哈希
}

// NewScriptExecutor 创建脚本执行器
func NewScriptExecutor() *ScriptExecutor {
	return &ScriptExecutor{
		cache: make(map[string]*compiledScript),
	}
}

// Execute 执行脚本（带参数注入和缓存优化）
func (s *ScriptExecutor) Execute(ctx context.Context, script string, params map[string]interface{}) (interface{}, error) {
	// 使用脚本内容的哈希作为缓存key
	hash := fmt.Sprintf("%x", sha1.Sum([]byte(script)))

	y := func() *compiledScript {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.cache[hash]
	}()

	if y == nil {
		var err error
		y, err = s.compile(script, hash)
		if err != nil {
			return nil, fmt.Errorf("脚本编译失败: %v", err)
		}

		s.mu.Lock()
		s.cache[hash] = y
		s.mu.Unlock()
	}

	return y.fn(params)
}

// compile 编译脚本为可执行函数
// 包装脚本为Run函数体，并预先提取常用参数变量
func (s *ScriptExecutor) compile(script, hash string) (*compiledScript, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("加载标准库失败: %w", err)
	}

	wrapped := fmt.Sprintf(`
package main

import (
	"fmt"
	"strings"
	"time"
	"encoding/json"
	"sort"
)

// 必须提供一个 Run 函数作为入口
func Run(params map[string]interface{}) (interface{}, error) {
	// 从参数中提取常用变量，方便脚本使用
	var userId interface{}
	if v, exists := params["userId"]; exists {
		userId = v
	}

	var workspaceId interface{}
	if v, exists := params["workspaceId"]; exists {
		workspaceId = v
	}

	var pages []map[string]interface{}
	if v, exists := params["pages"]; exists {
		if typed, ok := v.([]map[string]interface{}); ok {
			pages = typed
		}
	}

	_, _, _ = userId, workspaceId, pages

	// 脚本内容
%s
}
`, script)

	_, err := i.Eval(wrapped)
	if err != nil {
		return nil, fmt.Errorf("脚本编译失败: %w", err)
	}

	v, err := i.Eval("Run")
	if err != nil {
		return nil, fmt.Errorf("脚本缺少 Run 函数: %w", err)
	}

	runFunc, ok := v.Interface().(func(map[string]interface{}) (interface{}, error))
	if !ok {
		return nil, fmt.Errorf("Run 函数签名必须是 func(map[string]interface{}) (interface{}, error)")
	}

	return &compiledScript{
		fn:       runFunc,
		compiled: time.Now(),
		hash:     hash,
	}, nil
}
