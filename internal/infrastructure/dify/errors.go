package dify

import (
	"errors"
	"fmt"
)

// ErrBaseURLMissing 表示未配置服务地址且不在 Mock 模式
var ErrBaseURLMissing = errors.New("BASE_URL_MISSING")

// ErrCloudUnavailable 表示 cloud_only 模式下中转不可用，不再回退直连
var ErrCloudUnavailable = errors.New("云函数不可用，请稍后再试")

// HTTPError 是上游返回的非 2xx 状态，Message 已按状态段落翻译成用户可读文案
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP_%d: %s", e.Status, e.Message)
}

// Retryable 判断该状态是否值得退避重试：限频和服务端错误重试，其它 4xx 立即失败
func (e *HTTPError) Retryable() bool {
	return e.Status == 429 || e.Status >= 500
}

// RelayError 是云函数中转返回的 {ok:false} 结果
// 对回退逻辑而言等价于一次传输失败
type RelayError struct {
	Status  int // 中转透传的上游状态码，0 表示中转自身失败
	Message string
}

func (e *RelayError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("(%d) %s", e.Status, e.Message)
	}
	return e.Message
}

// statusMessage 按状态段选择用户可见的提示文案
func statusMessage(status int, serverMessage string) string {
	switch {
	case status == 401 || status == 403:
		return "鉴权失败，请检查配置"
	case status == 429:
		return "请求过于频繁，请稍后再试"
	case status >= 500:
		return "服务繁忙，请稍后再试"
	case serverMessage != "":
		return serverMessage
	default:
		return "服务暂时不可用"
	}
}
