package dify

import "log/slog"

// Notifier 对应小程序端的 toast：向用户弹一条非阻塞的临时提示
// 提示失败绝不能掩盖底层错误，所以所有调用都经过 safeNotify
type Notifier interface {
	Notify(message string)
}

type logNotifier struct{}

func (logNotifier) Notify(message string) {
	slog.Warn("用户提示", "toast", message)
}

// NewLogNotifier 返回把提示写进日志的默认实现
func NewLogNotifier() Notifier {
	return logNotifier{}
}

func safeNotify(n Notifier, message string) {
	if n == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("提示展示失败", "panic", r)
		}
	}()
	n.Notify(message)
}
