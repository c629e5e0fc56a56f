// Package timeout defines centralized timeout constants for support flows.
// Package timeout 定义咨询流程的集中式超时常量。
package timeout

import "time"

// Support flow timeout constants.
// 咨询流程超时常量。
const (
	// ChatReplyDeadline is the soft deadline for a chat reply.
	// It changes what is displayed; the request itself keeps running.
	// ChatReplyDeadline 是聊天回复的软超时，不会取消底层请求。
	ChatReplyDeadline = 60 * time.Second

	// ProxyRequestTimeout is the hard cap for a single backend call.
	// ProxyRequestTimeout 是单次后端调用的硬上限。
	ProxyRequestTimeout = 5 * time.Minute

	// SubmitResetDelay is how long a successful submission stays on screen
	// before the editable fields are reset.
	// SubmitResetDelay 是提交成功后重置表单前的展示时间。
	SubmitResetDelay = 3 * time.Second

	// StoreOpenTimeout bounds waiting for the local store file lock.
	// StoreOpenTimeout 是等待本地存储文件锁的上限。
	StoreOpenTimeout = 2 * time.Second

	// MaxTruncateLength is the maximum length for truncating strings in logs.
	// MaxTruncateLength 是日志中字符串截断的最大长度。
	MaxTruncateLength = 200
)
