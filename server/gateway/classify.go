package gateway

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	apperrors "github.com/hrygo/repairdesk/internal/errors"
)

// FailureReason distinguishes a connectivity failure from a backend-reported one.
type FailureReason string

const (
	FailureNetwork FailureReason = "network"
	FailureBackend FailureReason = "backend"
)

const (
	// NetworkMessage is shown for timeouts and connectivity failures.
	NetworkMessage = "通信エラーが発生しました。接続を確認して、もう一度お試しください。"
	// BackendMessagePrefix is prepended to backend-provided failure messages.
	BackendMessagePrefix = "エラー: "
)

// ClassifyFailure reports whether err is a network failure (timeout or
// connectivity) or a backend failure.
func ClassifyFailure(err error) FailureReason {
	if err == nil {
		return ""
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return FailureBackend
	}
	if isNetworkError(err) || isTimeoutError(err) {
		return FailureNetwork
	}
	return FailureBackend
}

// ToAppError converts a gateway error into the typed error surfaced to users.
// Network failures carry NetworkMessage; backend failures carry the backend
// message prefixed with BackendMessagePrefix. A 404 maps to ErrCodeNotFound.
func ToAppError(err error) *apperrors.AppError {
	if err == nil {
		return nil
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	if ClassifyFailure(err) == FailureNetwork {
		return apperrors.Network(NetworkMessage, err)
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		msg := BackendMessagePrefix + statusErr.Message
		if statusErr.StatusCode == http.StatusNotFound {
			return apperrors.NotFound(msg, err).WithContext("status", statusErr.StatusCode)
		}
		return apperrors.Backend(msg, err).WithContext("status", statusErr.StatusCode)
	}
	return apperrors.Backend(BackendMessagePrefix+err.Error(), err)
}

func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	errMsg := strings.ToLower(err.Error())
	networkPatterns := []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"network is unreachable",
		"no such host",
		"temporary failure",
		"dial tcp",
		"connection lost",
		"failed to fetch",
	}
	for _, pattern := range networkPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}

func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	errMsg := strings.ToLower(err.Error())
	timeoutPatterns := []string{
		"timeout",
		"deadline exceeded",
		"i/o timeout",
		"operation timed out",
	}
	for _, pattern := range timeoutPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
