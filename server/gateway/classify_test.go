package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/hrygo/repairdesk/internal/errors"
)

func TestClassifyFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureReason
	}{
		{"nil", nil, ""},
		{"status error", &StatusError{StatusCode: 500, Message: "boom"}, FailureBackend},
		{"deadline", fmt.Errorf("post: %w", context.DeadlineExceeded), FailureNetwork},
		{"connection refused", errors.New("dial tcp 127.0.0.1:8000: connect: connection refused"), FailureNetwork},
		{"no such host", errors.New("lookup api.invalid: no such host"), FailureNetwork},
		{"timeout text", errors.New("Client.Timeout exceeded while awaiting headers"), FailureNetwork},
		{"unexpected eof", fmt.Errorf("read body: %w", io.ErrUnexpectedEOF), FailureNetwork},
		{"eof", fmt.Errorf("post: %w", io.EOF), FailureNetwork},
		{"eof inside a word", errors.New("the cause thereof is unknown"), FailureBackend},
		{"not found status", &StatusError{StatusCode: 404, Message: "deal not found"}, FailureBackend},
		{"other", errors.New("backend response is missing deal_id"), FailureBackend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyFailure(tt.err))
		})
	}
}

func TestToAppError(t *testing.T) {
	t.Run("backend message prefixed", func(t *testing.T) {
		appErr := ToAppError(&StatusError{StatusCode: 400, Message: "電話番号が不正です"})
		assert.Equal(t, apperrors.ErrCodeBackend, appErr.Code)
		assert.Equal(t, "エラー: 電話番号が不正です", appErr.UserMessage())
		assert.Equal(t, 400, appErr.Context["status"])
	})

	t.Run("not found status", func(t *testing.T) {
		appErr := ToAppError(&StatusError{StatusCode: 404, Message: "案件が見つかりません"})
		assert.Equal(t, apperrors.ErrCodeNotFound, appErr.Code)
		assert.Equal(t, "エラー: 案件が見つかりません", appErr.UserMessage())
		assert.Equal(t, 404, appErr.Context["status"])
	})

	t.Run("plain error prefixed", func(t *testing.T) {
		appErr := ToAppError(errors.New("the cause thereof is unknown"))
		assert.Equal(t, apperrors.ErrCodeBackend, appErr.Code)
		assert.Equal(t, "エラー: the cause thereof is unknown", appErr.UserMessage())
	})

	t.Run("network message", func(t *testing.T) {
		appErr := ToAppError(context.DeadlineExceeded)
		assert.Equal(t, apperrors.ErrCodeNetwork, appErr.Code)
		assert.Equal(t, NetworkMessage, appErr.UserMessage())
	})

	t.Run("app error passes through", func(t *testing.T) {
		original := apperrors.InvalidArgument("bad")
		assert.Same(t, original, ToAppError(fmt.Errorf("wrap: %w", original)))
	})

	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, ToAppError(nil))
	})
}
