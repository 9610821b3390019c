package login

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Dicklesworthstone/loginchallenge/internal/auth"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		kind  Kind
		title string
	}{
		{"sentinel invalid credentials", auth.ErrInvalidCredentials, KindInvalidCredentials, "ログインエラー"},
		{"401 status", &auth.StatusError{Op: "login", StatusCode: http.StatusUnauthorized}, KindInvalidCredentials, "ログインエラー"},
		{"403 status", &auth.StatusError{Op: "login", StatusCode: http.StatusForbidden}, KindInvalidCredentials, "ログインエラー"},
		{"network error", &auth.NetworkError{Op: "login", Err: errors.New("connection refused")}, KindNetworkFailure, "ネットワークエラー"},
		{"wrapped network sentinel", fmt.Errorf("outer: %w", auth.ErrNetwork), KindNetworkFailure, "ネットワークエラー"},
		{"500 status", &auth.StatusError{Op: "login", StatusCode: http.StatusInternalServerError}, KindServerFailure, "サーバーエラー"},
		{"503 status", &auth.StatusError{Op: "login", StatusCode: http.StatusServiceUnavailable}, KindServerFailure, "サーバーエラー"},
		{"429 status", &auth.StatusError{Op: "login", StatusCode: http.StatusTooManyRequests}, KindServerFailure, "サーバーエラー"},
		{"418 status", &auth.StatusError{Op: "login", StatusCode: http.StatusTeapot}, KindUnknownFailure, "システムエラー"},
		{"plain error", errors.New("boom"), KindUnknownFailure, "システムエラー"},
		{"context canceled", context.Canceled, KindUnknownFailure, "システムエラー"},
		{"canceled login call", &auth.NetworkError{Op: "login", Err: context.Canceled}, KindNetworkFailure, "ネットワークエラー"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := Classify(tc.err)
			assert.Equal(t, tc.kind, c.Kind)
			assert.Equal(t, tc.title, c.Title)
			assert.NotEmpty(t, c.Message)
		})
	}
}

func TestClassify_DetailOnlyForUnknown(t *testing.T) {
	unknown := Classify(errors.New("decode login response: unexpected EOF"))
	assert.Equal(t, "decode login response: unexpected EOF", unknown.Detail)
	assert.NotContains(t, unknown.Message, "EOF")

	for _, err := range []error{auth.ErrInvalidCredentials, auth.ErrNetwork, auth.ErrServer} {
		assert.Empty(t, Classify(err).Detail, "detail for %v", err)
	}
}

func TestClassify_Nil(t *testing.T) {
	c := Classify(nil)
	assert.Equal(t, KindUnknownFailure, c.Kind)
	assert.Empty(t, c.Detail)
}

func TestForKind_FixedTable(t *testing.T) {
	want := map[Kind][2]string{
		KindInvalidCredentials: {"ログインエラー", "IDまたはパスワードが正しくありません。"},
		KindNetworkFailure:     {"ネットワークエラー", "通信に失敗しました。ネットワークの状態を確認して下さい。"},
		KindServerFailure:      {"サーバーエラー", "しばらくしてからもう一度お試し下さい。"},
		KindUnknownFailure:     {"システムエラー", "エラーが発生しました。"},
	}
	for k, tm := range want {
		c := ForKind(k)
		assert.Equal(t, tm[0], c.Title, k.String())
		assert.Equal(t, tm[1], c.Message, k.String())
	}

	assert.Equal(t, KindUnknownFailure, ForKind(Kind(42)).Kind)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "invalid_credentials", KindInvalidCredentials.String())
	assert.Equal(t, "network_failure", KindNetworkFailure.String())
	assert.Equal(t, "server_failure", KindServerFailure.String())
	assert.Equal(t, "unknown_failure", KindUnknownFailure.String())
	assert.Equal(t, "unknown_failure", Kind(99).String())
}
