package login

import (
	"errors"

	"github.com/Dicklesworthstone/loginchallenge/internal/auth"
)

// Kind is the closed set of failure buckets shown to the user.
type Kind int

const (
	KindInvalidCredentials Kind = iota
	KindNetworkFailure
	KindServerFailure
	KindUnknownFailure
)

func (k Kind) String() string {
	switch k {
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindNetworkFailure:
		return "network_failure"
	case KindServerFailure:
		return "server_failure"
	default:
		return "unknown_failure"
	}
}

// Classification is what the user sees for a failed attempt. Detail holds
// the raw error text for diagnostics and is only set for KindUnknownFailure.
type Classification struct {
	Kind    Kind
	Title   string
	Message string
	Detail  string
}

// DismissLabel is the label of the single action on a failure notification.
const DismissLabel = "閉じる"

type notice struct {
	title   string
	message string
}

var notices = map[Kind]notice{
	KindInvalidCredentials: {"ログインエラー", "IDまたはパスワードが正しくありません。"},
	KindNetworkFailure:     {"ネットワークエラー", "通信に失敗しました。ネットワークの状態を確認して下さい。"},
	KindServerFailure:      {"サーバーエラー", "しばらくしてからもう一度お試し下さい。"},
	KindUnknownFailure:     {"システムエラー", "エラーが発生しました。"},
}

// ForKind returns the fixed classification for k without diagnostic detail.
func ForKind(k Kind) Classification {
	n, ok := notices[k]
	if !ok {
		k = KindUnknownFailure
		n = notices[k]
	}
	return Classification{Kind: k, Title: n.title, Message: n.message}
}

// Classify maps a failed LogIn error onto the fixed policy table. It is
// total: anything not matching a known sentinel becomes KindUnknownFailure.
func Classify(err error) Classification {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return ForKind(KindInvalidCredentials)
	case errors.Is(err, auth.ErrNetwork):
		return ForKind(KindNetworkFailure)
	case errors.Is(err, auth.ErrServer):
		return ForKind(KindServerFailure)
	}

	c := ForKind(KindUnknownFailure)
	if err != nil {
		c.Detail = err.Error()
	}
	return c
}
