package generator

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput 表示没有输入单词，不会发起任何网络请求。
	ErrEmptyInput = errors.New("no words provided")
	// ErrBusy is returned by Session.Generate while another generation is in flight.
	ErrBusy = errors.New("generation already in progress")
)

// RemoteCallError covers transport failures, non-2xx responses and timeouts.
type RemoteCallError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *RemoteCallError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: remote call failed with status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: remote call failed: %v", e.Provider, e.Err)
}

func (e *RemoteCallError) Unwrap() error { return e.Err }

// MalformedResponseError means the call succeeded but the expected field was missing or empty.
type MalformedResponseError struct {
	Provider string
	Field    string
}

func (e *MalformedResponseError) Error() string {
	p := e.Provider
	if p == "" {
		p = "llm"
	}
	return fmt.Sprintf("%s: malformed response: missing %s", p, e.Field)
}

// UserMessage 把错误转换成展示给用户的一条提示。
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrEmptyInput) {
		return "请先输入一些单词"
	}
	return "生成内容时出错，请稍后重试。" + err.Error()
}

// asGenerationError keeps typed errors and wraps anything else as a remote failure.
func asGenerationError(err error) error {
	var remote *RemoteCallError
	var malformed *MalformedResponseError
	if errors.As(err, &remote) || errors.As(err, &malformed) {
		return err
	}
	return &RemoteCallError{Provider: "llm", Err: err}
}
