package rpclient

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTimeout матчится через errors.Is для любого *TimeoutError.
	ErrTimeout = errors.New("timeout")
	// ErrClosed возвращается после Close.
	ErrClosed = errors.New("client closed")
	// ErrInvalidOptions означает, что опции не кодируются в JSON-объект.
	ErrInvalidOptions = errors.New("options must encode to a JSON object")
)

// TimeoutError сообщает, что истёк бюджет ожидания ответа ("request") или подключения ("connect").
type TimeoutError struct {
	Op      string
	Command string
	After   time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Command != "" {
		return fmt.Sprintf("%s %s: timeout after %v", e.Op, e.Command, e.After)
	}
	return fmt.Sprintf("%s: timeout after %v", e.Op, e.After)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// ServerError несёт ответ с полем error. Message передаётся как есть.
type ServerError struct {
	Command string
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: server error: %s", e.Command, e.Message)
}
