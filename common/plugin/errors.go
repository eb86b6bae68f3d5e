package plugin

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownSourceType    = errors.New("unknown source type")
	ErrPluginLoad           = errors.New("plugin load failed")
	ErrContractViolation    = errors.New("plugin does not satisfy category contract")
	ErrIntegrity            = errors.New("plugin integrity check failed")
	ErrUnsupportedOperation = errors.New("operation not supported")
	ErrInvalidSource        = errors.New("invalid source descriptor")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrDuplicateEntrypoint  = errors.New("entrypoint already registered")
)

// AccessError 获取客户端失败时返回给调用方的统一错误
type AccessError struct {
	Category   Category
	PluginName string
	Err        error
}

func (e *AccessError) Error() string {
	if e.PluginName == "" {
		return fmt.Sprintf("get %s client: %v", e.Category, e.Err)
	}
	return fmt.Sprintf("get %s client for plugin %s: %v", e.Category, e.PluginName, e.Err)
}

func (e *AccessError) Unwrap() error {
	return e.Err
}

// Unsupported 构造一个 ErrUnsupportedOperation 错误
func Unsupported(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedOperation, fmt.Sprintf(format, args...))
}
