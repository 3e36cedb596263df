package upower

import "codeberg.org/mutker/batterypanel/internal/errors"

const (
	ErrConnectFailed   = errors.ErrorCode("upower_connect_failed")
	ErrEnumerateFailed = errors.ErrorCode("upower_enumerate_failed")
	ErrPropertiesRead  = errors.ErrorCode("upower_properties_read_failed")
	ErrSubscribeFailed = errors.ErrorCode("upower_subscribe_failed")
	ErrWatchFailed     = errors.ErrorCode("upower_watch_failed")
)
