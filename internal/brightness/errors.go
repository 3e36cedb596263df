package brightness

import "codeberg.org/mutker/batterypanel/internal/errors"

const (
	ErrHelperFailed = errors.ErrorCode("brightness_helper_failed")
	ErrHelperOutput = errors.ErrorCode("brightness_helper_output_invalid")
	ErrWriteFailed  = errors.ErrorCode("brightness_write_failed")
)
