package errors

// ErrorCode identifies an error kind. Codes are stable strings so they
// can be logged and matched.
type ErrorCode string

// Error is an error carrying a code, an optional message override,
// attached data and a cause.
type Error interface {
	error
	Code() ErrorCode
	WithMessage(msg string) Error
	WithData(data any) Error
	GetData() any
	Unwrap() error
}

// Factory builds Errors.
type Factory interface {
	New(code ErrorCode) Error
	Wrap(code ErrorCode, err error) Error
	WithMessage(code ErrorCode, msg string) Error
	WithData(code ErrorCode, data any) Error
}
