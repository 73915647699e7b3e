package errors

// Semantic constructors for the HTTP statuses the application deals in

func BadRequest(format string, args ...any) *Error {
	return New(400, format, args...)
}

func Unauthorized(format string, args ...any) *Error {
	return New(401, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return New(403, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return New(404, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return New(409, format, args...)
}

func UnprocessableEntity(format string, args ...any) *Error {
	return New(422, format, args...)
}

func Internal(format string, args ...any) *Error {
	return New(500, format, args...)
}

func ServiceUnavailable(format string, args ...any) *Error {
	return New(503, format, args...)
}

// IsUnauthorized reports whether err carries a 401 status
func IsUnauthorized(err error) bool {
	return Code(err) == 401
}

// IsNotFound reports whether err carries a 404 status
func IsNotFound(err error) bool {
	return Code(err) == 404
}
