package httpapi

// Result is the response envelope of every JSON endpoint.
// - code: ResultSuccess or ResultError
// - type: "success" | "error" | "warning"
// - message: human readable outcome
// - result: payload, nil on error unless details are attached
type Result[T any] struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Result  T      `json:"result"`
}

const (
	ResultSuccess = 2000
	ResultError   = -1
)

func Ok[T any](result T) Result[T] {
	return Result[T]{Code: ResultSuccess, Type: "success", Message: "ok", Result: result}
}

func Fail(message string) Result[any] {
	return Result[any]{Code: ResultError, Type: "error", Message: message, Result: nil}
}

func FailWithDetails(message string, details any) Result[any] {
	return Result[any]{Code: ResultError, Type: "error", Message: message, Result: details}
}

// Warn reports a completed operation with a degraded side effect.
func Warn[T any](message string, result T) Result[T] {
	return Result[T]{Code: ResultSuccess, Type: "warning", Message: message, Result: result}
}
