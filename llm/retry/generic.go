package retry

import "context"

// DoWithResultTyped is a type-safe generic wrapper around Retryer.DoWithResult.
// On failure the zero value of T is returned; callers that need the last
// attempt's value should capture it inside fn.
//
//	resp, err := retry.DoWithResultTyped[*Response](r, ctx, func() (*Response, error) {
//	    return send(ctx)
//	})
func DoWithResultTyped[T any](r Retryer, ctx context.Context, fn func() (T, error)) (T, error) {
	result, err := r.DoWithResult(ctx, func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}
