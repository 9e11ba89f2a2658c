package field

import "context"

// OperationRecorder receives one event per field crypto operation. The
// CryptoMetrics recorder in internal/metrics satisfies it; tests substitute
// their own.
type OperationRecorder interface {
	RecordOperation(ctx context.Context, contextKey, operation, status string)
}

// recorderKey is the context key type for the operation recorder.
type recorderKey struct{}

// WithRecorder returns a context carrying the operation recorder. Field
// operations on contexts without a recorder record nothing.
func WithRecorder(ctx context.Context, recorder OperationRecorder) context.Context {
	return context.WithValue(ctx, recorderKey{}, recorder)
}

// boundRecorder returns the recorder carried on the context, or a no-op.
func boundRecorder(ctx context.Context) OperationRecorder {
	if recorder, ok := ctx.Value(recorderKey{}).(OperationRecorder); ok {
		return recorder
	}
	return noopRecorder{}
}

type noopRecorder struct{}

func (noopRecorder) RecordOperation(ctx context.Context, contextKey, operation, status string) {}
