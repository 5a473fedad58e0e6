package services

import "context"

type contextKey string

const (
	jobIDKey         contextKey = "job_id"
	applicationIDKey contextKey = "application_id"
	stageKey         contextKey = "stage"
	requestIDKey     contextKey = "request_id"
)

// WithJobID annotates context with the job identifier.
func WithJobID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, jobIDKey, id)
}

// JobIDFromContext extracts the job identifier if present.
func JobIDFromContext(ctx context.Context) (int64, bool) {
	return int64FromContext(ctx, jobIDKey)
}

// WithApplicationID annotates context with the application identifier.
func WithApplicationID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, applicationIDKey, id)
}

// ApplicationIDFromContext extracts the application identifier if present.
func ApplicationIDFromContext(ctx context.Context) (int64, bool) {
	return int64FromContext(ctx, applicationIDKey)
}

// WithStage annotates context with the stage number being processed.
func WithStage(ctx context.Context, stage int) context.Context {
	if stage <= 0 {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage number if present.
func StageFromContext(ctx context.Context) (int, bool) {
	if v, ok := ctx.Value(stageKey).(int); ok && v > 0 {
		return v, true
	}
	return 0, false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

func int64FromContext(ctx context.Context, key contextKey) (int64, bool) {
	v := ctx.Value(key)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}
