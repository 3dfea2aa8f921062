// Package meta provides functionality for carrying operation metadata through context.
package meta

import (
	"context"

	"github.com/code19m/errx"
)

// ContextKey is a type for keys used in context values for metadata.
type ContextKey string

const (
	// TraceID correlates log lines and spans of a single operation.
	TraceID ContextKey = "trace_id"

	// ActorID identifies the already authenticated user an operation runs for.
	ActorID ContextKey = "actor_id"

	// ActorType indicates the kind of caller (user, service, ...).
	ActorType ContextKey = "actor_type"

	// Operation is the name of the storage operation being executed.
	Operation ContextKey = "operation"

	// ServiceName identifies the name of current running service.
	ServiceName ContextKey = "service_name"

	// ServiceVersion indicates the version of the service.
	ServiceVersion ContextKey = "service_version"
)

const codeMetaNotFound = "META_NOT_FOUND"

//nolint:gochecknoglobals // fixed key set
var allKeys = []ContextKey{
	TraceID,
	ActorID,
	ActorType,
	Operation,
	ServiceName,
	ServiceVersion,
}

// InjectMetaToContext adds metadata from the provided map to the context.
// Empty values are skipped.
func InjectMetaToContext(ctx context.Context, data map[ContextKey]string) context.Context {
	for k, v := range data {
		if v != "" {
			ctx = context.WithValue(ctx, k, v) //nolint:fatcontext // allow due to finite number of keys
		}
	}
	return ctx
}

// ExtractMetaFromContext returns all non-empty predefined metadata values found in ctx.
func ExtractMetaFromContext(ctx context.Context) map[ContextKey]string {
	data := make(map[ContextKey]string)
	for _, k := range allKeys {
		if v, ok := ctx.Value(k).(string); ok && v != "" {
			data[k] = v
		}
	}
	return data
}

// ShouldGetMeta returns the string value stored under key.
// It fails when the key is missing or holds a non-string value.
func ShouldGetMeta(ctx context.Context, key ContextKey) (string, error) {
	raw := ctx.Value(key)
	if raw == nil {
		return "", errx.New(
			"[meta]: key not found in context",
			errx.WithCode(codeMetaNotFound),
			errx.WithDetails(errx.D{"key": string(key)}),
		)
	}

	v, ok := raw.(string)
	if !ok {
		return "", errx.New(
			"[meta]: type mismatch, expected string",
			errx.WithCode(codeMetaNotFound),
			errx.WithDetails(errx.D{"key": string(key)}),
		)
	}

	return v, nil
}
