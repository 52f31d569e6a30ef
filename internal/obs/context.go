package obs

import (
	"context"
	"sync"
)

type routePatternKey struct{}

type annotationsKey struct{}

// annotations collects request fields that become known after the logging
// middleware has run, such as the authenticated user.
type annotations struct {
	mu     sync.Mutex
	userID string
}

// WithRoutePattern stores the matched router pattern on the context.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, routePatternKey{}, pattern)
}

// RoutePatternFromContext extracts the route pattern from context if present.
func RoutePatternFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(routePatternKey{}).(string); ok {
		return v
	}
	return ""
}

func withAnnotations(ctx context.Context) (context.Context, *annotations) {
	a := &annotations{}
	return context.WithValue(ctx, annotationsKey{}, a), a
}

// AnnotateUser records the authenticated user for the request log line.
func AnnotateUser(ctx context.Context, userID string) {
	if ctx == nil {
		return
	}
	a, ok := ctx.Value(annotationsKey{}).(*annotations)
	if !ok {
		return
	}
	a.mu.Lock()
	a.userID = userID
	a.mu.Unlock()
}

func (a *annotations) user() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.userID
}
