package models

import "context"

type requestKey struct{}

// RequestInfo identifies the chat request a piece of work belongs to.
type RequestInfo struct {
	UserID    string
	RequestID string
}

func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestKey{}, info)
}

func RequestInfoFrom(ctx context.Context) RequestInfo {
	info, _ := ctx.Value(requestKey{}).(RequestInfo)
	return info
}
