// file: internal/contextutils/context.go
package contextutils

import (
	"context"

	"didaur/internal/models"
)

// contextKey is an unexported type to avoid collisions with other packages
type contextKey string

const (
	// RequestIDKey is the context key for request IDs
	RequestIDKey contextKey = "request_id"
	// AccountKey is the context key for the authenticated account
	AccountKey contextKey = "account"
	// EmailKey is the context key for the authenticated email
	EmailKey contextKey = "email"
)

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetAccount extracts the authenticated account from context
func GetAccount(ctx context.Context) *models.Account {
	if account, ok := ctx.Value(AccountKey).(*models.Account); ok {
		return account
	}
	return nil
}

// WithAccount adds the authenticated account to the context
func WithAccount(ctx context.Context, account *models.Account) context.Context {
	ctx = context.WithValue(ctx, AccountKey, account)
	if account != nil {
		ctx = context.WithValue(ctx, EmailKey, account.Email)
	}
	return ctx
}

// GetEmail extracts the authenticated email from context
func GetEmail(ctx context.Context) string {
	if email, ok := ctx.Value(EmailKey).(string); ok {
		return email
	}
	return ""
}
