package auth

import (
	"context"
	"fmt"
)

// Context keys for authentication data
type contextKey string

const (
	AuthTypeKey  contextKey = "auth_type"
	SubjectKey   contextKey = "subject"
	TokenJTIKey  contextKey = "token_jti"
	RequestIDKey contextKey = "request_id"
	ScopesKey    contextKey = "scopes"
)

// ScopePaymentsWrite is required on every state-changing API route when
// authentication is enabled.
const ScopePaymentsWrite = "payments:write"

// AuthType represents the type of authentication used
type AuthType string

const (
	AuthTypeJWT  AuthType = "jwt"
	AuthTypeNone AuthType = "none"
)

// AuthInfo contains authentication information from the context
type AuthInfo struct {
	Type      AuthType
	Subject   string
	TokenJTI  string
	RequestID string
	Scopes    []string
}

// GetAuthInfo extracts authentication information from the context
func GetAuthInfo(ctx context.Context) *AuthInfo {
	info := &AuthInfo{
		Type: AuthTypeNone,
	}

	if authType, ok := ctx.Value(AuthTypeKey).(string); ok {
		info.Type = AuthType(authType)
	}
	if subject, ok := ctx.Value(SubjectKey).(string); ok {
		info.Subject = subject
	}
	if tokenJTI, ok := ctx.Value(TokenJTIKey).(string); ok {
		info.TokenJTI = tokenJTI
	}
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		info.RequestID = requestID
	}
	if scopes, ok := ctx.Value(ScopesKey).([]string); ok {
		info.Scopes = scopes
	}

	return info
}

// IsAuthenticated checks if the context contains valid authentication
func IsAuthenticated(ctx context.Context) bool {
	authType, ok := ctx.Value(AuthTypeKey).(string)
	return ok && authType != "" && authType != string(AuthTypeNone)
}

// RequireScope checks if the context has the required scope
func RequireScope(ctx context.Context, requiredScope string) error {
	scopes, ok := ctx.Value(ScopesKey).([]string)
	if !ok {
		return fmt.Errorf("no scopes in context")
	}

	for _, scope := range scopes {
		if scope == requiredScope {
			return nil
		}
	}

	return fmt.Errorf("missing required scope: %s", requiredScope)
}

// WithAuth adds authentication information to the context
func WithAuth(ctx context.Context, info *AuthInfo) context.Context {
	ctx = context.WithValue(ctx, AuthTypeKey, string(info.Type))

	if info.Subject != "" {
		ctx = context.WithValue(ctx, SubjectKey, info.Subject)
	}
	if info.TokenJTI != "" {
		ctx = context.WithValue(ctx, TokenJTIKey, info.TokenJTI)
	}
	if info.RequestID != "" {
		ctx = WithRequestID(ctx, info.RequestID)
	}
	if len(info.Scopes) > 0 {
		ctx = context.WithValue(ctx, ScopesKey, info.Scopes)
	}

	return ctx
}

// WithRequestID tags the context with a request id
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID safely extracts the request ID from the context
func GetRequestID(ctx context.Context) string {
	requestID, _ := ctx.Value(RequestIDKey).(string)
	return requestID
}
