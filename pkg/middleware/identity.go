package middleware

import (
	"context"
	"encoding/json"
	"net/http"
)

type contextKeyType string

const (
	customerIDKey contextKeyType = "customer_id"
	roleKey       contextKeyType = "role"
)

// Role constants as stamped by the gateway.
const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
	RoleAdmin    = "admin"
)

// Identity extracts the caller identity stamped by the API gateway
// (X-User-ID and X-User-Role headers) into the request context. Token
// validation happens at the gateway; services behind it trust these headers.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := r.Header.Get("X-User-ID"); id != "" {
			ctx = context.WithValue(ctx, customerIDKey, id)
		}
		if role := r.Header.Get("X-User-Role"); role != "" {
			ctx = context.WithValue(ctx, roleKey, role)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireCustomer rejects requests that carry no caller identity with 401.
func RequireCustomer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CustomerIDFromContext(r.Context()) == "" {
			writeIdentityError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireStaff rejects unauthenticated requests with 401 and authenticated
// non-staff callers with 403.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if CustomerIDFromContext(ctx) == "" && RoleFromContext(ctx) == "" {
			writeIdentityError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
			return
		}
		switch RoleFromContext(ctx) {
		case RoleStaff, RoleAdmin:
			next.ServeHTTP(w, r)
		default:
			writeIdentityError(w, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
		}
	})
}

// CustomerIDFromContext extracts the caller's user ID from the request context.
func CustomerIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(customerIDKey).(string); ok {
		return id
	}
	return ""
}

// RoleFromContext extracts the caller's role from the request context.
func RoleFromContext(ctx context.Context) string {
	if role, ok := ctx.Value(roleKey).(string); ok {
		return role
	}
	return ""
}

func writeIdentityError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
