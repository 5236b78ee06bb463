package appctx

import "context"

// ContextKey is the shared type for all context keys in this codebase.
// Keeping it in a tiny package avoids import cycles (config <-> utils).
type ContextKey string

func (c ContextKey) String() string { return string(c) }

var (
	ContextKeyCompanyId     = ContextKey("CompanyId")
	ContextKeyUserId        = ContextKey("UserId")
	ContextKeyUsername      = ContextKey("Username")
	ContextKeyCorrelationId = ContextKey("CorrelationId")

	// ContextKeyIsAdmin is true for platform admins. Used for tenant-scope bypass.
	ContextKeyIsAdmin = ContextKey("IsAdmin")
)

// RequestContext carries the acting user and the tenant a settlement call runs
// under. Workflows take it explicitly instead of reading ambient auth state.
type RequestContext struct {
	ActorId   int
	CompanyId int
}

func (rc RequestContext) Valid() bool {
	return rc.ActorId > 0 && rc.CompanyId > 0
}

// FromContext rebuilds a RequestContext from transport-level context values.
func FromContext(ctx context.Context) (RequestContext, bool) {
	actor, ok1 := GetInt(ctx, ContextKeyUserId)
	company, ok2 := GetInt(ctx, ContextKeyCompanyId)
	return RequestContext{ActorId: actor, CompanyId: company}, ok1 && ok2
}

func GetString(ctx context.Context, key ContextKey) (string, bool) {
	v, ok := ctx.Value(key).(string)
	return v, ok
}

func GetBool(ctx context.Context, key ContextKey) (bool, bool) {
	v, ok := ctx.Value(key).(bool)
	return v, ok
}

func GetInt(ctx context.Context, key ContextKey) (int, bool) {
	v, ok := ctx.Value(key).(int)
	return v, ok
}

func Set(ctx context.Context, key ContextKey, value any) context.Context {
	return context.WithValue(ctx, key, value)
}
