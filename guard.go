package await

// A CallbackGuard invalidates late callbacks. Adapters that bridge external
// callback-style APIs take a GuardToken before arming the callback; once the
// guard is blocked — typically because the scope that armed the callback has
// been torn down — the token reports blocked and the callback must return
// without touching any freed state.
type CallbackGuard struct {
	blocked *bool
}

// NewCallbackGuard returns an unblocked guard.
func NewCallbackGuard() *CallbackGuard {
	blocked := false
	return &CallbackGuard{blocked: &blocked}
}

// Token returns a token sharing the guard's blocked flag. Tokens remain
// readable after the guard itself is gone.
func (g *CallbackGuard) Token() GuardToken {
	return GuardToken{blocked: g.blocked}
}

// Block marks every outstanding token blocked. Callers owning a guard should
// defer Block when the guarded scope exits.
func (g *CallbackGuard) Block() {
	*g.blocked = true
}

// A GuardToken is a read-only view of a CallbackGuard's state.
type GuardToken struct {
	blocked *bool
}

// Blocked reports whether the guard has been blocked. The zero token reports
// blocked.
func (t GuardToken) Blocked() bool {
	return t.blocked == nil || *t.blocked
}
