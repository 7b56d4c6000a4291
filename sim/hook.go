package sim

// HookPos names a point where a Hookable invokes its hooks.
type HookPos struct {
	Name string
}

// HookCtx describes the site that invokes a hook.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   any
	Detail any
}

// Hookable is an object that hooks can observe.
type Hookable interface {
	AcceptHook(hook Hook)
	NumHooks() int
	InvokeHook(ctx HookCtx)
}

// A Hook observes a Hookable.
type Hook interface {
	Func(ctx HookCtx)
}

// HookableBase keeps the hooks of a Hookable and invokes them in the order
// they were accepted.
type HookableBase struct {
	Hooks []Hook
}

// AcceptHook adds a hook.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.Hooks = append(h.Hooks, hook)
}

// NumHooks returns the number of hooks.
func (h *HookableBase) NumHooks() int {
	return len(h.Hooks)
}

// InvokeHook calls every hook with ctx.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.Hooks {
		hook.Func(ctx)
	}
}
