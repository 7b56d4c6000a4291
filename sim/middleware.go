package sim

// A Middleware is one stage of a component's tick.
type Middleware interface {
	// Tick runs the stage once and reports if it made progress.
	Tick() bool
}

// MiddlewareHolder ticks its middlewares in the order they were added.
type MiddlewareHolder struct {
	middlewares []Middleware
}

// AddMiddleware appends a stage.
func (h *MiddlewareHolder) AddMiddleware(m Middleware) {
	h.middlewares = append(h.middlewares, m)
}

// Tick runs every stage, even after one made progress, and reports if any
// did.
func (h *MiddlewareHolder) Tick() bool {
	madeProgress := false
	for _, m := range h.middlewares {
		madeProgress = m.Tick() || madeProgress
	}

	return madeProgress
}
