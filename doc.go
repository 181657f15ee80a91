// Package params provides dynamically scoped parameters: typed mutable cells
// whose effective value can be overridden for the duration of a scope without
// threading arguments through every call in between.
//
// Each parameter holds one converted default plus an override stack per
// execution context (goroutine, under the default resolver). Reads resolve to
// the top of the calling context's stack; overrides in one context are never
// visible to another. Scoped overrides are entered with Parameterize or the
// With block form and undone by releasing the returned guard, which restores
// the exact prior value on every exit path, panics included.
//
// Data flow:
//
//	New(default, opts...) -> Parameter
//	Parameterize(v) -> Scope -> Release()
//	Proxy() -> forwarding handle resolving per operation
//
// Converters validate or normalize every incoming value before any state
// changes; expression-backed converters (expr, CEL, and goja behind the
// js_eval build tag) let the rules live in configuration. Named parameters
// register in a catalog for discovery, and activity hooks mirror
// state-changing operations into audit feeds.
package params
