package params

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Parameter is a binding location in the dynamic environment: one converted
// default shared by every execution context, plus an override stack per
// context that has touched it. Contexts never observe each other's overrides.
type Parameter[T any] struct {
	id      uuid.UUID
	name    string
	def     T
	convert Converter[T]
	catalog *Catalog
	emitter *paramEmitter
	cfg     paramConfig[T]

	serial   atomic.Uint64
	released atomic.Bool
	cells    sync.Map // ContextID -> *cell[T]
}

// cell is one context's override stack. The base entry carries the default;
// only the owning context mutates a cell after creation, so entries need no
// locking.
type cell[T any] struct {
	entries []entry[T]
}

type entry[T any] struct {
	value  T
	serial uint64
}

func (c *cell[T]) top() *entry[T] {
	return &c.entries[len(c.entries)-1]
}

// Option configures a Parameter at construction.
type Option[T any] func(*paramConfig[T])

type paramConfig[T any] struct {
	name         string
	convert      Converter[T]
	catalog      *Catalog
	logger       EventLogger
	hooks        paramHooks
	activityCfg  activityConfig
	hasActivity  bool
	hasActConfig bool
}

func applyOptions[T any](opts []Option[T]) paramConfig[T] {
	cfg := paramConfig[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithName registers the parameter under name in the catalog. Named
// parameters must be unique per catalog; the name frees up again on Release.
func WithName[T any](name string) Option[T] {
	return func(cfg *paramConfig[T]) {
		cfg.name = name
	}
}

// WithConverter runs convert ahead of every mutation, including the default
// at construction. A rejecting converter leaves all parameter state
// untouched.
func WithConverter[T any](convert Converter[T]) Option[T] {
	return func(cfg *paramConfig[T]) {
		if convert == nil {
			return
		}
		cfg.convert = convert
	}
}

// WithCatalog registers the parameter in catalog instead of the default one.
// Only meaningful together with WithName.
func WithCatalog[T any](catalog *Catalog) Option[T] {
	return func(cfg *paramConfig[T]) {
		cfg.catalog = catalog
	}
}

// New constructs a Parameter with the supplied default. The converter, when
// configured, validates the default before the parameter exists; a rejected
// default yields a ValidationError and no parameter. Named parameters are
// registered in the catalog as part of construction.
func New[T any](def T, opts ...Option[T]) (*Parameter[T], error) {
	cfg := applyOptions(opts)
	p := &Parameter[T]{
		id:      uuid.New(),
		name:    cfg.name,
		convert: cfg.convert,
		emitter: buildEmitter(cfg),
		cfg:     cfg,
	}

	converted, err := p.convertValue(def)
	if err != nil {
		return nil, err
	}
	p.def = converted

	if p.name != "" {
		catalog := cfg.catalog
		if catalog == nil {
			catalog = defaultCatalog
		}
		if err := catalog.register(p); err != nil {
			return nil, err
		}
		p.catalog = catalog
	}
	return p, nil
}

// Must panics when err is non-nil. It supports package-level construction:
//
//	var indent = params.Must(params.New(4))
func Must[T any](p *Parameter[T], err error) *Parameter[T] {
	if err != nil {
		panic(err)
	}
	return p
}

// Name returns the catalog name, empty for anonymous parameters.
func (p *Parameter[T]) Name() string {
	return p.name
}

// ID returns the parameter's process-unique identity.
func (p *Parameter[T]) ID() uuid.UUID {
	return p.id
}

func (p *Parameter[T]) label() string {
	if p.name != "" {
		return p.name
	}
	return p.id.String()
}

func (p *Parameter[T]) convertValue(v T) (T, error) {
	if p.convert == nil {
		return v, nil
	}
	converted, err := p.convert(v)
	if err != nil {
		var zero T
		return zero, wrapValidationError(p.label(), v, err)
	}
	return converted, nil
}

// cellFor returns the calling context's stack, materializing it from the
// default on first touch and recording the context for teardown.
func (p *Parameter[T]) cellFor(ctx ContextID) *cell[T] {
	if existing, ok := p.cells.Load(ctx); ok {
		return existing.(*cell[T])
	}
	fresh := &cell[T]{entries: []entry[T]{{value: p.def}}}
	actual, loaded := p.cells.LoadOrStore(ctx, fresh)
	if !loaded {
		execIndex.note(ctx, p)
	}
	return actual.(*cell[T])
}

func (p *Parameter[T]) dropContext(ctx ContextID) {
	p.cells.Delete(ctx)
}

// Get returns the effective value in the calling context: the top of the
// context's stack, or the default when the context holds no overrides. Get
// panics once the parameter has been released; Lookup is the error-returning
// form.
func (p *Parameter[T]) Get() T {
	v, err := p.Lookup()
	if err != nil {
		panic(err)
	}
	return v
}

// Lookup returns the effective value in the calling context, failing with
// ErrReleased when the parameter no longer exists.
func (p *Parameter[T]) Lookup() (T, error) {
	var zero T
	if p.released.Load() {
		return zero, releasedError(p.label())
	}
	ctx := CurrentContext()
	c := p.cellFor(ctx)
	if p.released.Load() {
		// Release raced the lazy materialization; drop the stray stack.
		p.cells.Delete(ctx)
		return zero, releasedError(p.label())
	}
	return c.top().value, nil
}

// Peek reports the calling context's effective value without materializing a
// stack for contexts that never touched the parameter.
func (p *Parameter[T]) Peek() (any, error) {
	if p.released.Load() {
		return nil, releasedError(p.label())
	}
	if raw, ok := p.cells.Load(CurrentContext()); ok {
		return raw.(*cell[T]).top().value, nil
	}
	return p.def, nil
}

// Set replaces the value in the calling context's top entry in place. Inside
// a scope the mutation lives and dies with that scope's entry; outside any
// scope it replaces the context's base value for good. Other contexts are
// unaffected.
func (p *Parameter[T]) Set(v T) error {
	start := time.Now()
	if p.released.Load() {
		return releasedError(p.label())
	}
	ctx := CurrentContext()
	converted, err := p.convertValue(v)
	if err != nil {
		p.logEvent(OpSet, ctx, 0, time.Since(start), err)
		return err
	}
	c := p.cellFor(ctx)
	top := c.top()
	previous := top.value
	top.value = converted
	p.logEvent(OpSet, ctx, len(c.entries), time.Since(start), nil)
	p.emitSet(ctx, len(c.entries), previous, converted)
	return nil
}

// Call is the classic parameter call protocol: no arguments reads the
// effective value, one argument sets it and returns the converted result,
// anything more fails with ErrTooManyArgs.
func (p *Parameter[T]) Call(args ...T) (T, error) {
	switch len(args) {
	case 0:
		return p.Lookup()
	case 1:
		if err := p.Set(args[0]); err != nil {
			var zero T
			return zero, err
		}
		return p.Lookup()
	default:
		var zero T
		return zero, fmt.Errorf("%s: %w", describeParam(p.label()), ErrTooManyArgs)
	}
}

// Released reports whether the parameter has been torn down.
func (p *Parameter[T]) Released() bool {
	return p.released.Load()
}

// Release tears the parameter down: every context's stack is dropped, the
// catalog entry is removed, and all further operations fail with ErrReleased,
// proxies included. Scopes still active on any stack become unreleasable.
// A second Release fails with ErrReleased.
func (p *Parameter[T]) Release() error {
	if !p.released.CompareAndSwap(false, true) {
		return releasedError(p.label())
	}
	if p.catalog != nil {
		p.catalog.unregister(p.name, p.id)
	}
	execIndex.forget(p)
	p.cells.Range(func(key, _ any) bool {
		p.cells.Delete(key)
		return true
	})
	ctx := CurrentContext()
	p.logEvent(OpRelease, ctx, 0, 0, nil)
	p.emitReleased(ctx)
	return nil
}

func (p *Parameter[T]) eventLogger() EventLogger {
	if p.cfg.logger != nil {
		return p.cfg.logger
	}
	return noopEventLogger{}
}

func (p *Parameter[T]) logEvent(op Op, ctx ContextID, depth int, duration time.Duration, err error) {
	p.eventLogger().LogParamEvent(LogEvent{
		Param:    p.label(),
		Op:       op,
		Context:  ctx,
		Depth:    depth,
		Duration: duration,
		Err:      err,
	})
}
