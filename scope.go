package params

import (
	"errors"
	"sync/atomic"
	"time"
)

// Scope is the guard for one scoped override. It records which parameter,
// execution context, and stack position it belongs to; Release pops exactly
// that entry. Scopes are not reusable and do not travel between contexts.
type Scope[T any] struct {
	param    *Parameter[T]
	ctx      ContextID
	serial   uint64
	depth    int
	value    T
	released atomic.Bool
}

// Parameterize pushes a scoped override in the calling context and returns
// the guard that removes it. The converter runs first; a rejected value means
// no guard and no state change. Pair every guard with a deferred or
// explicitly ordered Release, or use With for the block form.
func (p *Parameter[T]) Parameterize(v T) (*Scope[T], error) {
	start := time.Now()
	if p.released.Load() {
		return nil, releasedError(p.label())
	}
	ctx := CurrentContext()
	converted, err := p.convertValue(v)
	if err != nil {
		p.logEvent(OpScopeEnter, ctx, 0, time.Since(start), err)
		return nil, err
	}
	return p.pushConverted(ctx, converted, start), nil
}

func (p *Parameter[T]) pushConverted(ctx ContextID, converted T, start time.Time) *Scope[T] {
	c := p.cellFor(ctx)
	previous := c.top().value
	serial := p.serial.Add(1)
	c.entries = append(c.entries, entry[T]{value: converted, serial: serial})
	scope := &Scope[T]{
		param:  p,
		ctx:    ctx,
		serial: serial,
		depth:  len(c.entries),
		value:  converted,
	}
	p.logEvent(OpScopeEnter, ctx, scope.depth, time.Since(start), nil)
	p.emitScopeEnter(ctx, scope.depth, previous, converted)
	return scope
}

// Release pops the entry this scope pushed, restoring whatever the entry
// below holds. It must run in the context that entered the scope, exactly
// once, and only while the scope is the innermost one; every violation is a
// ProtocolError and leaves the stack untouched.
func (s *Scope[T]) Release() error {
	p := s.param
	if s.released.Load() {
		return newProtocolError(p.label(), s.ctx, ErrScopeReleased)
	}
	if current := CurrentContext(); current != s.ctx {
		return newProtocolError(p.label(), current, ErrScopeWrongContext)
	}
	if p.released.Load() {
		return releasedError(p.label())
	}
	raw, ok := p.cells.Load(s.ctx)
	if !ok {
		return newProtocolError(p.label(), s.ctx, ErrContextReleased)
	}
	c := raw.(*cell[T])
	if len(c.entries) != s.depth || c.top().serial != s.serial {
		return newProtocolError(p.label(), s.ctx, ErrScopeOutOfOrder)
	}
	dropped := c.top().value
	c.entries = c.entries[:len(c.entries)-1]
	s.released.Store(true)
	p.logEvent(OpScopeExit, s.ctx, len(c.entries), 0, nil)
	p.emitScopeExit(s.ctx, len(c.entries), dropped, c.top().value)
	return nil
}

// Active reports whether the scope still holds its stack entry.
func (s *Scope[T]) Active() bool {
	return !s.released.Load()
}

// Context returns the execution context that entered the scope.
func (s *Scope[T]) Context() ContextID {
	return s.ctx
}

// Value returns the converted value the scope pushed.
func (s *Scope[T]) Value() T {
	return s.value
}

// With runs fn with the parameter overridden to value, releasing the override
// on every exit path out of fn, including a panic unwinding through it. A
// release failure caused by fn, such as a leaked inner scope, is joined onto
// fn's error.
func (p *Parameter[T]) With(value T, fn func() error) (err error) {
	scope, perr := p.Parameterize(value)
	if perr != nil {
		return perr
	}
	defer func() {
		if rerr := scope.Release(); rerr != nil {
			err = errors.Join(err, rerr)
		}
	}()
	if fn == nil {
		return nil
	}
	return fn()
}
