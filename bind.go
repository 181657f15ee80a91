package params

import (
	"errors"
	"sync/atomic"
	"time"
)

// scopeReleaser is the type-erased view of a Scope held by ScopeSet.
type scopeReleaser interface {
	Release() error
	Active() bool
}

// Binding pairs a parameter with a pending override value for Bind.
type Binding struct {
	prepare func() (func() scopeReleaser, error)
}

// Value builds the Binding that parameterizes p to v when passed to Bind.
func Value[T any](p *Parameter[T], v T) Binding {
	return Binding{
		prepare: func() (func() scopeReleaser, error) {
			if p == nil {
				return nil, errors.New("params: binding has no parameter")
			}
			if p.released.Load() {
				return nil, releasedError(p.label())
			}
			converted, err := p.convertValue(v)
			if err != nil {
				return nil, err
			}
			ctx := CurrentContext()
			return func() scopeReleaser {
				return p.pushConverted(ctx, converted, time.Now())
			}, nil
		},
	}
}

// ScopeSet is the guard for a group of scopes entered together by Bind.
type ScopeSet struct {
	scopes   []scopeReleaser
	released atomic.Bool
}

// Bind enters one scope per binding under a single guard. All converters run
// before any stack changes, so a single rejection leaves every parameter
// untouched. Scopes are entered in argument order and released in reverse.
func Bind(bindings ...Binding) (*ScopeSet, error) {
	pushes := make([]func() scopeReleaser, 0, len(bindings))
	for _, binding := range bindings {
		if binding.prepare == nil {
			continue
		}
		push, err := binding.prepare()
		if err != nil {
			return nil, err
		}
		pushes = append(pushes, push)
	}
	set := &ScopeSet{scopes: make([]scopeReleaser, 0, len(pushes))}
	for _, push := range pushes {
		set.scopes = append(set.scopes, push())
	}
	return set, nil
}

// Release exits the bound scopes in reverse entry order. Individual failures
// do not stop the sweep; they are joined into the returned error. A second
// Release fails with ErrScopeReleased.
func (s *ScopeSet) Release() error {
	if !s.released.CompareAndSwap(false, true) {
		return newProtocolError("", CurrentContext(), ErrScopeReleased)
	}
	var errs []error
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if err := s.scopes[i].Release(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

// Active reports whether the set still holds its stack entries.
func (s *ScopeSet) Active() bool {
	return !s.released.Load()
}

// Len reports how many scopes the set holds.
func (s *ScopeSet) Len() int {
	return len(s.scopes)
}

// WithBindings runs fn with every binding in effect, releasing the whole set
// on the way out, panics included.
func WithBindings(bindings []Binding, fn func() error) (err error) {
	set, berr := Bind(bindings...)
	if berr != nil {
		return berr
	}
	defer func() {
		if rerr := set.Release(); rerr != nil {
			err = errors.Join(err, rerr)
		}
	}()
	if fn == nil {
		return nil
	}
	return fn()
}
