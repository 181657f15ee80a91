package params

import (
	"sync"
	"sync/atomic"

	"github.com/timandy/routine"
)

// ContextID identifies one execution context. Under the default resolver it
// is the goroutine id, which the runtime never reuses within a process.
type ContextID int64

// ContextResolver supplies the identity of the calling execution context.
// Schedulers that multiplex many logical tasks onto worker goroutines can
// install a resolver keyed by task identity instead of goroutine identity.
type ContextResolver interface {
	Current() ContextID
}

// ContextResolverFunc adapts a function to ContextResolver.
type ContextResolverFunc func() ContextID

// Current implements ContextResolver.
func (f ContextResolverFunc) Current() ContextID {
	if f == nil {
		return goroutineResolver{}.Current()
	}
	return f()
}

type goroutineResolver struct{}

func (goroutineResolver) Current() ContextID {
	return ContextID(routine.Goid())
}

type resolverBox struct {
	ContextResolver
}

var activeResolver atomic.Pointer[resolverBox]

// SetContextResolver replaces the process-wide context identity source.
// Install it before any parameter is touched; stacks keyed under the previous
// resolver's identities stay where they are. Passing nil restores the default
// goroutine-id resolver.
func SetContextResolver(resolver ContextResolver) {
	if resolver == nil {
		resolver = goroutineResolver{}
	}
	activeResolver.Store(&resolverBox{resolver})
}

// CurrentContext returns the calling execution context's identity.
func CurrentContext() ContextID {
	if box := activeResolver.Load(); box != nil {
		return box.Current()
	}
	return goroutineResolver{}.Current()
}

// contextHolder is implemented by parameters so the index can drop one
// context's stack without knowing the value type.
type contextHolder interface {
	dropContext(ContextID)
}

// contextIndex records which parameters each execution context has touched so
// ReleaseContext can tear down exactly those stacks.
type contextIndex struct {
	mu      sync.Mutex
	touched map[ContextID]map[contextHolder]struct{}
}

var execIndex = &contextIndex{
	touched: make(map[ContextID]map[contextHolder]struct{}),
}

func (ix *contextIndex) note(ctx ContextID, holder contextHolder) {
	ix.mu.Lock()
	holders := ix.touched[ctx]
	if holders == nil {
		holders = make(map[contextHolder]struct{})
		ix.touched[ctx] = holders
	}
	holders[holder] = struct{}{}
	ix.mu.Unlock()
}

func (ix *contextIndex) forget(holder contextHolder) {
	ix.mu.Lock()
	for ctx, holders := range ix.touched {
		delete(holders, holder)
		if len(holders) == 0 {
			delete(ix.touched, ctx)
		}
	}
	ix.mu.Unlock()
}

func (ix *contextIndex) release(ctx ContextID) {
	ix.mu.Lock()
	holders := ix.touched[ctx]
	delete(ix.touched, ctx)
	ix.mu.Unlock()
	for holder := range holders {
		holder.dropContext(ctx)
	}
}

func (ix *contextIndex) size() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return len(ix.touched)
}

// ReleaseContext drops every parameter stack owned by the calling execution
// context. Goroutines that touch parameters outside Go must call it before
// exiting or their stacks stay resident until each parameter is released.
// Calling it with no state held is a no-op.
func ReleaseContext() {
	execIndex.release(CurrentContext())
}

// Go runs fn on a new goroutine and releases the goroutine's parameter state
// on every exit path, including a panic unwinding out of fn. The spawned
// goroutine starts from the parameter defaults; overrides never cross
// goroutines.
func Go(fn func()) {
	if fn == nil {
		return
	}
	go func() {
		defer ReleaseContext()
		fn()
	}()
}

// ActiveContexts reports how many execution contexts currently hold parameter
// state. Useful for leak assertions in tests.
func ActiveContexts() int {
	return execIndex.size()
}
