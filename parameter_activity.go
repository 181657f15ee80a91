package params

import (
	"context"

	"github.com/goliatone/go-params/pkg/activity"
)

// Aliases keep the activity wiring out of the core parameter files.
type (
	paramHooks     = activity.Hooks
	activityConfig = activity.Config
	paramEmitter   = activity.Emitter
)

// WithActivityHooks attaches activity hooks to the parameter. Hooks are
// cloned and nil entries dropped. State-changing operations fan out to them:
// sets, scope entries and exits, and the final release.
func WithActivityHooks[T any](hooks activity.Hooks) Option[T] {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *paramConfig[T]) {
		cfg.hooks = normalized
		cfg.hasActivity = len(normalized) > 0
	}
}

// WithActivityConfig overrides emission defaults such as the channel. Without
// it, attaching hooks enables emission on the "params" channel.
func WithActivityConfig[T any](config activity.Config) Option[T] {
	return func(cfg *paramConfig[T]) {
		cfg.activityCfg = config
		cfg.hasActConfig = true
	}
}

// ActivityHooks returns a cloned slice of the hooks configured on the
// parameter. The returned slice can be safely mutated by the caller.
func (p *Parameter[T]) ActivityHooks() activity.Hooks {
	if p == nil {
		return nil
	}
	return cloneActivityHooks(p.cfg.hooks)
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}

func buildEmitter[T any](cfg paramConfig[T]) *activity.Emitter {
	if !cfg.hasActivity {
		return nil
	}
	config := cfg.activityCfg
	if !cfg.hasActConfig {
		config = activity.Config{Enabled: true}
	}
	return activity.NewEmitter(cfg.hooks, config)
}

func (p *Parameter[T]) emitEvent(build func(activity.ParamEventInput) activity.Event, ctx ContextID, depth int, oldValue, newValue any) {
	if !p.emitter.Enabled() {
		return
	}
	input := activity.ParamEventInput{
		Param:    p.name,
		ParamID:  p.id.String(),
		Context:  int64(ctx),
		Depth:    depth,
		OldValue: oldValue,
		NewValue: newValue,
	}
	if err := p.emitter.Emit(context.Background(), build(input)); err != nil {
		p.logEvent(OpActivity, ctx, depth, 0, err)
	}
}

func (p *Parameter[T]) emitSet(ctx ContextID, depth int, oldValue, newValue any) {
	p.emitEvent(activity.BuildParamSetEvent, ctx, depth, oldValue, newValue)
}

func (p *Parameter[T]) emitScopeEnter(ctx ContextID, depth int, oldValue, newValue any) {
	p.emitEvent(activity.BuildScopeEnteredEvent, ctx, depth, oldValue, newValue)
}

func (p *Parameter[T]) emitScopeExit(ctx ContextID, depth int, oldValue, newValue any) {
	p.emitEvent(activity.BuildScopeExitedEvent, ctx, depth, oldValue, newValue)
}

func (p *Parameter[T]) emitReleased(ctx ContextID) {
	p.emitEvent(activity.BuildParamReleasedEvent, ctx, 0, nil, nil)
}
