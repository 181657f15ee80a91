package activity

import (
	"strconv"
	"strings"
	"time"
)

// ParamEventInput describes the common fields for parameter lifecycle events.
// Context is the execution context the operation ran in; Depth the stack
// depth after it.
type ParamEventInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	Channel    string
	Metadata   map[string]any
	Param      string
	ParamID    string
	Context    int64
	Depth      int
	OldValue   any
	NewValue   any
	OccurredAt time.Time
}

// BuildParamSetEvent constructs an activity event for an in-place set.
func BuildParamSetEvent(input ParamEventInput) Event {
	return buildParamEvent("param.set", "param", input)
}

// BuildScopeEnteredEvent constructs an activity event for a scoped override
// being pushed.
func BuildScopeEnteredEvent(input ParamEventInput) Event {
	return buildParamEvent("param.scope.entered", "param.scope", input)
}

// BuildScopeExitedEvent constructs an activity event for a scoped override
// being popped.
func BuildScopeExitedEvent(input ParamEventInput) Event {
	return buildParamEvent("param.scope.exited", "param.scope", input)
}

// BuildParamReleasedEvent constructs an activity event for parameter
// teardown.
func BuildParamReleasedEvent(input ParamEventInput) Event {
	return buildParamEvent("param.released", "param", input)
}

func buildParamEvent(verb, objectType string, input ParamEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.Param != "" {
		metadata = ensureMetadata(metadata)
		metadata["param"] = input.Param
	}
	if input.ParamID != "" {
		metadata = ensureMetadata(metadata)
		metadata["param_id"] = input.ParamID
	}
	if input.Context != 0 {
		metadata = ensureMetadata(metadata)
		metadata["context"] = strconv.FormatInt(input.Context, 10)
	}
	if input.Depth > 0 {
		metadata = ensureMetadata(metadata)
		metadata["depth"] = input.Depth
	}
	if input.OldValue != nil {
		metadata = ensureMetadata(metadata)
		metadata["old_value"] = input.OldValue
	}
	if input.NewValue != nil {
		metadata = ensureMetadata(metadata)
		metadata["new_value"] = input.NewValue
	}

	objectID := strings.TrimSpace(input.Param)
	if objectID == "" {
		objectID = strings.TrimSpace(input.ParamID)
	}
	if objectID == "" {
		objectID = objectType
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
