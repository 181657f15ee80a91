package activity

import (
	"context"
	"testing"
)

func TestBuildParamSetEventIncludesTransitionMetadata(t *testing.T) {
	meta := map[string]any{"custom": "value"}
	input := ParamEventInput{
		ActorID:  " actor ",
		UserID:   " user ",
		TenantID: " tenant ",
		Param:    "server.timeout",
		ParamID:  "id-1",
		Context:  7,
		Depth:    2,
		OldValue: 30,
		NewValue: 60,
		Metadata: meta,
		Channel:  "params",
	}

	event := BuildParamSetEvent(input)

	if event.Verb != "param.set" {
		t.Fatalf("expected verb param.set got %s", event.Verb)
	}
	if event.ObjectType != "param" || event.ObjectID != "server.timeout" {
		t.Fatalf("unexpected object fields: %+v", event)
	}
	if event.ActorID != "actor" || event.UserID != "user" || event.TenantID != "tenant" {
		t.Fatalf("unexpected identity fields: %+v", event)
	}
	if event.Metadata["param"] != "server.timeout" || event.Metadata["param_id"] != "id-1" {
		t.Fatalf("expected parameter metadata, got %+v", event.Metadata)
	}
	if event.Metadata["context"] != "7" {
		t.Fatalf("expected context metadata, got %v", event.Metadata["context"])
	}
	if event.Metadata["depth"] != 2 {
		t.Fatalf("expected depth metadata, got %v", event.Metadata["depth"])
	}
	if event.Metadata["old_value"] != 30 || event.Metadata["new_value"] != 60 {
		t.Fatalf("expected old/new values, got %v %v", event.Metadata["old_value"], event.Metadata["new_value"])
	}
	if event.Metadata["custom"] != "value" {
		t.Fatalf("expected caller metadata preserved, got %+v", event.Metadata)
	}
	event.Metadata["custom"] = "changed"
	if meta["custom"] != "value" {
		t.Fatalf("expected input metadata untouched")
	}
}

func TestBuildScopeEventsUseScopeObjectType(t *testing.T) {
	entered := BuildScopeEnteredEvent(ParamEventInput{Param: "indent"})
	if entered.Verb != "param.scope.entered" || entered.ObjectType != "param.scope" {
		t.Fatalf("unexpected entered event: %+v", entered)
	}
	exited := BuildScopeExitedEvent(ParamEventInput{Param: "indent"})
	if exited.Verb != "param.scope.exited" || exited.ObjectType != "param.scope" {
		t.Fatalf("unexpected exited event: %+v", exited)
	}
}

func TestBuildParamEventObjectIDFallbacks(t *testing.T) {
	anonymous := BuildParamReleasedEvent(ParamEventInput{ParamID: "id-9"})
	if anonymous.ObjectID != "id-9" {
		t.Fatalf("expected parameter id fallback, got %q", anonymous.ObjectID)
	}
	empty := BuildParamReleasedEvent(ParamEventInput{})
	if empty.ObjectID != "param" {
		t.Fatalf("expected object type fallback, got %q", empty.ObjectID)
	}
}

func TestBuildParamEventsWorkWithHooks(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{capture}

	event := BuildParamSetEvent(ParamEventInput{
		Param:    "log.level",
		OldValue: "info",
		NewValue: "debug",
	})
	if err := hooks.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected capture to record event, got %d", len(capture.Events))
	}
	if capture.Events[0].Verb != "param.set" {
		t.Fatalf("expected verb param.set, got %s", capture.Events[0].Verb)
	}
}
