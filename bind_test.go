package params

import (
	"errors"
	"testing"
)

func TestBindEntersAllOrNothing(t *testing.T) {
	width := Must(New(80))
	defer width.Release()
	color := Must(New("plain", WithConverter(func(v string) (string, error) {
		if v == "" {
			return "", errors.New("must not be empty")
		}
		return v, nil
	})))
	defer color.Release()

	set, err := Bind(Value(width, 120), Value(color, ""))
	if set != nil {
		t.Fatalf("expected no scope set on rejection")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if got := width.Get(); got != 80 {
		t.Fatalf("rejected bind must not touch other parameters, got %d", got)
	}

	set, err = Bind(Value(width, 120), Value(color, "ansi"))
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	if set.Len() != 2 {
		t.Fatalf("expected two scopes, got %d", set.Len())
	}
	if width.Get() != 120 || color.Get() != "ansi" {
		t.Fatalf("expected both overrides visible, got %d %q", width.Get(), color.Get())
	}

	if err := set.Release(); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if width.Get() != 80 || color.Get() != "plain" {
		t.Fatalf("expected both restored, got %d %q", width.Get(), color.Get())
	}
	if err := set.Release(); !errors.Is(err, ErrScopeReleased) {
		t.Fatalf("expected ErrScopeReleased on second release, got %v", err)
	}
}

func TestBindSameParameterTwiceReleasesInReverse(t *testing.T) {
	p := Must(New(0))
	defer p.Release()

	set, err := Bind(Value(p, 1), Value(p, 2))
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	if got := p.Get(); got != 2 {
		t.Fatalf("expected last binding on top, got %d", got)
	}
	if err := set.Release(); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if got := p.Get(); got != 0 {
		t.Fatalf("expected default restored, got %d", got)
	}
}

func TestBindReleasedParameterFails(t *testing.T) {
	p := Must(New(7))
	if err := p.Release(); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if _, err := Bind(Value(p, 9)); !errors.Is(err, ErrReleased) {
		t.Fatalf("expected ErrReleased, got %v", err)
	}
}

func TestWithBindingsRestoresOnExit(t *testing.T) {
	a := Must(New("a"))
	defer a.Release()
	b := Must(New("b"))
	defer b.Release()

	err := WithBindings([]Binding{Value(a, "A"), Value(b, "B")}, func() error {
		if a.Get() != "A" || b.Get() != "B" {
			t.Fatalf("expected overrides inside block, got %q %q", a.Get(), b.Get())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("with bindings failed: %v", err)
	}
	if a.Get() != "a" || b.Get() != "b" {
		t.Fatalf("expected values restored, got %q %q", a.Get(), b.Get())
	}
}
