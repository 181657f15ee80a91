package params

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

func TestProxyResolvesFreshPerOperation(t *testing.T) {
	p := Must(New("initial"))
	defer p.Release()

	proxy := p.Proxy()
	if got, err := proxy.Value(); err != nil || got != "initial" {
		t.Fatalf("expected initial value, got %q (err %v)", got, err)
	}

	scope, err := p.Parameterize("scoped")
	if err != nil {
		t.Fatalf("parameterize failed: %v", err)
	}
	if got := proxy.MustValue(); got != "scoped" {
		t.Fatalf("proxy created before the scope must observe it, got %q", got)
	}
	if err := scope.Release(); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if got := proxy.MustValue(); got != "initial" {
		t.Fatalf("proxy must observe the restore, got %q", got)
	}
}

func TestProxyDoAppliesCurrentValue(t *testing.T) {
	p := Must(New(2))
	defer p.Release()

	proxy := p.Proxy()
	var seen int
	err := p.With(5, func() error {
		return proxy.Do(func(v int) error {
			seen = v
			return nil
		})
	})
	if err != nil {
		t.Fatalf("do failed: %v", err)
	}
	if seen != 5 {
		t.Fatalf("expected Do to receive the override, got %d", seen)
	}
}

func TestProxyFailsAfterParameterRelease(t *testing.T) {
	p := Must(New(1))
	proxy := p.Proxy()
	if err := p.Release(); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	if _, err := proxy.Value(); !errors.Is(err, ErrReleased) {
		t.Fatalf("expected ErrReleased from Value, got %v", err)
	}
	if err := proxy.Do(func(int) error { return nil }); !errors.Is(err, ErrReleased) {
		t.Fatalf("expected ErrReleased from Do, got %v", err)
	}
}

func TestWriterProxyFollowsScopedSink(t *testing.T) {
	sink := Must(New[io.Writer](io.Discard))
	defer sink.Release()

	out := NewWriterProxy(sink)
	var buf bytes.Buffer

	scope, err := sink.Parameterize(&buf)
	if err != nil {
		t.Fatalf("parameterize failed: %v", err)
	}
	if _, err := fmt.Fprint(out, "captured"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := scope.Release(); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if _, err := fmt.Fprint(out, "discarded"); err != nil {
		t.Fatalf("write after restore failed: %v", err)
	}

	if got := buf.String(); got != "captured" {
		t.Fatalf("expected only scoped output in buffer, got %q", got)
	}
}

func TestWriterProxyFailsAfterParameterRelease(t *testing.T) {
	sink := Must(New[io.Writer](io.Discard))
	out := NewWriterProxy(sink)
	if err := sink.Release(); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if _, err := out.Write([]byte("x")); !errors.Is(err, ErrReleased) {
		t.Fatalf("expected ErrReleased, got %v", err)
	}
}

func TestReaderProxyFollowsScopedSource(t *testing.T) {
	source := Must(New[io.Reader](strings.NewReader("default")))
	defer source.Release()

	in := NewReaderProxy(source)
	err := source.With(strings.NewReader("override"), func() error {
		data, err := io.ReadAll(in)
		if err != nil {
			return err
		}
		if string(data) != "override" {
			return fmt.Errorf("expected override content, got %q", data)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("scoped read failed: %v", err)
	}
}

type closeRecorder struct {
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

func TestCloserProxyForwardsClose(t *testing.T) {
	recorder := &closeRecorder{}
	handle := Must(New[io.Closer](recorder))
	defer handle.Release()

	proxy := NewCloserProxy(handle)
	if err := proxy.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if !recorder.closed {
		t.Fatalf("expected close to reach the current target")
	}
}
