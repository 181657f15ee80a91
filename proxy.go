package params

import (
	"fmt"
	"io"
)

// Proxy is a forwarding handle for a parameter. It holds a reference, not a
// snapshot: every operation resolves the effective value afresh, so overrides
// entered or exited between two operations are observed immediately. Once the
// parameter is released every operation fails with ErrReleased.
type Proxy[T any] struct {
	param *Parameter[T]
}

// Proxy returns a forwarding handle for the parameter. Handles are
// independent of each other and safe to hand to code that should not control
// the parameter's lifecycle.
func (p *Parameter[T]) Proxy() *Proxy[T] {
	return &Proxy[T]{param: p}
}

// Value resolves the current effective value in the calling context.
func (px *Proxy[T]) Value() (T, error) {
	return px.param.Lookup()
}

// MustValue is Value panicking on a released parameter.
func (px *Proxy[T]) MustValue() T {
	return px.param.Get()
}

// Do resolves the current effective value and applies fn to it.
func (px *Proxy[T]) Do(fn func(T) error) error {
	v, err := px.param.Lookup()
	if err != nil {
		return err
	}
	if fn == nil {
		return nil
	}
	return fn(v)
}

// Param returns the underlying parameter.
func (px *Proxy[T]) Param() *Parameter[T] {
	return px.param
}

// WriterProxy forwards io.Writer calls to a parameter's current value. It
// serves the current-output-sink pattern: code writes to one stable handle
// while scopes redirect where the bytes land.
type WriterProxy struct {
	proxy *Proxy[io.Writer]
}

// NewWriterProxy builds an io.Writer that resolves p on every Write.
func NewWriterProxy(p *Parameter[io.Writer]) *WriterProxy {
	return &WriterProxy{proxy: p.Proxy()}
}

// Write forwards to the current effective writer.
func (w *WriterProxy) Write(b []byte) (int, error) {
	target, err := w.proxy.Value()
	if err != nil {
		return 0, err
	}
	if target == nil {
		return 0, fmt.Errorf("params: %s holds no writer", w.proxy.param.label())
	}
	return target.Write(b)
}

// ReaderProxy forwards io.Reader calls to a parameter's current value.
type ReaderProxy struct {
	proxy *Proxy[io.Reader]
}

// NewReaderProxy builds an io.Reader that resolves p on every Read.
func NewReaderProxy(p *Parameter[io.Reader]) *ReaderProxy {
	return &ReaderProxy{proxy: p.Proxy()}
}

// Read forwards to the current effective reader.
func (r *ReaderProxy) Read(b []byte) (int, error) {
	target, err := r.proxy.Value()
	if err != nil {
		return 0, err
	}
	if target == nil {
		return 0, fmt.Errorf("params: %s holds no reader", r.proxy.param.label())
	}
	return target.Read(b)
}

// CloserProxy forwards io.Closer calls to a parameter's current value.
type CloserProxy struct {
	proxy *Proxy[io.Closer]
}

// NewCloserProxy builds an io.Closer that resolves p on every Close.
func NewCloserProxy(p *Parameter[io.Closer]) *CloserProxy {
	return &CloserProxy{proxy: p.Proxy()}
}

// Close forwards to the current effective closer.
func (c *CloserProxy) Close() error {
	target, err := c.proxy.Value()
	if err != nil {
		return err
	}
	if target == nil {
		return nil
	}
	return target.Close()
}
