package params

import "testing"

func BenchmarkGet(b *testing.B) {
	p := Must(New(42))
	defer p.Release()
	p.Get()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if got := p.Get(); got != 42 {
			b.Fatalf("unexpected value %d", got)
		}
	}
}

func BenchmarkSet(b *testing.B) {
	p := Must(New(0))
	defer p.Release()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := p.Set(i); err != nil {
			b.Fatalf("set: %v", err)
		}
	}
}

func BenchmarkParameterizeRelease(b *testing.B) {
	p := Must(New(0))
	defer p.Release()
	p.Get()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		scope, err := p.Parameterize(i)
		if err != nil {
			b.Fatalf("parameterize: %v", err)
		}
		if err := scope.Release(); err != nil {
			b.Fatalf("release: %v", err)
		}
	}
}

func BenchmarkGetUnderNestedScopes(b *testing.B) {
	p := Must(New(0))
	defer p.Release()

	scopes := make([]*Scope[int], 0, 8)
	for depth := 1; depth <= 8; depth++ {
		scope, err := p.Parameterize(depth)
		if err != nil {
			b.Fatalf("parameterize: %v", err)
		}
		scopes = append(scopes, scope)
	}
	defer func() {
		for i := len(scopes) - 1; i >= 0; i-- {
			if err := scopes[i].Release(); err != nil {
				b.Fatalf("release: %v", err)
			}
		}
	}()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if got := p.Get(); got != 8 {
			b.Fatalf("unexpected value %d", got)
		}
	}
}
