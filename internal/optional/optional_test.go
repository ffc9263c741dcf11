package optional

import "testing"

func TestValue_Get(t *testing.T) {
	v, ok := Some(3).Get()
	if !ok || v != 3 {
		t.Errorf("Some(3).Get() = %d, %v; want 3, true", v, ok)
	}

	if _, ok := None[int]().Get(); ok {
		t.Error("None().Get() reported a value")
	}

	var zero Value[string]
	if zero.IsSome() {
		t.Error("zero Value should be empty")
	}
}

func TestValue_OrElse(t *testing.T) {
	if got := None[int]().OrElse(7); got != 7 {
		t.Errorf("OrElse on None = %d, want 7", got)
	}
	if got := Some(1).OrElse(7); got != 1 {
		t.Errorf("OrElse on Some(1) = %d, want 1", got)
	}
}

func TestMap(t *testing.T) {
	double := func(x int) int { return x * 2 }

	if got := Map(Some(4), double).OrElse(0); got != 8 {
		t.Errorf("Map = %d, want 8", got)
	}
	if Map(None[int](), double).IsSome() {
		t.Error("Map over None should stay None")
	}
}

func TestZip(t *testing.T) {
	tests := []struct {
		name string
		a    Value[int]
		b    Value[string]
		want bool
	}{
		{"both present", Some(1), Some("x"), true},
		{"first missing", None[int](), Some("x"), false},
		{"second missing", Some(1), None[string](), false},
		{"both missing", None[int](), None[string](), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := Zip(tt.a, tt.b).Get()
			if ok != tt.want {
				t.Fatalf("Zip ok = %v, want %v", ok, tt.want)
			}
			if ok && (p.First != 1 || p.Second != "x") {
				t.Errorf("Zip = %+v", p)
			}
		})
	}
}
