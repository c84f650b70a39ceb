package host

import (
	"math"
	"testing"
)

func TestAttrsInt(t *testing.T) {
	attrs := Attrs{
		"a": 3,
		"b": int64(4),
		"c": 1001.0,
		"d": "x",
		"e": math.NaN(),
	}
	for key, want := range map[string]int{"a": 3, "b": 4, "c": 1001} {
		got, ok := attrs.Int(key)
		if !ok || got != want {
			t.Errorf("Int(%q) = %d, %v; want %d", key, got, ok, want)
		}
	}
	for _, key := range []string{"d", "e", "missing"} {
		if _, ok := attrs.Int(key); ok {
			t.Errorf("Int(%q) unexpectedly ok", key)
		}
	}
	if attrs.String("d") != "x" || attrs.String("a") != "" {
		t.Fatal("unexpected String results")
	}
}
