package dispatch

import (
	"errors"
	"testing"

	"github.com/danmuck/tagwire/internal/testutil/testlog"
)

func TestLookupCatalogue(t *testing.T) {
	testlog.Start(t)
	cases := map[string]uint64{
		"identity":  7,
		" Double ":  14,
		"triple":    21,
		"increment": 8,
		"zero":      0,
	}
	for name, want := range cases {
		h, err := Lookup(name)
		if err != nil {
			t.Fatalf("lookup %q: %v", name, err)
		}
		if got := h.Handle(7); got != want {
			t.Fatalf("%q(7) got=%d want=%d", name, got, want)
		}
	}
	if _, err := Lookup("square"); !errors.Is(err, ErrUnknownHandler) {
		t.Fatalf("expected ErrUnknownHandler, got %v", err)
	}
}

func TestHandlerNamesSorted(t *testing.T) {
	testlog.Start(t)
	names := HandlerNames()
	want := []string{"double", "identity", "increment", "triple", "zero"}
	if len(names) != len(want) {
		t.Fatalf("got %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("got %v want %v", names, want)
		}
	}
}
