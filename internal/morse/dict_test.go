package morse

import (
	"testing"

	"github.com/verte-zerg/blinkmorse/internal/model"
)

func TestDefaultDictionary(t *testing.T) {
	d := DefaultDictionary()
	cases := map[string]string{
		".-":     "A",
		"---":    "O",
		"-----":  "0",
		"..--..": "?",
	}
	for seq, want := range cases {
		if got, ok := d.Lookup(seq); !ok || got != want {
			t.Fatalf("Lookup(%q) = %q, %v, want %q", seq, got, ok, want)
		}
	}
	if _, ok := d.Lookup("......"); ok {
		t.Fatalf("six dots should not resolve")
	}
	if d.MaxLen() != 6 {
		t.Fatalf("MaxLen = %d, want 6", d.MaxLen())
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	d := DefaultDictionary()
	seq, ok := d.Encode("S")
	if !ok || seq != "..." {
		t.Fatalf("Encode(S) = %q, %v, want ...", seq, ok)
	}
	if _, ok := d.Encode("#"); ok {
		t.Fatalf("unmapped character should not encode")
	}
}

func TestSequence(t *testing.T) {
	got := Sequence([]model.Symbol{model.Dot, model.Dash, model.Dot})
	if got != ".-." {
		t.Fatalf("Sequence = %q, want .-.", got)
	}
}

func TestValidateSequence(t *testing.T) {
	if err := ValidateSequence(".-"); err != nil {
		t.Fatalf("valid sequence rejected: %v", err)
	}
	if err := ValidateSequence(""); err == nil {
		t.Fatalf("empty sequence accepted")
	}
	if err := ValidateSequence(".x-"); err == nil {
		t.Fatalf("invalid symbol accepted")
	}
}
