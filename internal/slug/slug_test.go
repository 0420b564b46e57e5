package slug

import "testing"

func TestMake(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Common Room!", "common-room"},
		{"dropped punctuation keeps both spaces", "Finance & Budget", "finance--budget"},
		{"already a slug", "finance--budget", "finance--budget"},
		{"digits and hyphens survive", "Block 1701 - North", "block-1701---north"},
		{"non ascii dropped", "Café Nights", "caf-nights"},
		{"only punctuation", "!!!", ""},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Make(tc.in)
			if got != tc.want {
				t.Fatalf("Make(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestMakeIdempotent(t *testing.T) {
	inputs := []string{"Common Room!", "Finance & Budget", "Roof Monitors 2026"}
	for _, in := range inputs {
		once := Make(in)
		if twice := Make(once); twice != once {
			t.Fatalf("Make not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}
