package otpcode

import "testing"

func TestGenerate(t *testing.T) {
	gen := NewNumeric()
	seen := make(map[string]struct{})

	for i := 0; i < 200; i++ {
		code, err := gen.Generate()
		if err != nil {
			t.Fatalf("Generate returned error: %v", err)
		}
		if len(code) != Length {
			t.Fatalf("Generate returned %q, want %d digits", code, Length)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("Generate returned non-digit character in %q", code)
			}
		}
		seen[code] = struct{}{}
	}

	// 200 draws from a one-million code space should essentially never collide
	// down to a single value.
	if len(seen) < 2 {
		t.Fatal("Generate produced a constant code")
	}
}
