package phone

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "already canonical", in: "+79991234567", want: "+79991234567"},
		{name: "russian trunk 8", in: "89991234567", want: "+79991234567"},
		{name: "russian without plus", in: "79991234567", want: "+79991234567"},
		{name: "us without plus", in: "12025550123", want: "+12025550123"},
		{name: "formatted input", in: "+7 (999) 123-45-67", want: "+79991234567"},
		{name: "spaces and hyphens", in: "8 999 123-45-67", want: "+79991234567"},
		{name: "short valid", in: "+1234567", want: "+1234567"},
		{name: "empty", in: "", wantErr: true},
		{name: "only symbols", in: "() - ", wantErr: true},
		{name: "leading zero", in: "+0123456789", wantErr: true},
		{name: "too short", in: "+123456", wantErr: true},
		{name: "too long", in: "+1234567890123456", wantErr: true},
		{name: "letters", in: "+7999abc4567", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Normalize(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("Normalize(%q) = %q, want error", tc.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize(%q) returned error: %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"+79991234567", "89991234567", "79991234567", "12025550123", "+44 20 7946 0958"}

	for _, in := range inputs {
		once, err := Normalize(in)
		if err != nil {
			t.Fatalf("Normalize(%q) returned error: %v", in, err)
		}
		twice, err := Normalize(once)
		if err != nil {
			t.Fatalf("Normalize(Normalize(%q)) returned error: %v", in, err)
		}
		if once != twice {
			t.Fatalf("Normalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestIsValid(t *testing.T) {
	if !IsValid("89991234567") {
		t.Error("IsValid(89991234567) = false, want true")
	}
	if IsValid("not-a-phone") {
		t.Error("IsValid(not-a-phone) = true, want false")
	}
}
