package otp

import "testing"

func TestGenerateCodeFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode failed: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("code %q is not 6 digits", code)
		}
		for _, ch := range code {
			if ch < '0' || ch > '9' {
				t.Fatalf("code %q contains non-digit %q", code, ch)
			}
		}
		seen[code] = true
	}
	// 50 draws from a million values should not all collide.
	if len(seen) < 2 {
		t.Fatalf("expected varied codes, got %d distinct", len(seen))
	}
}
