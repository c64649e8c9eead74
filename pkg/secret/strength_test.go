package secret

import (
	"strings"
	"testing"
)

func TestValidateStrengthLengthBounds(t *testing.T) {
	result := ValidateStrength("12345")
	if result.Valid {
		t.Error("5-character secret accepted")
	}
	if result.Strength != StrengthWeak {
		t.Errorf("expected weak, got %v", result.Strength)
	}

	result = ValidateStrength(strings.Repeat("a", MaxSecretLength+1))
	if result.Valid {
		t.Error("over-length secret accepted")
	}

	result = ValidateStrength("123456")
	if !result.Valid {
		t.Error("minimum-length PIN rejected")
	}
}

func TestValidateStrengthPINIsValidWithWarnings(t *testing.T) {
	result := ValidateStrength("482910")
	if !result.Valid {
		t.Fatal("numeric PIN rejected")
	}
	if len(result.Warnings) == 0 {
		t.Error("expected complexity warnings for a plain PIN")
	}
}

func TestValidateStrengthLevels(t *testing.T) {
	tests := []struct {
		secret string
		want   Strength
	}{
		{"abcdef", StrengthWeak},
		{"abcdefghijkl", StrengthFair},
		{"Abcdefghijk1", StrengthGood},
		{"Correct-Horse-Battery-9", StrengthStrong},
	}
	for _, tt := range tests {
		if got := ValidateStrength(tt.secret).Strength; got != tt.want {
			t.Errorf("ValidateStrength(%q).Strength = %v, want %v", tt.secret, got, tt.want)
		}
	}
}

func TestStrengthString(t *testing.T) {
	if StrengthStrong.String() != "strong" {
		t.Error("wrong label for StrengthStrong")
	}
	if Strength(99).String() != "unknown" {
		t.Error("out-of-range strength should read unknown")
	}
}
