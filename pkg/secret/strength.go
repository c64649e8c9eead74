package secret

import (
	"fmt"
	"regexp"
)

// Secret length bounds enforced at setup.
const (
	MinSecretLength = 6
	MaxSecretLength = 128
)

// Strength represents the estimated strength of a secret.
type Strength int

const (
	StrengthWeak Strength = iota
	StrengthFair
	StrengthGood
	StrengthStrong
)

// String returns a human-readable representation of secret strength.
func (s Strength) String() string {
	switch s {
	case StrengthWeak:
		return "weak"
	case StrengthFair:
		return "fair"
	case StrengthGood:
		return "good"
	case StrengthStrong:
		return "strong"
	default:
		return "unknown"
	}
}

// ValidationResult contains the result of secret validation.
type ValidationResult struct {
	Valid    bool     // Whether the secret meets minimum requirements
	Strength Strength // Estimated strength
	Warnings []string // Suggestions for improvement (not errors)
}

var (
	upperRe   = regexp.MustCompile(`[A-Z]`)
	lowerRe   = regexp.MustCompile(`[a-z]`)
	digitRe   = regexp.MustCompile(`\d`)
	specialRe = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>\-_=+\[\]\\;'~/\x60]`)
)

// ValidateStrength validates a candidate secret. Length bounds are hard
// requirements; complexity only produces warnings, since the lock secret
// may legitimately be a short numeric PIN.
func ValidateStrength(secret string) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Strength: StrengthFair,
	}

	if len(secret) < MinSecretLength {
		result.Valid = false
		result.Strength = StrengthWeak
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Secret must be at least %d characters", MinSecretLength))
		return result
	}
	if len(secret) > MaxSecretLength {
		result.Valid = false
		result.Strength = StrengthWeak
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Secret must be at most %d characters", MaxSecretLength))
		return result
	}

	complexity := 0
	if upperRe.MatchString(secret) {
		complexity++
	}
	if lowerRe.MatchString(secret) {
		complexity++
	}
	if digitRe.MatchString(secret) {
		complexity++
	}
	if specialRe.MatchString(secret) {
		complexity++
	}

	if complexity < 2 {
		result.Warnings = append(result.Warnings,
			"Consider using a mix of uppercase, lowercase, numbers, and symbols")
	}
	if len(secret) < 12 {
		result.Warnings = append(result.Warnings,
			"Longer secrets (12+ characters) are more secure")
	}

	switch {
	case complexity >= 3 && len(secret) >= 16:
		result.Strength = StrengthStrong
	case complexity >= 2 && len(secret) >= 12:
		result.Strength = StrengthGood
	case complexity >= 2 || len(secret) >= 12:
		result.Strength = StrengthFair
	default:
		result.Strength = StrengthWeak
	}

	return result
}
