package claims_test

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/JaimeStill/cct/internal/claims"
)

func fixedNow() time.Time {
	return time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
}

func TestPrefix(t *testing.T) {
	tests := []struct {
		insurer string
		want    string
	}{
		{claims.InsurerAlpha, "ALPHA"},
		{claims.InsurerBeta, "BETA"},
		{claims.InsurerGamma, "GAMMA"},
		{"", "CCT"},
		{"Other Mutual", "CCT"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := claims.Prefix(tt.insurer); got != tt.want {
				t.Errorf("Prefix(%q) = %s, want %s", tt.insurer, got, tt.want)
			}
		})
	}
}

func TestGenerateFormat(t *testing.T) {
	refs := claims.NewReferences(fixedNow, func() int { return 7 })

	got, err := refs.Generate(claims.InsurerGamma)
	if err != nil {
		t.Fatal(err)
	}
	if got != "GAMMA-CLM-20260203040506-007" {
		t.Errorf("reference = %s", got)
	}

	pattern := regexp.MustCompile(`^[A-Z]+-CLM-\d{14}-\d{3}$`)
	random := claims.NewReferences(nil, nil)
	for range 50 {
		ref, err := random.Generate("")
		if err != nil {
			t.Fatal(err)
		}
		if !pattern.MatchString(ref) {
			t.Errorf("reference %s does not match format", ref)
		}
	}
}

func TestEnsureRetriesOnCollision(t *testing.T) {
	suffixes := []int{1, 1, 2}
	refs := claims.NewReferences(fixedNow, func() int {
		s := suffixes[0]
		suffixes = suffixes[1:]
		return s
	})

	first, _ := refs.Ensure("", claims.InsurerAlpha)
	second, _ := refs.Ensure("", claims.InsurerAlpha)

	if first != "ALPHA-CLM-20260203040506-001" || second != "ALPHA-CLM-20260203040506-002" {
		t.Errorf("references = %s, %s", first, second)
	}
}

func TestEnsurePreferred(t *testing.T) {
	refs := claims.NewReferences(fixedNow, func() int { return 5 })

	got, _ := refs.Ensure("  BETA-CUSTOM-1 ", claims.InsurerBeta)
	if got != "BETA-CUSTOM-1" {
		t.Errorf("preferred = %s", got)
	}

	again, _ := refs.Ensure("BETA-CUSTOM-1", claims.InsurerBeta)
	if again != "BETA-CLM-20260203040506-005" {
		t.Errorf("collision fallback = %s", again)
	}
}

func TestGenerateExhausted(t *testing.T) {
	refs := claims.NewReferences(fixedNow, func() int { return 0 })
	if _, err := refs.Ensure("", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := refs.Generate(""); !errors.Is(err, claims.ErrReferenceExhausted) {
		t.Errorf("error = %v, want ErrReferenceExhausted", err)
	}
}
