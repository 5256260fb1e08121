package variant

import (
	"math"
	"math/rand"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/example/responder/internal/models"
)

func twoArmRule(weightA, weightB float64) *models.Rule {
	return &models.Rule{
		ID: "RULE-001",
		ABTests: map[string][]models.Variant{
			"greeting": {
				{ID: "A", Weight: weightA},
				{ID: "B", Weight: weightB},
			},
		},
	}
}

func TestKeyRoundTrip(t *testing.T) {
	testID, variantID := Split(Key("greeting", "B"))
	if testID != "greeting" || variantID != "B" {
		t.Errorf("expected (greeting, B), got (%s, %s)", testID, variantID)
	}

	testID, variantID = Split("bare")
	if testID != "bare" || variantID != "" {
		t.Errorf("expected (bare, empty), got (%s, %s)", testID, variantID)
	}
}

func TestSelect_NoTests(t *testing.T) {
	s := NewSelector(rand.New(rand.NewSource(1)))
	got := s.Select(&models.Rule{ID: "RULE-001"}, "")
	if got != DefaultKey {
		t.Errorf("Select() = %q, want %q", got, DefaultKey)
	}
}

func TestSelect_ExplicitTestID(t *testing.T) {
	s := NewSelector(rand.New(rand.NewSource(1)))
	rule := &models.Rule{
		ID: "RULE-001",
		ABTests: map[string][]models.Variant{
			"greeting": {{ID: "A", Weight: 1}},
			"closing":  {{ID: "X", Weight: 1}},
		},
	}

	got := s.Select(rule, "closing")
	if got != "closing::X" {
		t.Errorf("Select() = %q, want %q", got, "closing::X")
	}
}

func TestSelect_WeightedConvergence(t *testing.T) {
	s := NewSelector(rand.New(rand.NewSource(42)))
	rule := twoArmRule(0.8, 0.2)

	const trials = 100000
	countA := 0
	for i := 0; i < trials; i++ {
		if s.Select(rule, "greeting") == "greeting::A" {
			countA++
		}
	}

	freq := float64(countA) / trials
	if math.Abs(freq-0.8) > 0.02 {
		t.Errorf("variant A frequency = %.4f, want 0.80 ± 0.02", freq)
	}
}

func TestSelect_ZeroWeightFallback(t *testing.T) {
	s := NewSelector(rand.New(rand.NewSource(7)))
	rule := twoArmRule(0, 0)

	counts := map[string]int{}
	const trials = 10000
	for i := 0; i < trials; i++ {
		counts[s.Select(rule, "greeting")]++
	}

	for _, key := range []string{"greeting::A", "greeting::B"} {
		if counts[key] == 0 {
			t.Errorf("variant %s never selected under zero weights", key)
		}
	}

	freq := float64(counts["greeting::A"]) / trials
	if math.Abs(freq-0.5) > 0.05 {
		t.Errorf("variant A frequency = %.4f under uniform fallback, want 0.50 ± 0.05", freq)
	}
}

func TestSelect_AlwaysReturnsMemberVariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 5).Draw(t, "variants")
		variants := make([]models.Variant, n)
		ids := map[string]bool{}
		for i := range variants {
			id := string(rune('A' + i))
			variants[i] = models.Variant{
				ID:     id,
				Weight: rapid.Float64Range(0, 10).Draw(t, "weight"),
			}
			ids[Key("t", id)] = true
		}

		rule := &models.Rule{ID: "RULE-001", ABTests: map[string][]models.Variant{"t": variants}}
		s := NewSelector(rand.New(rand.NewSource(rapid.Int64().Draw(t, "seed"))))

		got := s.Select(rule, "t")
		if !ids[got] {
			t.Fatalf("Select() = %q, not a member of the test", got)
		}
		if !strings.HasPrefix(got, "t::") {
			t.Fatalf("Select() = %q, want t:: prefix", got)
		}
	})
}

func TestReweight(t *testing.T) {
	variants := []models.Variant{
		{ID: "A", Weight: 0.5},
		{ID: "B", Weight: 0.3},
		{ID: "C", Weight: 0.2},
	}

	got := Reweight(variants, "B")

	if got[1].Weight != 0.7 {
		t.Errorf("winner weight = %v, want 0.7", got[1].Weight)
	}
	if math.Abs(got[0].Weight-0.15) > 1e-9 || math.Abs(got[2].Weight-0.15) > 1e-9 {
		t.Errorf("loser weights = %v, %v, want 0.15 each", got[0].Weight, got[2].Weight)
	}
}

func TestReweight_SkipsPausedVariants(t *testing.T) {
	variants := []models.Variant{
		{ID: "A", Weight: 0.6},
		{ID: "B", Weight: 0.4},
		{ID: "C", Weight: 0},
	}

	got := Reweight(variants, "A")

	if got[0].Weight != 0.7 {
		t.Errorf("winner weight = %v, want 0.7", got[0].Weight)
	}
	if math.Abs(got[1].Weight-0.3) > 1e-9 {
		t.Errorf("runner-up weight = %v, want 0.3", got[1].Weight)
	}
	if got[2].Weight != 0 {
		t.Errorf("paused variant weight = %v, want 0", got[2].Weight)
	}
}

func TestPause(t *testing.T) {
	variants := []models.Variant{
		{ID: "A", Weight: 0.8},
		{ID: "B", Weight: 0.2},
	}

	got := Pause(variants, "B")

	if got[1].Weight != 0 {
		t.Errorf("paused weight = %v, want 0", got[1].Weight)
	}
	if got[0].Weight != 0.8 {
		t.Errorf("untouched weight = %v, want 0.8", got[0].Weight)
	}
	if variants[1].Weight != 0.2 {
		t.Error("Pause mutated its input")
	}
}
