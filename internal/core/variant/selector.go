// Package variant implements weighted A/B variant selection for rules.
package variant

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/example/responder/internal/models"
)

// DefaultKey is returned for rules without embedded tests.
const DefaultKey = "default::A"

// Key formats a (test, variant) pair into the "testId::variantId" form
// carried through execution records and outcome metrics.
func Key(testID, variantID string) string {
	return fmt.Sprintf("%s::%s", testID, variantID)
}

// Split parses a key produced by Key back into its parts. A key without a
// separator is treated as a bare test id.
func Split(key string) (testID, variantID string) {
	parts := strings.SplitN(key, "::", 2)
	if len(parts) != 2 {
		return key, ""
	}
	return parts[0], parts[1]
}

// Selector picks variants for rules with embedded A/B tests. The random
// source is injected so selection is reproducible in tests.
type Selector struct {
	rng *rand.Rand
}

// NewSelector creates a selector around the given random source.
func NewSelector(rng *rand.Rand) *Selector {
	return &Selector{rng: rng}
}

// Select picks a variant for the rule. With testID empty the first test key
// (in sorted order, for determinism) is used. Selection is roulette-wheel
// over the variant weights; a non-positive weight sum falls back to a
// uniform choice so a fully-paused test still selects something.
func (s *Selector) Select(rule *models.Rule, testID string) string {
	if len(rule.ABTests) == 0 {
		return DefaultKey
	}

	if testID == "" {
		keys := make([]string, 0, len(rule.ABTests))
		for k := range rule.ABTests {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		testID = keys[0]
	}

	variants := rule.ABTests[testID]
	if len(variants) == 0 {
		return DefaultKey
	}

	total := 0.0
	for _, v := range variants {
		total += v.Weight
	}

	if total <= 0 {
		return Key(testID, variants[s.rng.Intn(len(variants))].ID)
	}

	r := s.rng.Float64() * total
	cumulative := 0.0
	for _, v := range variants {
		cumulative += v.Weight
		if r < cumulative {
			return Key(testID, v.ID)
		}
	}

	// Floating point residue can leave r at the boundary; the last variant wins.
	return Key(testID, variants[len(variants)-1].ID)
}

// Reweight returns the 70/30 post-significance weighting: the winner takes
// 0.7 and the remainder is split equally among the other variants. Variants
// paused at weight 0 stay paused.
func Reweight(variants []models.Variant, winnerID string) []models.Variant {
	others := 0
	for _, v := range variants {
		if v.ID != winnerID && v.Weight > 0 {
			others++
		}
	}

	out := make([]models.Variant, len(variants))
	copy(out, variants)
	for i := range out {
		switch {
		case out[i].ID == winnerID:
			out[i].Weight = 0.7
		case out[i].Weight > 0:
			out[i].Weight = 0.3 / float64(others)
		}
	}
	return out
}

// Pause sets the given variant's weight to 0 in place of removing it, so
// the pause is auditable and revertible.
func Pause(variants []models.Variant, variantID string) []models.Variant {
	out := make([]models.Variant, len(variants))
	copy(out, variants)
	for i := range out {
		if out[i].ID == variantID {
			out[i].Weight = 0
		}
	}
	return out
}
