package scheduling

import (
	"math/rand"
	"sync"

	"github.com/istmo-energy/portal-backend/pkg/db/models"
)

// SelectionStrategy picks one technician out of a non-empty candidate set.
// The booking transaction is strategy-agnostic so a load-balancing policy can
// replace uniform random later without touching assignment logic.
type SelectionStrategy interface {
	Pick(candidates []models.Technician) models.Technician
}

// RandomStrategy selects uniformly at random. No seeding guarantee and no
// fairness tie-break; repeated picks over a stable candidate set converge on
// equal frequency.
type RandomStrategy struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomStrategy builds a strategy backed by the provided source. A nil
// source falls back to the shared global generator.
func NewRandomStrategy(src rand.Source) *RandomStrategy {
	s := &RandomStrategy{}
	if src != nil {
		s.rng = rand.New(src)
	}
	return s
}

func (s *RandomStrategy) Pick(candidates []models.Technician) models.Technician {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rng != nil {
		return candidates[s.rng.Intn(len(candidates))]
	}
	return candidates[rand.Intn(len(candidates))]
}

// FirstAvailableStrategy deterministically picks the first candidate. Used by
// the reschedule confirmation flow.
type FirstAvailableStrategy struct{}

func (FirstAvailableStrategy) Pick(candidates []models.Technician) models.Technician {
	return candidates[0]
}
