// Package bandit implements an ε-greedy decision engine for household
// reminder slots. With probability epsilon it explores a random slot,
// otherwise it exploits the slot with the best running average reward.
package bandit

import (
	"log"
	"math"
	"math/rand"
	"strings"

	"github.com/danielpatrickdp/hearth/internal/policy"
)

// #region constants

// ActionPrefix marks actions emitted by this engine. Feedback for actions
// without the prefix belongs to another policy and is ignored.
const ActionPrefix = "remind."

// DefaultEpsilon is the exploration probability for a fresh engine.
const DefaultEpsilon = 0.2

// Why tags recorded on decisions. Stable: downstream tooling matches on them.
const (
	WhyExplore        = "explore ε"
	WhyExploit        = "exploit"
	WhyNoSlots        = "no slots available"
	WhyInvalidRewards = "invalid rewards"
)

// DefaultArms returns the built-in reminder slots.
func DefaultArms() []string {
	return []string{"morning", "afternoon", "evening"}
}

// #endregion constants

// #region engine

type armStat struct {
	pulls uint32
	total float32
}

// EpsilonGreedy is an ε-greedy policy over named arms. Not safe for
// concurrent use; the owner serializes calls.
type EpsilonGreedy struct {
	policyID string
	epsilon  float32
	arms     []string
	stats    map[string]armStat
	rng      *rand.Rand
	seed     *int64
}

// New creates an engine with default arms and epsilon.
func New(policyID string) *EpsilonGreedy {
	return &EpsilonGreedy{
		policyID: policyID,
		epsilon:  DefaultEpsilon,
		arms:     DefaultArms(),
		stats:    make(map[string]armStat),
		rng:      rand.New(rand.NewSource(rand.Int63())),
	}
}

// NewSeeded creates an engine with a fixed exploration seed, for reproducible
// runs. The seed is carried through snapshots.
func NewSeeded(policyID string, seed int64) *EpsilonGreedy {
	b := New(policyID)
	b.seed = &seed
	b.rng = rand.New(rand.NewSource(seed))
	return b
}

// PolicyID returns the identifier snapshots are stamped with.
func (b *EpsilonGreedy) PolicyID() string { return b.policyID }

// Epsilon returns the current exploration probability.
func (b *EpsilonGreedy) Epsilon() float32 { return b.epsilon }

// SetEpsilon overrides the exploration probability. Used by simulation
// replays; clamped on the next Decide.
func (b *EpsilonGreedy) SetEpsilon(e float32) { b.epsilon = e }

// #endregion engine

// #region sanitize

// sanitize clamps epsilon into [0,1] (non-finite becomes 0) and repopulates
// arms when empty. The engine prefers staying decidable over rejecting a
// malformed configuration; Load reports when this fires.
func (b *EpsilonGreedy) sanitize() []string {
	var warnings []string

	if math.IsNaN(float64(b.epsilon)) || math.IsInf(float64(b.epsilon), 0) {
		b.epsilon = 0.0
		warnings = append(warnings, "epsilon was non-finite, reset to 0.0")
	} else if b.epsilon < 0 {
		b.epsilon = 0.0
		warnings = append(warnings, "epsilon below 0, clamped to 0.0")
	} else if b.epsilon > 1 {
		b.epsilon = 1.0
		warnings = append(warnings, "epsilon above 1, clamped to 1.0")
	}

	if len(b.arms) == 0 {
		b.arms = DefaultArms()
		warnings = append(warnings, "arms empty, restored default slots")
	}
	return warnings
}

// #endregion sanitize

// #region decide

// averageReward is the running mean reward for an arm. Untried arms score 0.0
// so that ties resolve deterministically by arm order.
func (b *EpsilonGreedy) averageReward(arm string) float32 {
	s, ok := b.stats[arm]
	if !ok || s.pulls == 0 {
		return 0.0
	}
	return s.total / float32(s.pulls)
}

// Decide chooses a reminder slot via ε-greedy. Never fails: degenerate
// configurations produce a fallback decision with a stable why tag.
func (b *EpsilonGreedy) Decide(ctx policy.Context) policy.Decision {
	b.sanitize()

	if len(b.arms) == 0 {
		return fallback(WhyNoSlots, ctx)
	}

	explore := b.rng.Float32() < b.epsilon

	var chosen string
	if explore {
		chosen = b.arms[b.rng.Intn(len(b.arms))]
	} else {
		found := false
		best := float32(math.Inf(-1))
		for _, arm := range b.arms {
			avg := b.averageReward(arm)
			if math.IsNaN(float64(avg)) || math.IsInf(float64(avg), 0) {
				continue
			}
			if !found || avg > best {
				found = true
				best = avg
				chosen = arm
			}
		}
		if !found {
			log.Printf("[BANDIT] decide: all slots have non-finite rewards, falling back")
			return fallback(WhyInvalidRewards, ctx)
		}
	}

	why := WhyExploit
	if explore {
		why = WhyExplore
	}

	return policy.Decision{
		Action:  ActionPrefix + chosen,
		Score:   b.averageReward(chosen),
		Why:     why,
		Context: ctx.JSON(),
	}
}

func fallback(why string, ctx policy.Context) policy.Decision {
	return policy.Decision{
		Action:  ActionPrefix + "none",
		Score:   0.0,
		Why:     why,
		Context: ctx.JSON(),
	}
}

// #endregion decide

// #region feedback

// Feedback updates the pull count and cumulative reward for the arm named by
// action. Actions without the engine's prefix may have been emitted by a
// different policy version and are ignored with a warning.
func (b *EpsilonGreedy) Feedback(_ policy.Context, action string, reward float32) {
	arm, ok := strings.CutPrefix(action, ActionPrefix)
	if !ok {
		log.Printf("[BANDIT] feedback: action %q lacks prefix %q, ignored", action, ActionPrefix)
		return
	}
	s := b.stats[arm]
	s.pulls++
	s.total += reward
	b.stats[arm] = s
}

// #endregion feedback
