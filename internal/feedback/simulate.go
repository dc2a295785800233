package feedback

import (
	"github.com/danielpatrickdp/hearth/internal/bandit"
)

// #region simulate

// SimulationMethod names the replay strategy recorded in evidence.
const SimulationMethod = "replay"

// SimulateAdjustment replays historical outcomes under the proposal's deltas
// and returns the estimated success rate an adjusted policy would have
// achieved. Read-only: neither the proposal nor any live policy is mutated.
//
// The replay walks the outcomes in order, maintaining per-action running
// success rates. At every step the exploit branch is scored against the
// greedy choice so far (the realized outcome when the greedy action matches
// the recorded one, its historical rate otherwise) and the explore branch
// against the overall running mean. The adjusted epsilon blends the two.
func (a *Analyzer) SimulateAdjustment(p *WeightAdjustmentProposal, outcomes []DecisionOutcome) float32 {
	if len(outcomes) == 0 {
		return 0.0
	}

	eps := adjustedEpsilon(p)

	type actionStat struct {
		total     int
		successes int
	}
	stats := make(map[string]*actionStat)
	var order []string

	var overallTotal, overallSuccess int
	var exploitSum, exploreSum float64
	steps := 0

	for _, o := range outcomes {
		succeeded := o.Succeeded()

		// Exploit branch: score the greedy choice over what we knew so far.
		exploit := 0.0
		if overallTotal == 0 || o.Action == "" {
			if succeeded {
				exploit = 1.0
			}
		} else {
			greedy := ""
			best := -1.0
			for _, action := range order {
				s := stats[action]
				rate := float64(s.successes) / float64(s.total)
				if rate > best {
					best = rate
					greedy = action
				}
			}
			switch {
			case greedy == o.Action && succeeded:
				exploit = 1.0
			case greedy == o.Action:
				exploit = 0.0
			default:
				exploit = best
			}
		}

		// Explore branch: expected value of a uniform pick, approximated by
		// the overall running success rate.
		explore := 0.0
		if overallTotal > 0 {
			explore = float64(overallSuccess) / float64(overallTotal)
		} else if succeeded {
			explore = 1.0
		}

		exploitSum += exploit
		exploreSum += explore
		steps++

		overallTotal++
		if succeeded {
			overallSuccess++
		}
		if o.Action != "" {
			s, ok := stats[o.Action]
			if !ok {
				s = &actionStat{}
				stats[o.Action] = s
				order = append(order, o.Action)
			}
			s.total++
			if succeeded {
				s.successes++
			}
		}
	}

	estimate := (1.0-eps)*exploitSum/float64(steps) + eps*exploreSum/float64(steps)
	if estimate < 0 {
		return 0.0
	}
	if estimate > 1 {
		return 1.0
	}
	return float32(estimate)
}

// adjustedEpsilon applies the proposal's epsilon delta to the engine default,
// clamped into [0,1].
func adjustedEpsilon(p *WeightAdjustmentProposal) float64 {
	eps := float64(bandit.DefaultEpsilon)
	if p == nil {
		return eps
	}
	d, ok := p.Deltas["epsilon"]
	if !ok {
		return eps
	}
	switch d.Kind {
	case DeltaAbsolute:
		eps += float64(d.Value)
	case DeltaRelative:
		eps *= 1.0 + float64(d.Value)/100.0
	}
	if eps < 0 {
		return 0.0
	}
	if eps > 1 {
		return 1.0
	}
	return eps
}

// #endregion simulate
