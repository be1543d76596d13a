// Package selection implements the voting strategies that pick one winning
// response from a round's valid candidates. Each strategy is a stateless
// value with a deterministic, documented tie-break, so selection is unit
// testable without a coordinator.
package selection

import (
	"errors"
	"fmt"

	"github.com/replylabs/chorus"
	"github.com/replylabs/chorus/similarity"
)

// Strategy names accepted by Parse.
const (
	NameConfidence = "confidence"
	NameFastest    = "fastest"
	NameWeighted   = "weighted"
	NameMajority   = "majority"
)

// ErrUnknownStrategy indicates a strategy name with no implementation. It is
// a configuration error: the coordinator fails the round before any model
// call is made rather than silently falling back.
var ErrUnknownStrategy = errors.New("unknown selection strategy")

// Strategy picks one winning candidate. Select is only called with a
// non-empty candidate slice (the coordinator guarantees at least one valid
// candidate first) and must preserve determinism: identical inputs yield an
// identical pick.
type Strategy interface {
	Name() string
	Select(candidates []chorus.CandidateResponse) chorus.CandidateResponse
}

// Parse resolves a strategy name to its implementation.
func Parse(name string) (Strategy, error) {
	switch name {
	case NameConfidence:
		return confidenceStrategy{}, nil
	case NameFastest:
		return fastestStrategy{}, nil
	case NameWeighted:
		return weightedStrategy{}, nil
	case NameMajority:
		return majorityStrategy{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// confidenceStrategy is arg-max by confidence; ties go to the earliest
// candidate in input order.
type confidenceStrategy struct{}

func (confidenceStrategy) Name() string { return NameConfidence }

func (confidenceStrategy) Select(candidates []chorus.CandidateResponse) chorus.CandidateResponse {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Confidence > best.Confidence {
			best = c
		}
	}
	return best
}

// fastestConfidenceFloor is the minimum confidence a candidate needs before
// the fastest strategy will consider its latency.
const fastestConfidenceFloor = 60

// fastestStrategy is arg-min latency among candidates at or above the
// confidence floor. When no candidate reaches the floor it falls back to the
// first candidate in input order rather than the globally fastest, so a fast
// but bad answer never wins on speed alone.
type fastestStrategy struct{}

func (fastestStrategy) Name() string { return NameFastest }

func (fastestStrategy) Select(candidates []chorus.CandidateResponse) chorus.CandidateResponse {
	var best *chorus.CandidateResponse
	for i := range candidates {
		if candidates[i].Confidence < fastestConfidenceFloor {
			continue
		}
		if best == nil || candidates[i].LatencyMs < best.LatencyMs {
			best = &candidates[i]
		}
	}
	if best == nil {
		return candidates[0]
	}
	return *best
}

// weightedStrategy is arg-max of confidence per unit cost. The small cost
// offset keeps free calls from dividing by zero.
type weightedStrategy struct{}

const costOffset = 0.001

func (weightedStrategy) Name() string { return NameWeighted }

func (weightedStrategy) Select(candidates []chorus.CandidateResponse) chorus.CandidateResponse {
	best := candidates[0]
	bestValue := value(best)
	for _, c := range candidates[1:] {
		if v := value(c); v > bestValue {
			best = c
			bestValue = v
		}
	}
	return best
}

func value(c chorus.CandidateResponse) float64 {
	return float64(c.Confidence) / (c.Cost + costOffset)
}

// majorityStrategy clusters the candidates by textual similarity, takes the
// largest cluster (first found on ties), and picks its highest-confidence
// member (first wins on ties).
type majorityStrategy struct{}

func (majorityStrategy) Name() string { return NameMajority }

func (majorityStrategy) Select(candidates []chorus.CandidateResponse) chorus.CandidateResponse {
	clusters := similarity.ClusterResponses(candidates)

	largest := clusters[0]
	for _, cluster := range clusters[1:] {
		if len(cluster.Members) > len(largest.Members) {
			largest = cluster
		}
	}

	best := largest.Members[0]
	for _, c := range largest.Members[1:] {
		if c.Confidence > best.Confidence {
			best = c
		}
	}
	return best
}
