// Package confidence scores a single candidate response along four
// independent factors (knowledge coverage, model agreement, semantic
// consistency and historical accuracy) and combines them into a composite
// 0-100 confidence score with structured reasoning notes.
package confidence

import (
	"math"
	"regexp"
	"strings"

	"github.com/replylabs/chorus"
	"github.com/replylabs/chorus/accuracy"
	"github.com/replylabs/chorus/similarity"
)

// Factor weights. Overall is always this fixed linear combination; callers
// who need different weights wrap the evaluator rather than tuning it.
const (
	coverageWeight    = 0.35
	agreementWeight   = 0.25
	consistencyWeight = 0.30
	historicalWeight  = 0.10
)

const (
	// noContextCoverage applies when retrieval returned nothing: low, but
	// not zero, since the model may still answer correctly from general
	// knowledge.
	noContextCoverage = 20

	// noContextConsistency is the neutral consistency score when there is
	// no context to be consistent with.
	noContextConsistency = 50

	// singleModelAgreement applies when fewer than two model responses were
	// supplied: one model cannot disagree with itself.
	singleModelAgreement = 100

	maxHallucinationPenalty = 30
)

// hedgingPhrases are counted (case-insensitive, per occurrence) toward the
// hallucination penalty.
var hedgingPhrases = []string{
	"i think",
	"maybe",
	"possibly",
	"might be",
	"could be",
	"probably",
	"not sure",
	"i believe",
}

// standaloneNumber matches 4-or-more digit runs. More than two of them in a
// response is treated as suspiciously specific fabricated figures.
var standaloneNumber = regexp.MustCompile(`\b\d{4,}\b`)

// Input carries everything the evaluator considers for one response.
type Input struct {
	// Response is the generated text being scored.
	Response string

	// Query is the user question the response answers.
	Query string

	// Context holds the retrieved knowledge snippets backing the answer.
	Context []chorus.KnowledgeSnippet

	// PeerResponses is the full set of model response texts from the round,
	// used by the agreement factor. Fewer than two means agreement cannot
	// be measured.
	PeerResponses []string

	// Topic keys the historical-accuracy lookup. May be empty.
	Topic string
}

// Evaluator computes composite confidence scores. The zero configuration
// uses no accuracy store and falls back to [accuracy.DefaultAccuracy] for
// the historical factor.
type Evaluator struct {
	store accuracy.Store
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithAccuracyStore plugs in a historical-accuracy store.
func WithAccuracyStore(s accuracy.Store) Option {
	return func(e *Evaluator) {
		e.store = s
	}
}

// New creates an Evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Evaluate scores one response. It never fails: unknown or missing inputs
// fall back to the neutral defaults documented on each factor.
func (e *Evaluator) Evaluate(in Input) chorus.ConfidenceScore {
	coverage := clamp(e.knowledgeCoverage(in.Context))
	agreement := clamp(e.modelAgreement(in.PeerResponses))
	consistency := clamp(e.semanticConsistency(in.Response, in.Context))
	historical := clamp(e.historicalAccuracy(in.Topic))

	overall := int(math.Round(
		coverageWeight*float64(coverage) +
			agreementWeight*float64(agreement) +
			consistencyWeight*float64(consistency) +
			historicalWeight*float64(historical)))

	score := chorus.ConfidenceScore{
		Overall:             overall,
		KnowledgeCoverage:   coverage,
		ModelAgreement:      agreement,
		SemanticConsistency: consistency,
		HistoricalAccuracy:  historical,
		ShouldEscalate:      overall < 60,
	}
	score.Reasoning = reasoningNotes(score)
	return score
}

// knowledgeCoverage scores how well the retrieved context backs an answer:
// the mean snippet relevance scaled to 0-100, with a bonus for retrieving
// several snippets (+10 at three or more, +5 more at five or more).
func (e *Evaluator) knowledgeCoverage(context []chorus.KnowledgeSnippet) int {
	if len(context) == 0 {
		return noContextCoverage
	}

	total := 0.0
	for _, snippet := range context {
		total += snippet.RelevanceOrDefault()
	}
	score := total / float64(len(context)) * 100.0

	if len(context) >= 3 {
		score += 10
	}
	if len(context) >= 5 {
		score += 5
	}
	if score > 100 {
		score = 100
	}

	return int(math.Round(score))
}

// modelAgreement scores the mean pairwise Jaccard similarity across all
// supplied model responses.
func (e *Evaluator) modelAgreement(responses []string) int {
	if len(responses) < 2 {
		return singleModelAgreement
	}
	return int(math.Round(similarity.MeanPairwise(responses)))
}

// semanticConsistency scores the fraction of substantive response words
// (longer than three characters) that also occur in the concatenated context
// text, minus a hallucination penalty for hedging language and suspiciously
// specific figures.
func (e *Evaluator) semanticConsistency(response string, context []chorus.KnowledgeSnippet) int {
	if len(context) == 0 {
		return noContextConsistency
	}

	var contextText strings.Builder
	for _, snippet := range context {
		contextText.WriteString(strings.ToLower(snippet.Content))
		contextText.WriteString(" ")
	}
	contextWords := make(map[string]struct{})
	for _, w := range strings.Fields(contextText.String()) {
		contextWords[w] = struct{}{}
	}

	matched := 0
	total := 0
	for _, w := range strings.Fields(strings.ToLower(response)) {
		if len(w) <= 3 {
			continue
		}
		total++
		if _, ok := contextWords[w]; ok {
			matched++
		}
	}

	// A response with no substantive words has nothing to contradict the
	// context; treat it as neutral rather than dividing by zero.
	score := float64(noContextConsistency)
	if total > 0 {
		score = float64(matched) / float64(total) * 100.0
	}

	return int(math.Round(score - float64(hallucinationPenalty(response))))
}

// hallucinationPenalty adds 5 points per hedging-phrase occurrence and 10
// points when the response contains more than two standalone 4+-digit
// numbers, capped at maxHallucinationPenalty.
func hallucinationPenalty(response string) int {
	lower := strings.ToLower(response)

	penalty := 0
	for _, phrase := range hedgingPhrases {
		penalty += 5 * strings.Count(lower, phrase)
	}

	if len(standaloneNumber.FindAllString(response, -1)) > 2 {
		penalty += 10
	}

	if penalty > maxHallucinationPenalty {
		penalty = maxHallucinationPenalty
	}
	return penalty
}

// historicalAccuracy consults the configured store, falling back to the
// neutral default when there is no store or no data for the topic.
func (e *Evaluator) historicalAccuracy(topic string) int {
	if e.store == nil {
		return accuracy.DefaultAccuracy
	}
	if v, ok := e.store.HistoricalAccuracy(topic); ok {
		return v
	}
	return accuracy.DefaultAccuracy
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
