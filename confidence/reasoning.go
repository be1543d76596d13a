package confidence

import "github.com/replylabs/chorus"

// reasoningRule maps a minimum score to a band and display message. Rules
// are evaluated in order; the first rule whose minimum the score meets wins,
// so each list must end with a zero-threshold rule.
type reasoningRule struct {
	min     int
	band    chorus.Band
	message string
}

var overallRules = []reasoningRule{
	{80, chorus.BandHigh, "High confidence: the response is well supported."},
	{60, chorus.BandModerate, "Moderate confidence: the response is plausible but imperfectly supported."},
	{40, chorus.BandLow, "Low confidence: the response needs qualification."},
	{0, chorus.BandVeryLow, "Very low confidence: the response is unreliable."},
}

var coverageRules = []reasoningRule{
	{80, chorus.BandHigh, "The knowledge base covers this question well."},
	{60, chorus.BandModerate, "The knowledge base partially covers this question."},
	{40, chorus.BandLow, "The knowledge base offers limited coverage of this question."},
	{0, chorus.BandVeryLow, "Little or no knowledge-base coverage was found."},
}

var agreementRules = []reasoningRule{
	{80, chorus.BandHigh, "The models broadly agree on the answer."},
	{60, chorus.BandModerate, "The models mostly agree on the answer."},
	{40, chorus.BandLow, "The models disagree on parts of the answer."},
	{0, chorus.BandVeryLow, "The models disagree substantially on the answer."},
}

var consistencyRules = []reasoningRule{
	{80, chorus.BandHigh, "The response stays close to the retrieved knowledge."},
	{60, chorus.BandModerate, "The response is mostly grounded in the retrieved knowledge."},
	{40, chorus.BandLow, "Parts of the response are not grounded in the retrieved knowledge."},
	{0, chorus.BandVeryLow, "The response strays far from the retrieved knowledge."},
}

func noteFor(dim chorus.Dimension, score int, rules []reasoningRule) chorus.ReasoningNote {
	for _, rule := range rules {
		if score >= rule.min {
			return chorus.ReasoningNote{Dimension: dim, Band: rule.band, Message: rule.message}
		}
	}
	last := rules[len(rules)-1]
	return chorus.ReasoningNote{Dimension: dim, Band: last.band, Message: last.message}
}

// reasoningNotes builds the banded notes for a computed score, one per
// dimension, overall first.
func reasoningNotes(score chorus.ConfidenceScore) []chorus.ReasoningNote {
	return []chorus.ReasoningNote{
		noteFor(chorus.DimensionOverall, score.Overall, overallRules),
		noteFor(chorus.DimensionCoverage, score.KnowledgeCoverage, coverageRules),
		noteFor(chorus.DimensionAgreement, score.ModelAgreement, agreementRules),
		noteFor(chorus.DimensionConsistency, score.SemanticConsistency, consistencyRules),
	}
}
