package chorus

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQuery(t *testing.T) {
	t.Run("LastUserTurnWins", func(t *testing.T) {
		req := EnsembleRequest{Turns: []Turn{
			{Role: RoleSystem, Content: "be brief"},
			{Role: RoleUser, Content: "first question"},
			{Role: RoleAssistant, Content: "an answer"},
			{Role: RoleUser, Content: "follow-up question"},
		}}
		require.Equal(t, "follow-up question", req.Query())
	})

	t.Run("NoUserTurn", func(t *testing.T) {
		req := EnsembleRequest{Turns: []Turn{{Role: RoleSystem, Content: "be brief"}}}
		require.Empty(t, req.Query())
	})
}

func TestRelevanceOrDefault(t *testing.T) {
	reported := 0.9
	require.Equal(t, 0.9, KnowledgeSnippet{Content: "c", Relevance: &reported}.RelevanceOrDefault())
	require.Equal(t, DefaultRelevance, KnowledgeSnippet{Content: "c"}.RelevanceOrDefault())
}

func TestCandidateValid(t *testing.T) {
	require.True(t, CandidateResponse{Model: "m", Text: "ok"}.Valid())
	require.False(t, CandidateResponse{Model: "m", Err: errors.New("boom")}.Valid())
}

func TestReasoningText(t *testing.T) {
	score := ConfidenceScore{Reasoning: []ReasoningNote{
		{Dimension: DimensionOverall, Band: BandHigh, Message: "High confidence."},
		{Dimension: DimensionCoverage, Band: BandModerate, Message: "Decent coverage."},
	}}
	require.Equal(t, "High confidence. Decent coverage.", score.ReasoningText())
	require.Empty(t, ConfidenceScore{}.ReasoningText())
}
