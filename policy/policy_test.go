package policy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecideAction(t *testing.T) {
	testCases := []struct {
		confidence int
		expected   Action
	}{
		{100, ActionRespond},
		{80, ActionRespond},
		{79, ActionRespondWithDisclaimer},
		{60, ActionRespondWithDisclaimer},
		{59, ActionAskClarification},
		{40, ActionAskClarification},
		{39, ActionEscalateToHuman},
		{0, ActionEscalateToHuman},
	}

	for _, tc := range testCases {
		decision := DecideAction(tc.confidence)
		require.Equal(t, tc.expected, decision.Action, "confidence %d", tc.confidence)
	}
}

func TestDecisionMessages(t *testing.T) {
	require.Empty(t, DecideAction(85).Message)
	require.NotEmpty(t, DecideAction(70).Message)
	require.NotEmpty(t, DecideAction(50).Message)
	require.NotEmpty(t, DecideAction(10).Message)
}
