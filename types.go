// Package chorus defines the shared data model for the response ensemble
// engine: conversation turns, retrieved knowledge snippets, candidate
// responses, composite confidence scores, and the result of one ensemble
// round. The engine itself lives in the subpackages: ensemble (round
// orchestration), confidence (scoring), similarity (clustering and
// agreement), selection (voting strategies), policy (action mapping) and
// gateway (model backends).
package chorus

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single message in the conversation sent to every model in a round.
type Turn struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// DefaultRelevance is assumed for knowledge snippets whose retriever did not
// report a relevance score.
const DefaultRelevance = 0.5

// KnowledgeSnippet is one retrieved context item backing an answer.
type KnowledgeSnippet struct {
	Content string `json:"content" yaml:"content"`

	// Relevance is the retriever-reported score in [0,1]. Nil means the
	// retriever reported none and [DefaultRelevance] applies.
	Relevance *float64 `json:"relevance,omitempty" yaml:"relevance,omitempty"`
}

// RelevanceOrDefault returns the reported relevance, or DefaultRelevance when
// the retriever supplied none.
func (s KnowledgeSnippet) RelevanceOrDefault() float64 {
	if s.Relevance == nil {
		return DefaultRelevance
	}
	return *s.Relevance
}

// EnsembleRequest is the immutable input for one ensemble round.
//
// The order of Models is a contract: it is the tie-break order for the
// confidence and majority strategies and the fallback order for fastest.
type EnsembleRequest struct {
	// Models lists the target model identifiers, in tie-break order.
	Models []string `json:"models" yaml:"models"`

	// Turns is the conversation to send to every model.
	Turns []Turn `json:"turns" yaml:"turns"`

	// Strategy names the voting strategy: confidence, fastest, weighted or
	// majority. An unknown name is a configuration error and fails the round
	// before any model call is made.
	Strategy string `json:"strategy" yaml:"strategy"`

	// MinAgreement, when > 0, is the agreement level (0-100) below which the
	// round is flagged as contested in the result.
	MinAgreement float64 `json:"min_agreement,omitempty" yaml:"min_agreement,omitempty"`

	// SelfCorrect enables one corrective rewrite pass when the selected
	// response scores below the correction threshold.
	SelfCorrect bool `json:"self_correct,omitempty" yaml:"self_correct,omitempty"`

	// Context holds the knowledge snippets backing the answer.
	Context []KnowledgeSnippet `json:"context,omitempty" yaml:"context,omitempty"`

	Temperature float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
}

// Query returns the content of the last user turn, which is what the
// confidence factors treat as the question being answered.
func (r EnsembleRequest) Query() string {
	for i := len(r.Turns) - 1; i >= 0; i-- {
		if r.Turns[i].Role == RoleUser {
			return r.Turns[i].Content
		}
	}
	return ""
}

// CandidateResponse is one model's outcome for a round. It is created by the
// coordinator as soon as the gateway call resolves or times out, and is
// immutable afterwards. A failed call is represented as a zero-confidence
// candidate carrying the call error, never as an error bubbling past the
// coordinator.
type CandidateResponse struct {
	Model      string  `json:"model"`
	Text       string  `json:"text"`
	Confidence int     `json:"confidence"`
	LatencyMs  int64   `json:"latency_ms"`
	Cost       float64 `json:"cost"`

	// Err records why the underlying call failed. Nil for successful calls.
	Err error `json:"-"`
}

// Valid reports whether the underlying model call succeeded. Only valid
// candidates participate in selection and agreement.
func (c CandidateResponse) Valid() bool {
	return c.Err == nil
}

// Dimension tags a reasoning note with the confidence factor it describes.
type Dimension string

const (
	DimensionOverall     Dimension = "overall"
	DimensionCoverage    Dimension = "knowledge_coverage"
	DimensionAgreement   Dimension = "model_agreement"
	DimensionConsistency Dimension = "semantic_consistency"
)

// Band is the threshold band a score falls into.
type Band string

const (
	BandHigh     Band = "high"
	BandModerate Band = "moderate"
	BandLow      Band = "low"
	BandVeryLow  Band = "very_low"
)

// ReasoningNote is one banded observation about a confidence score. Notes are
// structured so callers can localize or suppress them independently of the
// numeric score.
type ReasoningNote struct {
	Dimension Dimension `json:"dimension"`
	Band      Band      `json:"band"`
	Message   string    `json:"message"`
}

// ConfidenceScore is the composite confidence for a single response.
//
// Overall is always the fixed linear combination
// 0.35·coverage + 0.25·agreement + 0.30·consistency + 0.10·historical,
// rounded to the nearest integer, with every sub-score clamped to [0,100]
// before combination.
type ConfidenceScore struct {
	Overall             int             `json:"overall"`
	KnowledgeCoverage   int             `json:"knowledge_coverage"`
	ModelAgreement      int             `json:"model_agreement"`
	SemanticConsistency int             `json:"semantic_consistency"`
	HistoricalAccuracy  int             `json:"historical_accuracy"`
	Reasoning           []ReasoningNote `json:"reasoning,omitempty"`
	ShouldEscalate      bool            `json:"should_escalate"`
}

// ReasoningText joins the reasoning notes into a single display string.
func (s ConfidenceScore) ReasoningText() string {
	text := ""
	for i, note := range s.Reasoning {
		if i > 0 {
			text += " "
		}
		text += note.Message
	}
	return text
}

// EnsembleResult is the output of one ensemble round.
type EnsembleResult struct {
	// SelectedText is the winning response, possibly after self-correction.
	SelectedText  string `json:"selected_text"`
	SelectedModel string `json:"selected_model"`

	// Confidence is the composite score of the final selection.
	Confidence ConfidenceScore `json:"confidence"`

	// Candidates lists the valid (successful-call) responses in request
	// model order.
	Candidates []CandidateResponse `json:"candidates"`

	// Agreement is the mean pairwise textual similarity across valid
	// candidates, 0-100.
	Agreement float64 `json:"agreement"`

	// Strategy is the name of the voting strategy that made the selection.
	Strategy string `json:"strategy"`

	// Contested is set when the request carried a minimum-agreement
	// threshold and the round fell below it.
	Contested bool `json:"contested,omitempty"`

	// SelfCorrected is set when a corrective rewrite replaced the original
	// selection.
	SelfCorrected bool `json:"self_corrected,omitempty"`

	// TotalCost and TotalTimeMs aggregate across all attempted calls in the
	// round, including failed ones.
	TotalCost   float64 `json:"total_cost"`
	TotalTimeMs int64   `json:"total_time_ms"`
}
