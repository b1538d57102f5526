package domain

import (
	"strings"
	"time"
)

// ConversationTurn is one exchange kept for follow-up detection.
type ConversationTurn struct {
	UserMessage string
	Documents   []SearchResult
	Response    string
	Timestamp   time.Time
}

// ContextItem is one document rehydrated for answer synthesis.
type ContextItem struct {
	FilePath string
	FileName string
	Score    float64

	// Content is the reconstructed document, windowed to the per-document cap.
	Content string

	// Tokens is the estimated token count of Content.
	Tokens int
}

// Synthesiser names how an answer was composed.
type Synthesiser string

const (
	SynthesiserLLM       Synthesiser = "llm"
	SynthesiserHeuristic Synthesiser = "heuristic"
	SynthesiserNone      Synthesiser = "none"
)

// Answer is the orchestrator's response to one user turn.
type Answer struct {
	Text string

	// Sources are the deduplicated results considered for synthesis.
	Sources []SearchResult

	// Context holds the documents handed to synthesis. Empty when Found is false.
	Context []ContextItem

	Iterations int
	Queries    []string

	// Found is false when no result passed the relevance gate.
	Found bool

	Synthesiser Synthesiser
}

// ActionKind discriminates AgentAction.
type ActionKind int

const (
	ActionSearch ActionKind = iota
	ActionSynthesize
	ActionNeedsMoreInfo
)

// String returns the action name.
func (k ActionKind) String() string {
	switch k {
	case ActionSearch:
		return "search"
	case ActionSynthesize:
		return "synthesize"
	case ActionNeedsMoreInfo:
		return "needs_more_info"
	default:
		return "unknown"
	}
}

// AgentAction is the planner's decision for the next step of a turn.
// Only the field matching Kind is meaningful.
type AgentAction struct {
	Kind ActionKind

	// Queries to run when Kind is ActionSearch.
	Queries []string

	// Reason for synthesising now when Kind is ActionSynthesize.
	Reason string

	// Question to put to the user when Kind is ActionNeedsMoreInfo.
	Question string
}

// SearchAction returns an action that runs the given queries.
func SearchAction(queries ...string) AgentAction {
	return AgentAction{Kind: ActionSearch, Queries: queries}
}

// SynthesizeAction returns an action that ends the search loop.
func SynthesizeAction(reason string) AgentAction {
	return AgentAction{Kind: ActionSynthesize, Reason: reason}
}

// NeedsMoreInfoAction returns an action asking the user for clarification.
func NeedsMoreInfoAction(question string) AgentAction {
	return AgentAction{Kind: ActionNeedsMoreInfo, Question: question}
}

// String renders the action for logs.
func (a AgentAction) String() string {
	switch a.Kind {
	case ActionSearch:
		return "search(" + strings.Join(a.Queries, " | ") + ")"
	case ActionSynthesize:
		return "synthesize(" + a.Reason + ")"
	case ActionNeedsMoreInfo:
		return "needs_more_info(" + a.Question + ")"
	default:
		return a.Kind.String()
	}
}
