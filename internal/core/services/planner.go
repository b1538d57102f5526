package services

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
)

const (
	maxCandidateQueries  = 5
	maxOriginalWords     = 15
	shortFollowUpWords   = 3
	pronounFollowUpWords = 8
)

// continuationPhrases mark a message as building on the previous turn.
var continuationPhrases = []string{
	"what about", "how about", "tell me more", "more about", "more on",
	"what else", "and also", "expand on", "elaborate", "go on", "the same for",
}

// followUpPronouns refer back to something from the previous turn.
var followUpPronouns = map[string]bool{
	"it": true, "that": true, "this": true, "they": true, "them": true,
}

// fillerPrefixes are conversational openers stripped before searching.
// Longer phrases come first so they win over their own prefixes.
var fillerPrefixes = []string{
	"can you please explain", "could you please explain",
	"can you explain", "could you explain", "can you tell me about", "could you tell me about",
	"can you tell me", "could you tell me", "i would like to know", "i want to know",
	"do you know", "tell me about", "tell me", "show me", "please",
	"what is", "what are", "what's", "who is", "explain", "describe", "find",
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	trailingPunct = regexp.MustCompile(`[?!.,;:]+$`)
)

// conceptWords mark a question as asking for an explanation rather than code.
var conceptWords = []string{"what", "why", "explain", "concept", "meaning", "difference"}

// PlanState is what the planner sees when deciding the next step.
type PlanState struct {
	// Query is the user message after follow-up expansion.
	Query string

	// Results are the results accumulated so far, deduplicated by path.
	Results []domain.SearchResult

	// Executed are the queries already run this turn.
	Executed []string
}

// BestScore returns the highest accumulated score.
func (s PlanState) BestScore() float64 {
	best := 0.0
	for _, r := range s.Results {
		if r.Score > best {
			best = r.Score
		}
	}
	return best
}

// Planner is the rule-based query planner. It is stateless apart from
// the iteration cap.
type Planner struct {
	maxIterations int
	reranker      Reranker
}

// NewPlanner creates a planner that forces synthesis at maxIterations.
func NewPlanner(maxIterations int) *Planner {
	if maxIterations <= 0 {
		maxIterations = domain.DefaultMaxIterations
	}
	return &Planner{maxIterations: maxIterations}
}

// Decide returns the action for the given 1-based iteration.
func (p *Planner) Decide(iteration int, state PlanState) domain.AgentAction {
	switch {
	case iteration <= 1:
		queries := p.InitialQueries(state.Query)
		if len(queries) == 0 {
			return domain.NeedsMoreInfoAction("What would you like me to look for in your documents?")
		}
		return domain.SearchAction(queries...)
	case state.BestScore() >= domain.HighConfidence:
		return domain.SynthesizeAction("high-confidence results found")
	case iteration >= p.maxIterations:
		return domain.SynthesizeAction("iteration limit reached")
	case iteration == 2:
		queries := without(p.RefinementQueries(state.Query, state.Results), state.Executed)
		if len(queries) == 0 {
			return domain.SynthesizeAction("no refinements left")
		}
		return domain.SearchAction(queries...)
	default:
		return domain.SynthesizeAction("refinement complete")
	}
}

// IsFollowUp reports whether message continues the previous turn.
func (p *Planner) IsFollowUp(message string, hasHistory bool) bool {
	lower := strings.ToLower(strings.TrimSpace(message))
	if lower == "" {
		return false
	}
	for _, phrase := range continuationPhrases {
		if containsPhrase(lower, phrase) {
			return true
		}
	}
	if !hasHistory {
		return false
	}

	words := tokenize(lower)
	if len(words) <= shortFollowUpWords {
		return true
	}
	if len(words) <= pronounFollowUpWords {
		for _, w := range words {
			if followUpPronouns[w] {
				return true
			}
		}
	}
	return false
}

// ExpandFollowUp prefixes message with the previous user message.
func (p *Planner) ExpandFollowUp(message, previous string) string {
	previous = strings.TrimSpace(previous)
	if previous == "" {
		return strings.TrimSpace(message)
	}
	return previous + " " + strings.TrimSpace(message)
}

// CleanQuery strips conversational filler, trailing punctuation and
// surrounding quotes, and collapses whitespace.
func (p *Planner) CleanQuery(query string) string {
	q := strings.TrimSpace(whitespaceRun.ReplaceAllString(query, " "))

	for stripped := true; stripped; {
		stripped = false
		q = strings.Trim(q, `"'“”‘’`+"`")
		lower := strings.ToLower(q)
		for _, prefix := range fillerPrefixes {
			if lower == prefix {
				return ""
			}
			if strings.HasPrefix(lower, prefix+" ") {
				q = strings.TrimSpace(q[len(prefix):])
				stripped = true
				break
			}
		}
		trimmed := strings.TrimSpace(trailingPunct.ReplaceAllString(q, ""))
		if trimmed != q {
			q = trimmed
			stripped = true
		}
	}
	return q
}

// InitialQueries derives up to five candidate queries from message.
func (p *Planner) InitialQueries(message string) []string {
	original := strings.TrimSpace(whitespaceRun.ReplaceAllString(message, " "))
	cleaned := p.CleanQuery(original)
	keywords := ExtractKeywords(cleaned)

	var qs querySet
	qs.add(cleaned)
	if n := len(tokenize(original)); n > 0 && n <= maxOriginalWords {
		qs.add(original)
	}
	for i := 0; i < len(keywords) && i < 2; i++ {
		qs.add(keywords[i])
	}
	if len(keywords) >= 2 {
		qs.add(keywords[0] + " " + keywords[1])
	}
	if focus := focusTerms(keywords); focus != "" {
		switch firstWord(original) {
		case "how":
			qs.add("how to " + focus)
			qs.add(focus + " steps")
		case "what":
			qs.add(focus + " definition")
			qs.add(focus + " overview")
		case "why":
			qs.add(focus + " reason")
			qs.add(focus + " purpose")
		}
	}
	return qs.list()
}

// RefinementQueries targets the keywords of target that the accumulated
// results do not yet cover, then adds specificity variants.
func (p *Planner) RefinementQueries(target string, results []domain.SearchResult) []string {
	keywords := ExtractKeywords(p.CleanQuery(target))
	if len(keywords) == 0 {
		return nil
	}

	covered := make(map[string]bool)
	for _, r := range results {
		for _, w := range tokenize(r.Content) {
			covered[w] = true
		}
	}

	var qs querySet
	missing := 0
	for _, k := range keywords {
		if covered[k] || missing == 2 {
			continue
		}
		missing++
		qs.add("detailed " + k)
		qs.add(k + " tutorial")
	}

	focus := focusTerms(keywords)
	lower := strings.ToLower(target)
	switch {
	case p.reranker.Query(target).technical:
		qs.add(focus + " code example")
	case containsAnyWord(lower, conceptWords):
		qs.add(focus + " concept explanation")
	}
	qs.add("example " + focus)
	qs.add(focus + " documentation")
	qs.add(focus + " implementation")

	return qs.list()
}

// querySet collects unique queries up to the candidate limit.
type querySet struct {
	seen    map[string]bool
	queries []string
}

func (s *querySet) add(q string) {
	q = strings.TrimSpace(q)
	if q == "" || len(s.queries) == maxCandidateQueries {
		return
	}
	key := strings.Join(tokenize(q), " ")
	if key == "" {
		return
	}
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	if s.seen[key] {
		return
	}
	s.seen[key] = true
	s.queries = append(s.queries, q)
}

func (s *querySet) list() []string {
	return s.queries
}

func focusTerms(keywords []string) string {
	if len(keywords) > 2 {
		keywords = keywords[:2]
	}
	return strings.Join(keywords, " ")
}

func firstWord(s string) string {
	words := tokenize(s)
	if len(words) == 0 {
		return ""
	}
	return words[0]
}

// containsPhrase matches phrase on word boundaries.
func containsPhrase(lower, phrase string) bool {
	padded := " " + strings.Join(tokenize(lower), " ") + " "
	return strings.Contains(padded, " "+phrase+" ")
}

func containsAnyWord(lower string, words []string) bool {
	for _, w := range tokenize(lower) {
		for _, candidate := range words {
			if w == candidate {
				return true
			}
		}
	}
	return false
}

// without returns queries not already in executed, compared by words.
func without(queries, executed []string) []string {
	done := make(map[string]bool, len(executed))
	for _, q := range executed {
		done[strings.Join(tokenize(q), " ")] = true
	}
	var out []string
	for _, q := range queries {
		if !done[strings.Join(tokenize(q), " ")] {
			out = append(out, q)
		}
	}
	return out
}
