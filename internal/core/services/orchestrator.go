package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driving"
	"github.com/custodia-labs/recall-cli/internal/logger"
	"github.com/custodia-labs/recall-cli/internal/postprocessors/chunker"
)

// Ensure Orchestrator implements the interface.
var _ driving.AskService = (*Orchestrator)(nil)

const (
	// queryConcurrency bounds the searches run at once within an iteration.
	queryConcurrency = 4

	excerptSentences = 2
	maxExcerptRunes  = 300

	llmMaxTokens   = 1024
	llmTemperature = 0.1
)

// notFoundTemplate is returned when no result passes the relevance gate.
const notFoundTemplate = "I couldn't find information about %q in your indexed documents. " +
	"Try rephrasing the question or indexing the files that cover it."

// Orchestrator answers questions by running the planner's search loop,
// gating on relevance, and synthesising a cited answer.
type Orchestrator struct {
	search    driving.SearchService
	assembler *ContextAssembler
	llm       driven.LLMService
	prompts   driven.PromptStore
	planner   *Planner
	opts      domain.SearchOptions
	useLLM    bool

	// mu serialises user turns and guards history.
	mu      sync.Mutex
	history *History

	now func() time.Time
}

// NewOrchestrator creates an orchestrator. llm and prompts may be nil, in
// which case answers are always composed heuristically.
func NewOrchestrator(
	search driving.SearchService,
	assembler *ContextAssembler,
	llm driven.LLMService,
	prompts driven.PromptStore,
	settings domain.Settings,
) *Orchestrator {
	return &Orchestrator{
		search:    search,
		assembler: assembler,
		llm:       llm,
		prompts:   prompts,
		planner:   NewPlanner(settings.Agent.MaxIterations),
		opts:      domain.SearchOptions{Limit: settings.Search.Limit, MinScore: settings.Search.MinScore},
		useLLM:    settings.Agent.UseLLM && llm != nil && prompts != nil,
		history:   NewHistory(settings.Agent.MaxHistoryTurns),
		now:       time.Now,
	}
}

// Ask answers message from the indexed documents.
func (o *Orchestrator) Ask(ctx context.Context, message string) (*domain.Answer, error) {
	return o.ask(ctx, message, nil)
}

// AskStream answers message, passing answer text to onDelta as it is
// produced. LLM answers stream when the LLM supports it; other answers
// arrive in a single call.
func (o *Orchestrator) AskStream(ctx context.Context, message string, onDelta func(string)) (*domain.Answer, error) {
	if onDelta == nil {
		onDelta = func(string) {}
	}
	return o.ask(ctx, message, onDelta)
}

// History returns the retained conversation, oldest first.
func (o *Orchestrator) History() []domain.ConversationTurn {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.history.Turns()
}

// Reset clears the conversation.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.history.Clear()
}

func (o *Orchestrator) ask(ctx context.Context, message string, onDelta func(string)) (*domain.Answer, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, domain.ErrEmptyInput
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	logger.Section("Ask")
	defer logger.Timed("ask")()

	query := message
	last, hasHistory := o.history.Last()
	if hasHistory && o.planner.IsFollowUp(message, true) {
		query = o.planner.ExpandFollowUp(message, last.UserMessage)
		logger.Debug("Follow-up expanded to %q", query)
	}

	state := PlanState{Query: query}
	merged := make(map[string]domain.SearchResult)
	answer := &domain.Answer{Synthesiser: domain.SynthesiserNone}

	for iteration := 1; ; iteration++ {
		action := o.planner.Decide(iteration, state)
		logger.Debug("Iteration %d: %s", iteration, action)

		if action.Kind == domain.ActionNeedsMoreInfo {
			answer.Text = action.Question
			o.finish(message, answer, onDelta)
			return answer, nil
		}
		if action.Kind != domain.ActionSearch {
			break
		}

		results, err := o.runQueries(ctx, action.Queries)
		if err != nil {
			return nil, err
		}
		answer.Iterations = iteration
		state.Executed = append(state.Executed, action.Queries...)
		state.Results = mergeResults(merged, results)
	}
	answer.Queries = state.Executed

	if state.BestScore() < domain.RelevanceGate {
		logger.Info("No result reached %.2f (best %.2f)", domain.RelevanceGate, state.BestScore())
		answer.Text = fmt.Sprintf(notFoundTemplate, message)
		o.finish(message, answer, onDelta)
		return answer, nil
	}

	var gated []domain.SearchResult
	for _, r := range state.Results {
		if r.Score >= domain.RelevanceGate {
			gated = append(gated, r)
		}
	}

	items, err := o.assembler.Assemble(ctx, gated)
	if err != nil {
		return nil, fmt.Errorf("assemble context: %w", err)
	}
	answer.Found = true
	answer.Sources = gated
	answer.Context = items

	if o.useLLM && len(items) > 0 {
		text, err := o.synthesiseLLM(ctx, query, items, onDelta)
		if err == nil {
			answer.Text = text
			answer.Synthesiser = domain.SynthesiserLLM
			o.record(message, answer)
			return answer, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("LLM synthesis failed, using heuristic answer: %v", err)
	}

	answer.Text = o.synthesiseHeuristic(query, gated)
	answer.Synthesiser = domain.SynthesiserHeuristic
	o.finish(message, answer, onDelta)
	return answer, nil
}

// runQueries searches every query concurrently and returns the results in
// query order. Only an unavailable provider or cancellation fails the batch.
func (o *Orchestrator) runQueries(ctx context.Context, queries []string) ([]domain.SearchResult, error) {
	perQuery := make([][]domain.SearchResult, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(queryConcurrency)
	for i, q := range queries {
		g.Go(func() error {
			resp, err := o.search.Search(gctx, q, o.opts)
			if err != nil {
				if errors.Is(err, domain.ErrProviderUnavailable) || gctx.Err() != nil {
					return err
				}
				logger.Warn("Query %q failed: %v", q, err)
				return nil
			}
			logger.Debug("Query %q: %d results", q, len(resp.Results))
			perQuery[i] = resp.Results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	var all []domain.SearchResult
	for _, rs := range perQuery {
		all = append(all, rs...)
	}
	return all, nil
}

// mergeResults folds results into merged keeping the highest score per
// path, and returns the merged set in rank order.
func mergeResults(merged map[string]domain.SearchResult, results []domain.SearchResult) []domain.SearchResult {
	for _, r := range results {
		if prev, ok := merged[r.FilePath]; !ok || r.Score > prev.Score {
			merged[r.FilePath] = r
		}
	}
	out := make([]domain.SearchResult, 0, len(merged))
	for _, r := range merged {
		out = append(out, r)
	}
	SortResults(out)
	return out
}

func (o *Orchestrator) synthesiseLLM(
	ctx context.Context, question string, items []domain.ContextItem, onDelta func(string),
) (string, error) {
	system, err := o.prompts.Load(driven.PromptAnswerSystem)
	if err != nil {
		return "", err
	}
	template, err := o.prompts.Load(driven.PromptAnswerUser)
	if err != nil {
		return "", err
	}

	var docs strings.Builder
	for i, item := range items {
		fmt.Fprintf(&docs, "[%d] %s (%s)\n%s\n\n", i+1, item.FileName, item.FilePath, item.Content)
	}
	messages := []driven.ChatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: fmt.Sprintf(template, strings.TrimSpace(docs.String()), question)},
	}
	opts := driven.ChatOptions{MaxTokens: llmMaxTokens, Temperature: llmTemperature}

	defer logger.Timed("llm synthesis")()

	if streamer, ok := o.llm.(driven.StreamingLLMService); ok && onDelta != nil {
		streamed := false
		text, err := streamer.ChatStream(ctx, messages, opts, func(delta string) {
			streamed = true
			onDelta(delta)
		})
		if err == nil && strings.TrimSpace(text) == "" {
			err = fmt.Errorf("%w: empty response", domain.ErrLLMUnavailable)
		}
		if err != nil && streamed {
			// The heuristic answer follows what was already shown.
			onDelta("\n\n")
		}
		return strings.TrimSpace(text), err
	}

	text, err := o.llm.Chat(ctx, messages, opts)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty response", domain.ErrLLMUnavailable)
	}
	if onDelta != nil {
		onDelta(text)
	}
	return text, nil
}

// synthesiseHeuristic composes a cited answer from the gated results,
// presenting moderate-confidence matches with hedged language.
func (o *Orchestrator) synthesiseHeuristic(query string, results []domain.SearchResult) string {
	var high, moderate []domain.SearchResult
	for _, r := range results {
		if r.Score >= domain.HighConfidence {
			high = append(high, r)
		} else {
			moderate = append(moderate, r)
		}
	}
	keywords := ExtractKeywords(query)

	var b strings.Builder
	if len(high) > 0 {
		b.WriteString("Here is what your documents say:\n")
		for _, r := range high {
			fmt.Fprintf(&b, "\n- %s (%s, %d%% relevance)\n  %s\n",
				r.FileName, r.FilePath, percent(r.Score), excerpt(r.Content, keywords))
		}
	}
	if len(moderate) > 0 {
		if len(high) > 0 {
			b.WriteString("\nThese documents may also be related, though the match is less certain:\n")
		} else {
			b.WriteString("I could not find a strong match. These documents might be related, " +
				"but check them before relying on this:\n")
		}
		for _, r := range moderate {
			fmt.Fprintf(&b, "\n- %s (%s, %d%% relevance)\n  Possibly relevant: %s\n",
				r.FileName, r.FilePath, percent(r.Score), excerpt(r.Content, keywords))
		}
	}
	return strings.TrimSpace(b.String())
}

// finish delivers a non-streamed answer and records the turn.
func (o *Orchestrator) finish(message string, answer *domain.Answer, onDelta func(string)) {
	if onDelta != nil {
		onDelta(answer.Text)
	}
	o.record(message, answer)
}

func (o *Orchestrator) record(message string, answer *domain.Answer) {
	o.history.Add(domain.ConversationTurn{
		UserMessage: message,
		Documents:   answer.Sources,
		Response:    answer.Text,
		Timestamp:   o.now(),
	})
}

func percent(score float64) int {
	return int(math.Round(score * 100))
}

// excerpt returns the sentences of content sharing the most keywords with
// the query, in document order.
func excerpt(content string, keywords []string) string {
	sentences := chunker.SplitSentences(content)
	if len(sentences) == 0 {
		return ""
	}

	type scored struct {
		index int
		hits  int
	}
	want := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		want[k] = true
	}
	ranked := make([]scored, len(sentences))
	for i, s := range sentences {
		ranked[i].index = i
		for _, w := range tokenize(s) {
			if want[w] {
				ranked[i].hits++
			}
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].hits > ranked[j].hits })

	n := min(excerptSentences, len(ranked))
	picked := make([]int, 0, n)
	for _, s := range ranked[:n] {
		picked = append(picked, s.index)
	}
	sort.Ints(picked)

	parts := make([]string, len(picked))
	for i, idx := range picked {
		parts[i] = sentences[idx]
	}
	text := strings.Join(parts, " ")
	if runes := []rune(text); len(runes) > maxExcerptRunes {
		text = strings.TrimSpace(string(runes[:maxExcerptRunes])) + "..."
	}
	return text
}
