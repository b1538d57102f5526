package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
)

var (
	askStream bool
	askJSON   bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about your documents",
	Long: `Plans one or more searches for the question, gathers the relevant
documents within a token budget and composes an answer.

Answers are written by the configured LLM. Without one, the most relevant
passages are summarised directly. Nothing is answered when no document
is relevant enough.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askStream, "stream", false, "print the answer as it is generated")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if askService == nil {
		return unavailable("ask")
	}

	var (
		answer *domain.Answer
		err    error
	)
	if askStream && !askJSON {
		answer, err = askService.AskStream(cmd.Context(), args[0], func(delta string) {
			cmd.Print(delta)
		})
		if err == nil {
			cmd.Println()
		}
	} else {
		answer, err = askService.Ask(cmd.Context(), args[0])
	}
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return outputAskJSON(cmd, answer)
	}
	if !askStream {
		cmd.Println(answer.Text)
	}
	outputSources(cmd, answer)
	return nil
}

type answerJSON struct {
	Answer      string            `json:"answer"`
	Found       bool              `json:"found"`
	Synthesiser string            `json:"synthesiser"`
	Iterations  int               `json:"iterations"`
	Queries     []string          `json:"queries"`
	Sources     []answerSourceRef `json:"sources"`
}

type answerSourceRef struct {
	Path  string  `json:"path"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

func outputAskJSON(cmd *cobra.Command, answer *domain.Answer) error {
	out := answerJSON{
		Answer:      answer.Text,
		Found:       answer.Found,
		Synthesiser: string(answer.Synthesiser),
		Iterations:  answer.Iterations,
		Queries:     answer.Queries,
		Sources:     []answerSourceRef{},
	}
	for i := range answer.Sources {
		s := &answer.Sources[i]
		out.Sources = append(out.Sources, answerSourceRef{Path: s.FilePath, Name: s.FileName, Score: s.Score})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSources(cmd *cobra.Command, answer *domain.Answer) {
	if !answer.Found || len(answer.Sources) == 0 {
		return
	}
	cmd.Println()
	cmd.Println("Sources:")
	for i := range answer.Sources {
		s := &answer.Sources[i]
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, s.FilePath, s.Score)
	}
}
