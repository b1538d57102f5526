// Package ask provides the conversational question view for the TUI.
package ask

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/recall-cli/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/recall-cli/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/recall-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/recall-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/recall-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driving"
)

// ErrNoAskService indicates that no ask service was provided.
var ErrNoAskService = errors.New("ask service is not configured")

// Exchange is one question with its answer as displayed.
type Exchange struct {
	Question string
	Answer   string
	Sources  []domain.SearchResult
	Err      error
	Pending  bool
}

// View renders a conversation and accepts follow-up questions.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.Field
	statusbar *status.Bar

	service driving.AskService
	ctx     context.Context

	exchanges []Exchange

	// stream carries deltas and the final answer of the running question.
	stream chan tea.Msg
	cancel context.CancelFunc

	width  int
	height int
	ready  bool
}

// NewView creates a new ask view.
func NewView(s *styles.Styles, km *keymap.KeyMap, service driving.AskService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	bar := status.NewBar(s, km)
	bar.SetHints(km.AskHelp())

	return &View{
		styles:    s,
		keymap:    km,
		input:     input.NewQuestionInput(s),
		statusbar: bar,
		service:   service,
		ctx:       context.Background(),
		width:     80,
		height:    24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerDelta:
		if ex := v.pending(); ex != nil {
			ex.Answer += msg.Text
		}
		return v, v.next()

	case messages.AnswerCompleted:
		v.complete(msg)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case keymap.Matches(msg.String(), v.keymap.Back):
		if v.Thinking() {
			v.cancelPending()
			return v, nil
		}
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}

	case keymap.Matches(msg.String(), v.keymap.Clear):
		if v.Thinking() {
			return v, nil
		}
		if v.service != nil {
			v.service.Reset()
		}
		v.exchanges = nil
		v.statusbar.Clear()
		v.statusbar.SetMessage("New conversation")
		return v, nil

	case msg.Type == tea.KeyEnter:
		question := strings.TrimSpace(v.input.Value())
		if question == "" || v.Thinking() {
			return v, nil
		}
		v.input.Reset()
		return v, v.ask(question)
	}

	if v.Thinking() {
		return v, nil
	}
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// ask starts answering question in the background and returns the
// command that reads its first message.
func (v *View) ask(question string) tea.Cmd {
	v.exchanges = append(v.exchanges, Exchange{Question: question, Pending: true})

	if v.service == nil {
		v.complete(messages.AnswerCompleted{Question: question, Err: ErrNoAskService})
		return nil
	}

	v.statusbar.SetState(status.StateThinking)
	ctx, cancel := context.WithCancel(v.ctx)
	v.cancel = cancel
	stream := make(chan tea.Msg, 16)
	v.stream = stream
	service := v.service

	go func() {
		defer close(stream)
		answer, err := service.AskStream(ctx, question, func(text string) {
			select {
			case stream <- messages.AnswerDelta{Text: text}:
			case <-ctx.Done():
			}
		})
		select {
		case stream <- messages.AnswerCompleted{Question: question, Answer: answer, Err: err}:
		case <-ctx.Done():
		}
	}()

	return v.next()
}

// next reads one message from the running stream.
func (v *View) next() tea.Cmd {
	stream := v.stream
	if stream == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-stream
		if !ok {
			return nil
		}
		return msg
	}
}

func (v *View) complete(msg messages.AnswerCompleted) {
	ex := v.pending()
	v.stream = nil
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	if ex == nil {
		return
	}
	ex.Pending = false

	if msg.Err != nil {
		ex.Err = msg.Err
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return
	}
	if msg.Answer != nil {
		ex.Answer = msg.Answer.Text
		ex.Sources = msg.Answer.Sources
		if msg.Answer.Found {
			v.statusbar.SetMessage(fmt.Sprintf("%d sources, %d searches", len(msg.Answer.Sources), len(msg.Answer.Queries)))
		} else {
			v.statusbar.SetMessage("No relevant documents")
		}
	}
	v.statusbar.SetState(status.StateAnswered)
}

func (v *View) cancelPending() {
	if v.cancel != nil {
		v.cancel()
	}
	v.complete(messages.AnswerCompleted{Err: context.Canceled})
	v.statusbar.SetState(status.StateReady)
	v.statusbar.SetMessage("Cancelled")
}

func (v *View) pending() *Exchange {
	if len(v.exchanges) == 0 {
		return nil
	}
	ex := &v.exchanges[len(v.exchanges)-1]
	if !ex.Pending {
		return nil
	}
	return ex
}

// View renders the conversation.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	header := []string{v.styles.Title.Render("recall") + v.styles.Muted.Render("  ask"), ""}
	footer := []string{"", v.input.View(), "", v.statusbar.View()}

	body := v.renderConversation()
	// Keep the newest lines when the conversation outgrows the screen.
	room := v.height - len(header) - len(footer) - 2
	if room > 0 && len(body) > room {
		body = body[len(body)-room:]
	}

	sections := append(header, body...)
	sections = append(sections, footer...)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderConversation() []string {
	if len(v.exchanges) == 0 {
		return []string{v.styles.Muted.Render("Ask anything about your indexed documents.")}
	}

	wrap := v.styles.Answer.Width(max(v.width-4, 20))
	var lines []string
	for i := range v.exchanges {
		ex := &v.exchanges[i]
		lines = append(lines, v.styles.Question.Render("> "+ex.Question))

		switch {
		case ex.Err != nil:
			lines = append(lines, v.styles.Error.Render("  "+ex.Err.Error()))
		case ex.Pending && ex.Answer == "":
			lines = append(lines, v.styles.Muted.Render("  Searching..."))
		default:
			lines = append(lines, strings.Split(wrap.Render(ex.Answer), "\n")...)
		}

		if len(ex.Sources) > 0 {
			names := make([]string, len(ex.Sources))
			for j, s := range ex.Sources {
				names[j] = s.FileName
			}
			lines = append(lines, v.styles.Muted.Render("  Sources: "+strings.Join(names, ", ")))
		}
		lines = append(lines, "")
	}
	return lines
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
}

// Exchanges returns the displayed conversation.
func (v *View) Exchanges() []Exchange {
	return v.exchanges
}

// Thinking reports whether a question is being answered.
func (v *View) Thinking() bool {
	return v.pending() != nil
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Focus focuses the question input.
func (v *View) Focus() tea.Cmd {
	return v.input.Focus()
}
