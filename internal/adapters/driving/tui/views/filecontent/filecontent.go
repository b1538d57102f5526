// Package filecontent shows the indexed text of a single file.
package filecontent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/recall-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/recall-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driving"
)

// ErrNoLibrary indicates that no library service was provided.
var ErrNoLibrary = errors.New("library service not available")

// View is the file content view.
type View struct {
	styles  *styles.Styles
	library driving.LibraryService
	ctx     context.Context

	path         string
	name         string
	from         messages.ViewType
	content      string
	lines        []string
	scrollOffset int
	width        int
	height       int
	ready        bool
	err          error
	loading      bool
	notice       string
}

// NewView creates a new file content view.
func NewView(s *styles.Styles, library driving.LibraryService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:  s,
		library: library,
		ctx:     context.Background(),
		from:    messages.ViewFiles,
		width:   80,
		height:  24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetFile selects the file to show and loads its content.
// Esc returns to from.
func (v *View) SetFile(path, name string, from messages.ViewType) tea.Cmd {
	v.path = path
	v.name = name
	v.from = from
	v.content = ""
	v.lines = nil
	v.scrollOffset = 0
	v.err = nil
	v.notice = ""
	v.loading = true

	library, ctx := v.library, v.ctx
	return func() tea.Msg {
		if library == nil {
			return messages.FileContentLoaded{Path: path, Err: ErrNoLibrary}
		}
		content, err := library.Content(ctx, path)
		return messages.FileContentLoaded{Path: path, Content: content, Err: err}
	}
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the file content view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.FileContentLoaded:
		if msg.Path != v.path {
			return v, nil
		}
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.content = msg.Content
		v.wrapContent()
		return v, nil

	case messages.FileOpened:
		if msg.Err != nil {
			v.notice = "Open: " + msg.Err.Error()
		} else {
			v.notice = "Opened in system viewer"
		}
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}
	case "down", "j":
		if v.scrollOffset < v.maxScrollOffset() {
			v.scrollOffset++
		}
	case "pgup", "ctrl+u":
		v.scrollOffset = max(v.scrollOffset-v.visibleLines(), 0)
	case "pgdown", "ctrl+d":
		v.scrollOffset = min(v.scrollOffset+v.visibleLines(), v.maxScrollOffset())
	case "home", "g":
		v.scrollOffset = 0
	case "end", "G":
		v.scrollOffset = v.maxScrollOffset()
	case "o":
		library, ctx, path := v.library, v.ctx, v.path
		return v, func() tea.Msg {
			if library == nil {
				return messages.FileOpened{Path: path, Err: ErrNoLibrary}
			}
			return messages.FileOpened{Path: path, Err: library.Open(ctx, path)}
		}
	case "esc":
		from := v.from
		return v, func() tea.Msg {
			return messages.ViewChanged{View: from}
		}
	}

	return v, nil
}

// wrapContent splits content into display lines no wider than the view.
func (v *View) wrapContent() {
	if v.content == "" {
		v.lines = nil
		return
	}

	width := max(v.width-4, 20)
	raw := strings.Split(v.content, "\n")
	v.lines = make([]string, 0, len(raw))

	for _, line := range raw {
		runes := []rune(line)
		if len(runes) == 0 {
			v.lines = append(v.lines, "")
			continue
		}
		for len(runes) > 0 {
			n := min(width, len(runes))
			v.lines = append(v.lines, string(runes[:n]))
			runes = runes[n:]
		}
	}
}

func (v *View) visibleLines() int {
	return max(v.height-6, 1)
}

func (v *View) maxScrollOffset() int {
	return max(len(v.lines)-v.visibleLines(), 0)
}

// View renders the file content view.
func (v *View) View() string {
	var b strings.Builder

	title := v.name
	if title == "" {
		title = "File content"
	}
	b.WriteString(v.styles.Title.Render(title))
	if v.path != "" {
		b.WriteString("  " + v.styles.Muted.Render(v.path))
	}
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", min(max(v.width-4, 1), 60)))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading content..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.lines) == 0:
		b.WriteString(v.styles.Muted.Render("(No content)"))
	default:
		visible := v.visibleLines()
		end := min(v.scrollOffset+visible, len(v.lines))
		for i := v.scrollOffset; i < end; i++ {
			b.WriteString(v.styles.Normal.Render(v.lines[i]))
			b.WriteString("\n")
		}
		if len(v.lines) > visible {
			percentage := v.scrollOffset * 100 / v.maxScrollOffset()
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("\n  [%d%%] Line %d-%d of %d",
				percentage, v.scrollOffset+1, end, len(v.lines))))
		}
	}

	if v.notice != "" {
		b.WriteString("\n\n")
		b.WriteString(v.styles.Muted.Render(v.notice))
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓/PgUp/PgDn] scroll  [g/G] top/bottom  [o] open  [esc] back"))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.wrapContent()
}

// Path returns the path of the file being shown.
func (v *View) Path() string {
	return v.path
}

// Content returns the loaded content.
func (v *View) Content() string {
	return v.content
}

// Lines returns the wrapped display lines.
func (v *View) Lines() []string {
	return v.lines
}

// ScrollOffset returns the first visible line.
func (v *View) ScrollOffset() int {
	return v.scrollOffset
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
