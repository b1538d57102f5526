// Package files provides the indexed file list view for the TUI.
package files

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/recall-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/recall-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driving"
)

// ErrNoLibrary indicates that no library service was provided.
var ErrNoLibrary = errors.New("library service not available")

// View lists every indexed file.
type View struct {
	styles  *styles.Styles
	library driving.LibraryService
	ctx     context.Context

	files        []domain.FileSummary
	selected     int
	scrollOffset int
	width        int
	height       int
	ready        bool
	loading      bool
	err          error
	notice       string
}

// NewView creates a new files view.
func NewView(s *styles.Styles, library driving.LibraryService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:  s,
		library: library,
		ctx:     context.Background(),
		width:   80,
		height:  24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the file list.
func (v *View) Init() tea.Cmd {
	v.loading = true
	v.err = nil
	return v.load()
}

func (v *View) load() tea.Cmd {
	library, ctx := v.library, v.ctx
	return func() tea.Msg {
		if library == nil {
			return messages.FilesLoaded{Err: ErrNoLibrary}
		}
		files, err := library.ListFiles(ctx)
		return messages.FilesLoaded{Files: files, Err: err}
	}
}

// Update handles messages for the files view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.FilesLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.files = msg.Files
		if v.selected >= len(v.files) {
			v.selected = max(len(v.files)-1, 0)
		}
		v.adjustScroll()
		return v, nil

	case messages.FileOpened:
		if msg.Err != nil {
			v.notice = "Open: " + msg.Err.Error()
		} else {
			v.notice = "Opened " + domain.DisplayName(msg.Path)
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
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case "down", "j":
		if v.selected < len(v.files)-1 {
			v.selected++
			v.adjustScroll()
		}
	case "enter":
		if f := v.SelectedFile(); f != nil {
			selected := messages.FileSelected{Path: f.Path, Name: f.Name, From: messages.ViewFiles}
			return v, func() tea.Msg { return selected }
		}
	case "o":
		if f := v.SelectedFile(); f != nil {
			return v, v.open(f.Path)
		}
	case "r":
		return v, v.Init()
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}
	return v, nil
}

func (v *View) open(path string) tea.Cmd {
	library, ctx := v.library, v.ctx
	return func() tea.Msg {
		if library == nil {
			return messages.FileOpened{Path: path, Err: ErrNoLibrary}
		}
		return messages.FileOpened{Path: path, Err: library.Open(ctx, path)}
	}
}

func (v *View) adjustScroll() {
	visible := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visible {
		v.scrollOffset = v.selected - visible + 1
	}
}

func (v *View) visibleItemCount() int {
	return max(v.height-8, 1)
}

// View renders the files view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Indexed files (%d)", len(v.files))))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading files..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.files) == 0:
		b.WriteString(v.styles.Muted.Render("Nothing indexed yet. Run `recall index <dir>` first."))
	default:
		visible := v.visibleItemCount()
		end := min(v.scrollOffset+visible, len(v.files))
		for i := v.scrollOffset; i < end; i++ {
			b.WriteString(v.renderFile(i, &v.files[i]))
			b.WriteString("\n")
		}
		if len(v.files) > visible {
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("\n  [%d-%d of %d]", v.scrollOffset+1, end, len(v.files))))
		}
	}

	if v.notice != "" {
		b.WriteString("\n\n")
		b.WriteString(v.styles.Muted.Render(v.notice))
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] view  [o] open  [r] reload  [esc] back"))
	return b.String()
}

func (v *View) renderFile(index int, f *domain.FileSummary) string {
	nameWidth := max(v.width/3, 12)
	name := f.Name
	if r := []rune(name); len(r) > nameWidth {
		name = string(r[:nameWidth-3]) + "..."
	}

	meta := fmt.Sprintf("%3d chunks  %-3s", f.ChunkCount, f.Language)

	pathWidth := max(v.width-nameWidth-lenRunes(meta)-8, 10)
	path := f.Path
	if r := []rune(path); len(r) > pathWidth {
		path = "..." + string(r[len(r)-pathWidth+3:])
	}

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("> %-*s  %s  %s", nameWidth, name, meta, path))
	}
	return "  " + v.styles.Normal.Render(fmt.Sprintf("%-*s  ", nameWidth, name)) +
		v.styles.Muted.Render(meta+"  "+path)
}

func lenRunes(s string) int {
	return len([]rune(s))
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.adjustScroll()
}

// Files returns the loaded files.
func (v *View) Files() []domain.FileSummary {
	return v.files
}

// SelectedIndex returns the selected index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// SelectedFile returns the selected file, or nil if the list is empty.
func (v *View) SelectedFile() *domain.FileSummary {
	if v.selected < len(v.files) {
		return &v.files[v.selected]
	}
	return nil
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
