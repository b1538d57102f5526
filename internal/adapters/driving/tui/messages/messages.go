// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/recall-cli/internal/core/domain"
)

// SearchCompleted carries live search results back to the model.
type SearchCompleted struct {
	Query    string
	Response *domain.SearchResponse
	Err      error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewSearch is the live search view.
	ViewSearch
	// ViewAsk is the question and answer view.
	ViewAsk
	// ViewFiles lists indexed files.
	ViewFiles
	// ViewFileContent shows the indexed text of one file.
	ViewFileContent
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewSearch:
		return "search"
	case ViewAsk:
		return "ask"
	case ViewFiles:
		return "files"
	case ViewFileContent:
		return "file_content"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// AnswerDelta carries a fragment of a streaming answer.
type AnswerDelta struct {
	Text string
}

// AnswerCompleted carries the finished answer for a question.
type AnswerCompleted struct {
	Question string
	Answer   *domain.Answer
	Err      error
}

// FilesLoaded carries the indexed file list.
type FilesLoaded struct {
	Files []domain.FileSummary
	Err   error
}

// FileSelected signals a file was chosen for viewing.
type FileSelected struct {
	Path string
	Name string

	// From is the view to return to.
	From ViewType
}

// FileContentLoaded carries the reassembled text of a file.
type FileContentLoaded struct {
	Path    string
	Content string
	Err     error
}

// FileOpened signals the system viewer was launched for a file.
type FileOpened struct {
	Path string
	Err  error
}
