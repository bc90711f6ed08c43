// Package tui implements the interactive chat interface for the sales
// analysis assistant using the Elm architecture.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ledger-labs/salescope/internal/core/domain"
	"github.com/ledger-labs/salescope/internal/core/ports/driving"
)

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// answerMsg delivers a completed assistant turn.
type answerMsg struct {
	result *domain.TurnResult
	err    error
}

// App is the chat application model.
type App struct {
	assistant driving.Assistant
	ctx       context.Context
	styles    *Styles

	input    textinput.Model
	view     viewport.Model
	spin     spinner.Model
	history  []string
	thinking bool
	ready    bool
	width    int
	height   int
}

// NewApp creates the chat application.
func NewApp(assistant driving.Assistant) *App {
	input := textinput.New()
	input.Placeholder = "Ask about your sales..."
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return &App{
		assistant: assistant,
		ctx:       context.Background(),
		styles:    DefaultStyles(),
		input:     input,
		spin:      spin,
	}
}

// WithContext sets the context used for assistant calls.
func (a *App) WithContext(ctx context.Context) {
	if ctx != nil {
		a.ctx = ctx
	}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		viewHeight := msg.Height - 6
		if viewHeight < 3 {
			viewHeight = 3
		}
		if !a.ready {
			a.view = viewport.New(msg.Width, viewHeight)
			a.ready = true
		} else {
			a.view.Width = msg.Width
			a.view.Height = viewHeight
		}
		a.refresh()
		return a, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return a, tea.Quit
		case tea.KeyEnter:
			question := strings.TrimSpace(a.input.Value())
			if question == "" || a.thinking {
				return a, nil
			}
			a.history = append(a.history, a.styles.User.Render("You: ")+question)
			a.input.Reset()
			a.thinking = true
			a.refresh()
			return a, tea.Batch(a.spin.Tick, a.ask(question))
		}

	case answerMsg:
		a.thinking = false
		if msg.err != nil {
			a.history = append(a.history, a.styles.Error.Render(fmt.Sprintf("Error: %v", msg.err)))
		} else {
			a.history = append(a.history, a.renderResult(msg.result))
		}
		a.refresh()
		return a, nil

	case spinner.TickMsg:
		if !a.thinking {
			return a, nil
		}
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd
	}

	var inputCmd, viewCmd tea.Cmd
	a.input, inputCmd = a.input.Update(msg)
	a.view, viewCmd = a.view.Update(msg)
	return a, tea.Batch(inputCmd, viewCmd)
}

// ask runs one assistant turn off the UI loop.
func (a *App) ask(question string) tea.Cmd {
	return func() tea.Msg {
		result, err := a.assistant.Ask(a.ctx, question)
		return answerMsg{result: result, err: err}
	}
}

// renderResult formats a turn result for the transcript.
func (a *App) renderResult(result *domain.TurnResult) string {
	var b strings.Builder
	b.WriteString(a.styles.Answer.Render(result.Answer))

	if len(result.Citations) > 0 {
		b.WriteString("\n")
		for i, citation := range result.Citations {
			b.WriteString(a.styles.Citation.Render(
				fmt.Sprintf("  [%d] %s (%.2f)", i+1, citation.Source, citation.Score)))
			if i < len(result.Citations)-1 {
				b.WriteString("\n")
			}
		}
	}
	for _, notice := range result.Notices {
		b.WriteString("\n")
		b.WriteString(a.styles.Notice.Render("  note: " + notice))
	}
	return b.String()
}

// refresh rebuilds the viewport content and scrolls to the bottom.
func (a *App) refresh() {
	if !a.ready {
		return
	}
	a.view.SetContent(strings.Join(a.history, "\n\n"))
	a.view.GotoBottom()
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Salescope"))
	b.WriteString("\n")
	b.WriteString(a.view.View())
	b.WriteString("\n")

	if a.thinking {
		b.WriteString(a.spin.View() + " thinking...")
	} else {
		b.WriteString(a.styles.Input.Width(a.width - 4).Render(a.input.View()))
	}
	b.WriteString("\n")
	b.WriteString(a.styles.Help.Render("enter: send | ctrl+c: quit"))
	return b.String()
}
