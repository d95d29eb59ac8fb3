// Package viewer is a deliberately thin terminal front end for the
// reconciliation engine: a scrollable list of tool calls with a detail pane.
// It exists to drive the engine's snapshot, cursor, and subscription APIs;
// anything fancier belongs to a real presentation layer.
package viewer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"toolscope/internal/display"
	"toolscope/internal/pubsub"
	"toolscope/internal/reconcile"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	selectedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	streamingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	completedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

type changeMsg reconcile.Change

type streamClosedMsg struct{}

// Model pages through the engine's reconciled list.
type Model struct {
	engine  *reconcile.Engine
	changes <-chan pubsub.Event[reconcile.Change]
	thread  string

	records    []reconcile.Record
	width      int
	height     int
	showDetail bool
	closed     bool
}

// New builds a viewer over engine. The subscription lives for ctx.
func New(ctx context.Context, engine *reconcile.Engine, thread string) Model {
	return Model{
		engine:  engine,
		changes: engine.Subscribe(ctx),
		thread:  thread,
		records: engine.ToolCalls(),
	}
}

func (m Model) Init() tea.Cmd {
	return m.waitForChange()
}

func (m Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-m.changes
		if !ok {
			return streamClosedMsg{}
		}
		return changeMsg(evt.Payload)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case changeMsg:
		m.records = m.engine.ToolCalls()
		return m, m.waitForChange()
	case streamClosedMsg:
		m.closed = true
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			m.engine.SetCursor(m.engine.Cursor() - 1)
		case "down", "j":
			m.engine.SetCursor(m.engine.Cursor() + 1)
		case "g":
			m.engine.SetCursor(0)
		case "G":
			m.engine.SetCursor(len(m.records) - 1)
		case "enter":
			m.showDetail = !m.showDetail
		}
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	mode := "following"
	if !m.engine.Following() {
		mode = "pinned"
	}
	if m.closed {
		mode = "ended"
	}
	b.WriteString(headerStyle.Render(fmt.Sprintf("toolscope — %s", m.thread)))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d calls · %s\n\n", len(m.records), mode)))

	if len(m.records) == 0 {
		b.WriteString(dimStyle.Render("no tool calls yet\n"))
		return b.String()
	}

	cursor := m.engine.Cursor()
	listHeight := m.listHeight()
	start := 0
	if cursor >= listHeight {
		start = cursor - listHeight + 1
	}
	end := min(start+listHeight, len(m.records))

	for i := start; i < end; i++ {
		b.WriteString(m.renderRow(i, i == cursor))
		b.WriteByte('\n')
	}

	if m.showDetail {
		if rec, ok := m.engine.At(cursor); ok {
			b.WriteByte('\n')
			b.WriteString(m.renderDetail(rec))
		}
	}

	b.WriteString(dimStyle.Render("\n↑/↓ navigate · enter details · q quit\n"))
	return b.String()
}

func (m Model) listHeight() int {
	h := m.height - 6
	if m.showDetail {
		h -= 10
	}
	if h < 3 {
		h = 3
	}
	return h
}

func (m Model) renderRow(i int, selected bool) string {
	rec := m.records[i]
	d := display.Resolve(rec.FunctionName)

	glyph := streamingStyle.Render("◌")
	switch {
	case rec.Completed() && rec.Result != nil && !rec.Result.Success:
		glyph = failedStyle.Render("✗")
	case rec.Completed():
		glyph = completedStyle.Render("✓")
	}

	line := fmt.Sprintf("%s %-18s %s", glyph, d.Label, dimStyle.Render(summarizeArguments(rec)))
	if selected {
		return selectedStyle.Render("▸ ") + line
	}
	return "  " + line
}

func (m Model) renderDetail(rec reconcile.Record) string {
	var b strings.Builder
	d := display.Resolve(rec.FunctionName)
	b.WriteString(headerStyle.Render(d.Label))
	b.WriteString(dimStyle.Render(fmt.Sprintf(" [%s/%s] %s\n", d.Category, rec.Source, rec.Status)))
	b.WriteString(dimStyle.Render("arguments: "))
	b.WriteString(compactJSON(rec.Arguments))
	b.WriteByte('\n')
	if rec.Result != nil {
		if rec.Result.Error != "" {
			b.WriteString(failedStyle.Render("error: " + rec.Result.Error))
		} else {
			b.WriteString(dimStyle.Render("output: "))
			b.WriteString(compactJSON(rec.Result.Output))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// summarizeArguments picks a short, single-line preview of the call input.
func summarizeArguments(rec reconcile.Record) string {
	preview := compactJSON(rec.Arguments)
	preview = strings.ReplaceAll(preview, "\n", " ")
	const maxPreview = 64
	if len(preview) > maxPreview {
		preview = preview[:maxPreview] + "…"
	}
	return preview
}

func compactJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// Run starts the viewer program and blocks until it exits.
func Run(ctx context.Context, engine *reconcile.Engine, thread string) error {
	_, err := tea.NewProgram(New(ctx, engine, thread), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
