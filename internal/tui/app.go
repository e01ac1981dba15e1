// Package tui implements the interactive history browser. It is a thin
// surface: every state change goes through the history service and every
// view is computed with the projection functions; the model owns only
// ephemeral UI state (cursor, mode, input buffers).
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/copysaver/copysaver/internal/clipboard"
	"github.com/copysaver/copysaver/internal/history"
	"github.com/copysaver/copysaver/internal/projection"
	"github.com/copysaver/copysaver/internal/store"
)

// UIMode represents the current modal state of the browser
type UIMode int

const (
	NormalMode UIMode = iota
	SearchMode
	LabelMode
	SaveMode
	HelpMode
)

const flashDuration = 2 * time.Second

type flashExpiredMsg struct{}

// Model is the bubbletea model for the history browser.
type Model struct {
	ctx       context.Context
	service   *history.Service
	clipboard clipboard.Clipboard

	// TrashView switches between the active history and the trash.
	TrashView bool

	Width  int
	Height int

	CurrentMode UIMode
	Cursor      int
	SearchInput string
	InputBuffer string

	// Records is the full stored list; Visible is the projected view
	// the cursor moves over.
	Records    []store.Record
	Categories []store.Category
	Visible    []store.Record

	FlashMessage string
	FlashExpiry  time.Time
}

// NewModel creates a browser model with the current history loaded.
func NewModel(ctx context.Context, service *history.Service, clip clipboard.Clipboard, trashView bool) (*Model, error) {
	m := &Model{
		ctx:       ctx,
		service:   service,
		clipboard: clip,
		TrashView: trashView,
		Width:     100,
		Height:    30,
	}
	if err := m.reload(); err != nil {
		return nil, err
	}
	return m, nil
}

// reload re-reads the store and recomputes the visible projection.
func (m *Model) reload() error {
	records, categories, err := m.service.Snapshot(m.ctx)
	if err != nil {
		return err
	}
	m.Records = records
	m.Categories = categories
	m.project()
	return nil
}

// project recomputes Visible from Records and the current filter.
func (m *Model) project() {
	if m.TrashView {
		m.Visible = projection.Trashed(m.Records)
	} else {
		m.Visible = projection.FilterBySearchText(projection.Active(m.Records), m.SearchInput)
	}
	if m.Cursor >= len(m.Visible) {
		m.Cursor = len(m.Visible) - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
}

// current returns the record under the cursor, or nil.
func (m *Model) current() *store.Record {
	if m.Cursor < 0 || m.Cursor >= len(m.Visible) {
		return nil
	}
	return &m.Visible[m.Cursor]
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil
	case flashExpiredMsg:
		if !time.Now().Before(m.FlashExpiry) {
			m.FlashMessage = ""
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}
	return m, nil
}

// handleKeyPress routes keys by mode before anything else.
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch m.CurrentMode {
	case SearchMode:
		return m.handleTextInput(key, &m.SearchInput, func() (tea.Model, tea.Cmd) {
			m.CurrentMode = NormalMode
			m.project()
			return m, nil
		})
	case LabelMode:
		return m.handleTextInput(key, &m.InputBuffer, m.commitLabel)
	case SaveMode:
		return m.handleTextInput(key, &m.InputBuffer, m.commitSave)
	case HelpMode:
		m.CurrentMode = NormalMode
		return m, nil
	default:
		return m.handleNormalModeKeys(key)
	}
}

// handleTextInput implements the shared editing keys of the input modes.
func (m *Model) handleTextInput(key string, buffer *string, commit func() (tea.Model, tea.Cmd)) (tea.Model, tea.Cmd) {
	switch key {
	case "enter":
		return commit()
	case "esc":
		*buffer = ""
		m.CurrentMode = NormalMode
		m.project()
		return m, nil
	case "backspace":
		if len(*buffer) > 0 {
			*buffer = (*buffer)[:len(*buffer)-1]
		}
		if m.CurrentMode == SearchMode {
			m.project()
		}
		return m, nil
	default:
		if len(key) == 1 || key == "space" {
			if key == "space" {
				key = " "
			}
			*buffer += key
			if m.CurrentMode == SearchMode {
				m.project()
			}
		}
		return m, nil
	}
}

func (m *Model) handleNormalModeKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "j", "down":
		if m.Cursor < len(m.Visible)-1 {
			m.Cursor++
		}
	case "k", "up":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "g":
		m.Cursor = 0
	case "G":
		m.Cursor = len(m.Visible) - 1
		if m.Cursor < 0 {
			m.Cursor = 0
		}
	case "/":
		if !m.TrashView {
			m.CurrentMode = SearchMode
			m.SearchInput = ""
		}
	case "?":
		m.CurrentMode = HelpMode
	case "enter":
		return m.copyCurrent()
	case "p":
		return m.mutateCurrent("pin toggled", func(id string) error {
			return m.service.TogglePin(m.ctx, id)
		})
	case "t":
		return m.mutateCurrent("trash toggled", func(id string) error {
			return m.service.ToggleTrash(m.ctx, []string{id})
		})
	case "r":
		if m.TrashView {
			return m.mutateCurrent("restored", func(id string) error {
				return m.service.Restore(m.ctx, []string{id})
			})
		}
		if err := m.reload(); err != nil {
			return m.flash(fmt.Sprintf("reload failed: %v", err))
		}
		return m.flash("reloaded")
	case "d":
		if m.TrashView {
			return m.mutateCurrent("deleted", func(id string) error {
				return m.service.Delete(m.ctx, []string{id})
			})
		}
	case "u":
		if !m.TrashView {
			return m.mutateCurrent("unsaved", func(id string) error {
				return m.service.Unsave(m.ctx, id)
			})
		}
	case "s":
		if !m.TrashView && m.current() != nil {
			m.CurrentMode = SaveMode
			m.InputBuffer = ""
		}
	case "l":
		if !m.TrashView && m.current() != nil {
			m.CurrentMode = LabelMode
			m.InputBuffer = m.current().Label
		}
	}
	return m, nil
}

// copyCurrent writes the record under the cursor back to the clipboard.
func (m *Model) copyCurrent() (tea.Model, tea.Cmd) {
	record := m.current()
	if record == nil {
		return m, nil
	}
	if err := m.clipboard.Write(record.Text); err != nil {
		return m.flash(fmt.Sprintf("copy failed: %v", err))
	}
	return m.flash("copied to clipboard")
}

// mutateCurrent applies a service mutation to the record under the
// cursor and reloads.
func (m *Model) mutateCurrent(done string, op func(id string) error) (tea.Model, tea.Cmd) {
	record := m.current()
	if record == nil {
		return m, nil
	}
	if err := op(record.ID); err != nil {
		return m.flash(fmt.Sprintf("error: %v", err))
	}
	if err := m.reload(); err != nil {
		return m.flash(fmt.Sprintf("reload failed: %v", err))
	}
	return m.flash(done)
}

// commitLabel applies the label input buffer to the current record.
func (m *Model) commitLabel() (tea.Model, tea.Cmd) {
	label := m.InputBuffer
	m.InputBuffer = ""
	m.CurrentMode = NormalMode
	return m.mutateCurrent("label updated", func(id string) error {
		return m.service.AssignLabel(m.ctx, id, label)
	})
}

// commitSave saves the current record under the typed category name.
func (m *Model) commitSave() (tea.Model, tea.Cmd) {
	name := m.InputBuffer
	m.InputBuffer = ""
	m.CurrentMode = NormalMode
	return m.mutateCurrent("saved to "+strings.TrimSpace(name), func(id string) error {
		return m.service.SaveToCategory(m.ctx, id, name)
	})
}

// flash shows a temporary status message.
func (m *Model) flash(message string) (tea.Model, tea.Cmd) {
	m.FlashMessage = message
	m.FlashExpiry = time.Now().Add(flashDuration)
	return m, tea.Tick(flashDuration, func(time.Time) tea.Msg {
		return flashExpiredMsg{}
	})
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.CurrentMode == HelpMode {
		return m.helpView()
	}

	var b strings.Builder

	title := "History"
	if m.TrashView {
		title = "Trash"
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	b.WriteString(titleStyle.Render(title) + "\n")

	if len(m.Visible) == 0 {
		empty := "No records"
		if m.TrashView {
			empty = "Trash is empty"
		}
		b.WriteString(lipgloss.NewStyle().Faint(true).Padding(1, 2).Render(empty) + "\n")
	}

	visibleRows := m.Height - 4
	if visibleRows < 1 {
		visibleRows = 1
	}
	start := 0
	if m.Cursor >= visibleRows {
		start = m.Cursor - visibleRows + 1
	}

	lastDay := ""
	for i := start; i < len(m.Visible) && i < start+visibleRows; i++ {
		record := m.Visible[i]

		day := projection.DateKey(record.Timestamp)
		if day != lastDay && !m.TrashView {
			lastDay = day
			b.WriteString(lipgloss.NewStyle().Faint(true).Render("  "+day) + "\n")
		}

		line := m.recordLine(record)
		if i == m.Cursor {
			line = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("205")).
				Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n" + m.statusLine())
	return b.String()
}

// recordLine renders one record row.
func (m *Model) recordLine(record store.Record) string {
	label := record.Label
	if idx := strings.IndexByte(label, '\n'); idx >= 0 {
		label = label[:idx]
	}
	maxLen := m.Width - 30
	if maxLen < 10 {
		maxLen = 10
	}
	if runes := []rune(label); len(runes) > maxLen {
		label = string(runes[:maxLen-3]) + "..."
	}

	markers := ""
	if record.Pinned {
		markers += " *"
	}
	if record.Category != nil {
		markers += " [" + record.Category.Name + "]"
	}

	host := record.Source.Hostname
	if host != "" {
		host = "  " + lipgloss.NewStyle().Faint(true).Render(host)
	}
	return label + markers + host
}

// statusLine renders the bottom bar for the current mode.
func (m *Model) statusLine() string {
	style := lipgloss.NewStyle().Faint(true)

	switch m.CurrentMode {
	case SearchMode:
		return "/" + m.SearchInput + "█"
	case LabelMode:
		return "label: " + m.InputBuffer + "█"
	case SaveMode:
		return "save to category: " + m.InputBuffer + "█"
	}

	if m.FlashMessage != "" && time.Now().Before(m.FlashExpiry) {
		return style.Render(m.FlashMessage)
	}

	help := "j/k move  enter copy  p pin  t trash  s save  l label  / search  ? help  q quit"
	if m.TrashView {
		help = "j/k move  r restore  t untrash  d delete  q quit"
	}
	return style.Render(help)
}

// helpView renders the full key reference.
func (m *Model) helpView() string {
	lines := []string{
		"copysaver browser",
		"",
		"  j/k, up/down   move cursor",
		"  g / G          first / last record",
		"  enter          copy record text to clipboard",
		"  p              toggle pin",
		"  t              toggle trash",
		"  s              save under a category (pins)",
		"  u              unsave from category",
		"  l              edit label",
		"  /              filter by label",
		"  r              restore (trash) / reload (history)",
		"  d              delete permanently (trash only)",
		"  q              quit",
		"",
		"press any key to return",
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(strings.Join(lines, "\n"))
}
