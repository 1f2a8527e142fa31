package watch

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kestrelhq/relay-gw/internal/events"
)

const maxRows = 50

// deliveryRow is one rendered delivery in the table.
type deliveryRow struct {
	at        time.Time
	webhookID string
	status    string
	runID     string
}

// Model is the bubbletea model for the watch TUI.
type Model struct {
	apiURL string
	apiKey string
	theme  Theme

	table     table.Model
	rows      []deliveryRow
	runCount  int
	connected bool
	lastErr   error

	eventCh chan events.Event
	width   int
	height  int
}

func New(apiURL, apiKey string) *Model {
	columns := []table.Column{
		{Title: "Time", Width: 10},
		{Title: "Webhook", Width: 36},
		{Title: "Status", Width: 18},
		{Title: "Run", Width: 36},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(20),
	)

	return &Model{
		apiURL:  apiURL,
		apiKey:  apiKey,
		theme:   NewDefaultTheme(),
		table:   t,
		eventCh: make(chan events.Event, 64),
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		subscribeToEvents(m.apiURL, m.apiKey, m.eventCh),
		receiveNextEvent(m.eventCh),
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(max(5, msg.Height-6))
		return m, nil

	case eventMsg:
		m.connected = true
		m.apply(events.Event(msg))
		return m, receiveNextEvent(m.eventCh)

	case sseDisconnectedMsg:
		m.connected = false
		return m, scheduleReconnect()

	case reconnectMsg:
		return m, tea.Batch(
			subscribeToEvents(m.apiURL, m.apiKey, m.eventCh),
			receiveNextEvent(m.eventCh),
		)

	case errMsg:
		m.lastErr = msg
		return m, nil
	}

	return m, nil
}

// apply folds one hub event into the view state.
func (m *Model) apply(ev events.Event) {
	switch ev.Type {
	case events.TypeRun:
		m.runCount++
	case events.TypeDelivery:
		var record struct {
			WebhookID     string  `json:"webhook_id"`
			Status        string  `json:"status"`
			WorkflowRunID *string `json:"workflow_run_id"`
		}
		if err := json.Unmarshal(ev.Data, &record); err != nil {
			return
		}
		row := deliveryRow{
			at:        ev.At,
			webhookID: record.WebhookID,
			status:    record.Status,
		}
		if record.WorkflowRunID != nil {
			row.runID = *record.WorkflowRunID
		}
		m.rows = append([]deliveryRow{row}, m.rows...)
		if len(m.rows) > maxRows {
			m.rows = m.rows[:maxRows]
		}
		m.refreshTable()
	}
}

func (m *Model) refreshTable() {
	rows := make([]table.Row, 0, len(m.rows))
	for _, r := range m.rows {
		rows = append(rows, table.Row{
			r.at.Local().Format("15:04:05"),
			r.webhookID,
			m.theme.statusStyle(r.status).Render(r.status),
			r.runID,
		})
	}
	m.table.SetRows(rows)
}

func (m *Model) View() string {
	title := m.theme.Title.Render("relay-gw watch")

	conn := m.theme.StatusFailed.Render("disconnected")
	if m.connected {
		conn = m.theme.StatusSuccess.Render("connected")
	}
	status := m.theme.Dim.Render(fmt.Sprintf("%s  runs created: %d", conn, m.runCount))
	if m.lastErr != nil {
		status += "  " + m.theme.StatusFailed.Render(m.lastErr.Error())
	}

	body := m.theme.Border.Render(m.table.View())
	help := m.theme.Dim.Render("q: quit")

	return lipgloss.JoinVertical(lipgloss.Left, title, status, body, help)
}
