// Package tui implements the terminal front-end: one trigger for document
// indexing and one form for questions, bound to the Dokufrage API the same
// way the web page binds its button and form.
package tui

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dokufrage/dokufrage/client"
	"github.com/dokufrage/dokufrage/models"
)

// indexResultMsg carries the outcome of an index run.
type indexResultMsg struct {
	resp *models.IndexResponse
	err  error
}

// askResultMsg carries the outcome of a question. The token identifies which
// submission it belongs to; stale results are dropped.
type askResultMsg struct {
	token int
	resp  *models.AskResponse
	err   error
}

// Model is the Bubble Tea model for ragctl.
type Model struct {
	api *client.Client

	input   textinput.Model
	spinner spinner.Model

	// Sub-flow A: index trigger. While indexing is true the trigger is
	// inert; it is reset on every outcome.
	indexing    bool
	indexStatus string
	indexOK     bool

	// Sub-flow B: question submission. askToken increases with every
	// submission; only the newest submission may render an answer.
	asking   bool
	askToken int

	answer      string
	sourceLines []string
	showAnswer  bool

	alert string
}

// NewModel builds the initial model around an API client.
func NewModel(api *client.Client) Model {
	input := textinput.New()
	input.Placeholder = "Ihre Frage zu den Dokumenten..."
	input.Focus()
	input.CharLimit = 500
	input.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		api:     api,
		input:   input,
		spinner: sp,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// A visible alert swallows all input until dismissed.
		if m.alert != "" {
			switch msg.Type {
			case tea.KeyEnter, tea.KeyEsc:
				m.alert = ""
			case tea.KeyCtrlC:
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyCtrlR:
			return m.triggerIndex()
		case tea.KeyEnter:
			return m.submitQuestion()
		}

	case indexResultMsg:
		// The trigger is re-armed on every outcome.
		m.indexing = false
		if msg.err != nil {
			log.Printf("ragctl: Fehler beim Indexieren: %v", msg.err)
			m.indexStatus = fmt.Sprintf("Fehler beim Indexieren: %v", msg.err)
			m.indexOK = false
		} else {
			m.indexStatus = msg.resp.Message
			m.indexOK = msg.resp.Success
		}
		return m, nil

	case askResultMsg:
		if msg.token != m.askToken {
			// A newer submission superseded this one.
			return m, nil
		}
		m.asking = false
		if msg.err != nil {
			log.Printf("ragctl: Fehler bei der Beantwortung: %v", msg.err)
			m.alert = fmt.Sprintf("Fehler bei der Beantwortung: %v", msg.err)
			return m, nil
		}
		if !msg.resp.Success {
			m.alert = msg.resp.Message
			return m, nil
		}
		m.answer = msg.resp.Answer
		m.sourceLines = client.SourceLines(msg.resp.Sources)
		m.showAnswer = true
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.indexing || m.asking {
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// triggerIndex starts an index run unless one is already outstanding.
func (m Model) triggerIndex() (tea.Model, tea.Cmd) {
	if m.indexing {
		return m, nil
	}
	m.indexing = true
	m.indexStatus = "Indexierung läuft, bitte warten..."
	m.indexOK = false

	api := m.api
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		resp, err := api.IndexDocuments(context.Background())
		return indexResultMsg{resp: resp, err: err}
	})
}

// submitQuestion validates the input and issues the request. A blank
// question never leaves the client; superseded requests lose their claim on
// the rendered answer.
func (m Model) submitQuestion() (tea.Model, tea.Cmd) {
	question := strings.TrimSpace(m.input.Value())
	if question == "" {
		m.alert = "Bitte geben Sie eine Frage ein."
		return m, nil
	}

	m.askToken++
	token := m.askToken
	m.asking = true
	m.showAnswer = false

	api := m.api
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		resp, err := api.Ask(context.Background(), question)
		return askResultMsg{token: token, resp: resp, err: err}
	})
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Dokufrage — Fragen an Ihre Dokumente"))
	b.WriteString("\n")

	indexLine := "Strg+R: Dokumente neu indexieren"
	if m.indexing {
		indexLine = m.spinner.View() + " Indexierung läuft, bitte warten..."
	} else if m.indexStatus != "" {
		style := statusErrStyle
		if m.indexOK {
			style = statusOKStyle
		}
		indexLine += "\n" + style.Render(m.indexStatus)
	}
	b.WriteString(panelStyle.Render(indexLine))
	b.WriteString("\n")

	questionPanel := m.input.View()
	if m.asking {
		questionPanel += "\n" + m.spinner.View() + " Antwort wird generiert..."
	}
	b.WriteString(panelStyle.Render(questionPanel))
	b.WriteString("\n")

	if m.showAnswer {
		var answer strings.Builder
		answer.WriteString("Antwort:\n")
		answer.WriteString(m.answer)
		answer.WriteString("\n\nQuellen:\n")
		for _, line := range m.sourceLines {
			answer.WriteString("  • " + line + "\n")
		}
		b.WriteString(panelStyle.Render(strings.TrimRight(answer.String(), "\n")))
		b.WriteString("\n")
	}

	if m.alert != "" {
		b.WriteString(alertStyle.Render(m.alert + "\n\n" + mutedStyle.Render("Enter zum Schließen")))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("Enter: Frage senden · Strg+R: Indexieren · Esc: Beenden"))
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}
