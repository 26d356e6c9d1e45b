package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dokufrage/dokufrage/client"
	"github.com/dokufrage/dokufrage/models"
)

func newTestModel() Model {
	return NewModel(client.New("http://localhost:8080"))
}

func enter() tea.Msg {
	return tea.KeyMsg{Type: tea.KeyEnter}
}

func TestSubmitBlankQuestionShowsAlertAndSendsNothing(t *testing.T) {
	m := newTestModel()
	m.input.SetValue("   \t ")

	updated, cmd := m.Update(enter())
	got := updated.(Model)

	assert.Nil(t, cmd, "no request command may be issued for a blank question")
	assert.Equal(t, "Bitte geben Sie eine Frage ein.", got.alert)
	assert.False(t, got.asking, "loading state must not be entered")
	assert.Equal(t, 0, got.askToken)
}

func TestSubmitQuestionEntersLoadingState(t *testing.T) {
	m := newTestModel()
	m.input.SetValue("Was ist die Hauptstadt von Frankreich?")

	updated, cmd := m.Update(enter())
	got := updated.(Model)

	assert.NotNil(t, cmd)
	assert.True(t, got.asking)
	assert.Equal(t, 1, got.askToken)
	assert.False(t, got.showAnswer, "previous answer is hidden while loading")
}

func TestAskResultRendersAnswerAndSources(t *testing.T) {
	m := newTestModel()
	m.asking = true
	m.askToken = 1

	updated, _ := m.Update(askResultMsg{
		token: 1,
		resp: &models.AskResponse{
			Success: true,
			Answer:  "Paris",
			Sources: []models.Source{{Filename: "geo.txt", Score: 0.873}},
		},
	})
	got := updated.(Model)

	assert.False(t, got.asking)
	assert.True(t, got.showAnswer)
	assert.Equal(t, "Paris", got.answer)
	require.Len(t, got.sourceLines, 1)
	assert.Equal(t, "geo.txt (Relevanz: 87.3%)", got.sourceLines[0])
}

func TestAskResultWithoutSourcesRendersPlaceholder(t *testing.T) {
	m := newTestModel()
	m.asking = true
	m.askToken = 1

	updated, _ := m.Update(askResultMsg{
		token: 1,
		resp:  &models.AskResponse{Success: true, Answer: "X"},
	})
	got := updated.(Model)

	assert.Equal(t, []string{client.NoSourcesPlaceholder}, got.sourceLines)
}

func TestStaleAskResultIsDropped(t *testing.T) {
	m := newTestModel()
	m.asking = true
	m.askToken = 2 // a newer submission is outstanding

	updated, _ := m.Update(askResultMsg{
		token: 1,
		resp:  &models.AskResponse{Success: true, Answer: "veraltet"},
	})
	got := updated.(Model)

	assert.True(t, got.asking, "the newer request is still in flight")
	assert.False(t, got.showAnswer)
	assert.Empty(t, got.answer)
}

func TestAskFailureShowsAlertAndKeepsAnswerHidden(t *testing.T) {
	m := newTestModel()
	m.asking = true
	m.askToken = 1

	updated, _ := m.Update(askResultMsg{
		token: 1,
		resp:  &models.AskResponse{Success: false, Message: "no index"},
	})
	got := updated.(Model)

	assert.False(t, got.asking)
	assert.Equal(t, "no index", got.alert)
	assert.False(t, got.showAnswer)
}

func TestAskTransportFailureShowsAlert(t *testing.T) {
	m := newTestModel()
	m.asking = true
	m.askToken = 1

	updated, _ := m.Update(askResultMsg{token: 1, err: errors.New("connection refused")})
	got := updated.(Model)

	assert.False(t, got.asking)
	assert.Contains(t, got.alert, "connection refused")
}

func TestIndexTriggerIsLatchedWhileRunning(t *testing.T) {
	m := newTestModel()

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	got := updated.(Model)
	assert.NotNil(t, cmd)
	assert.True(t, got.indexing)

	// A second trigger while one is outstanding is inert.
	updated, cmd = got.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	got = updated.(Model)
	assert.Nil(t, cmd)
}

func TestIndexTriggerReenabledOnEveryOutcome(t *testing.T) {
	outcomes := []indexResultMsg{
		{resp: &models.IndexResponse{Success: true, Message: "12 Chunks aus 3 Dokumenten erfolgreich indexiert"}},
		{resp: &models.IndexResponse{Success: false, Message: "Keine Dokumente im Dokumentenverzeichnis gefunden"}},
		{err: errors.New("connection refused")},
	}

	for _, outcome := range outcomes {
		m := newTestModel()
		m.indexing = true

		updated, _ := m.Update(outcome)
		got := updated.(Model)
		assert.False(t, got.indexing, "trigger must be re-armed after %+v", outcome)
	}
}

func TestIndexTransportFailureShowsErrorStatus(t *testing.T) {
	m := newTestModel()
	m.indexing = true

	updated, _ := m.Update(indexResultMsg{err: errors.New("connection refused")})
	got := updated.(Model)

	assert.Contains(t, got.indexStatus, "Fehler beim Indexieren")
	assert.Contains(t, got.indexStatus, "connection refused")
	assert.False(t, got.indexOK)
}

func TestAlertSwallowsInputUntilDismissed(t *testing.T) {
	m := newTestModel()
	m.alert = "Bitte geben Sie eine Frage ein."
	m.input.SetValue("eine Frage")

	// Enter dismisses the alert instead of submitting.
	updated, cmd := m.Update(enter())
	got := updated.(Model)
	assert.Nil(t, cmd)
	assert.Empty(t, got.alert)
	assert.Equal(t, 0, got.askToken)
}
