package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestCompletionsMatchTypedPrefix(t *testing.T) {
	m := New(80, 24)
	assert.Equal(t, knownCommands, m.completions())

	m = typeText(t, m, "cl")
	assert.Equal(t, []string{"clear notifications"}, m.completions())

	m = typeText(t, m, "xx")
	assert.Empty(t, m.completions())
}

func TestTabCompletesFirstMatch(t *testing.T) {
	m := New(80, 24)
	m = typeText(t, m, "pe")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Nil(t, cmd)
	assert.Equal(t, "pending users", m.input.Value())
}

func TestEnterEmitsCommand(t *testing.T) {
	m := New(80, 24)
	m = typeText(t, m, "  logout ")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, CommandMsg("logout"), cmd())
	assert.Empty(t, m.input.Value())
}

func TestEnterOnEmptyInputDoesNothing(t *testing.T) {
	m := New(80, 24)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestEscEmitsCancel(t *testing.T) {
	m := New(80, 24)
	m = typeText(t, m, "refr")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, CancelMsg{}, cmd())
	assert.Empty(t, m.input.Value())
}
