package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  Name
		ok    bool
	}{
		{"read all", ReadAll, true},
		{"  Read   ALL ", ReadAll, true},
		{"clear all", ClearAll, true},
		{"help", Help, true},
		{"quit", Quit, true},
		{"q", Quit, true},
		{"delete everything", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := Parse(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestUpdate_EnterEmitsCommand(t *testing.T) {
	m := typeText(New(80, 24), "clear all")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, CommandMsg(ClearAll), cmd())
	assert.Empty(t, m.input.Value())
}

func TestUpdate_EnterUnknown(t *testing.T) {
	m := typeText(New(80, 24), "reboot")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, UnknownCommandMsg("reboot"), cmd())
}

func TestUpdate_EnterOnEmptyInput(t *testing.T) {
	_, cmd := New(80, 24).Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}
