package tuitest

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestStripANSI(t *testing.T) {
	in := "\x1b[1;31mred\x1b[0m   \n\x1b[32mgreen\x1b[0m\n\n"
	assert.Equal(t, "red\ngreen", StripANSI(in))
}

func TestKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "enter", want: "enter"},
		{in: "esc", want: "esc"},
		{in: "ctrl+c", want: "ctrl+c"},
		{in: "j", want: "j"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Key(tt.in).String())
		})
	}

	assert.Equal(t, tea.KeySpace, Key("space").Type)
	assert.Equal(t, tea.KeyRunes, KeyPress('x').Type)
}
