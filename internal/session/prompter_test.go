package session

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blegdams/journal-cli/internal/model"
)

func TestTerminalPrompterVerdicts(t *testing.T) {
	t.Parallel()

	prompt := Prompt{
		RecordID:    "p1.png",
		Field:       "patient.name",
		Value:       "Jens Hansen",
		ImagePath:   "/scans/p1.png",
		RecordIndex: 1,
		RecordTotal: 3,
	}

	cases := []struct {
		input string
		want  model.Label
	}{
		{"a\n", model.LabelAccept},
		{"s\n", model.LabelSomewhatAccept},
		{"r\n", model.LabelReject},
		{"u\n", model.LabelUnsure},
		{"  A \n", model.LabelAccept},
	}
	for _, tc := range cases {
		var out bytes.Buffer
		p := NewTerminalPrompter(strings.NewReader(tc.input), &out, false)
		v, err := p.Verdict(prompt)
		require.NoError(t, err)
		assert.False(t, v.Quit)
		assert.Equal(t, tc.want, v.Label, "input %q", tc.input)
	}
}

func TestTerminalPrompterRecordBanner(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	p := NewTerminalPrompter(strings.NewReader("a\na\n"), &out, false)

	prompt := Prompt{RecordID: "p1.png", Field: "is_dead", Value: "true", ImagePath: "/scans/p1.png", RecordIndex: 1, RecordTotal: 1}
	_, err := p.Verdict(prompt)
	require.NoError(t, err)
	prompt.Field = "is_fk"
	_, err = p.Verdict(prompt)
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out.String(), "=== record 1/1: p1.png ==="),
		"the banner prints once per image, not once per field")
	assert.Contains(t, out.String(), "image: /scans/p1.png")
}

func TestTerminalPrompterCorrectionsGate(t *testing.T) {
	t.Parallel()

	t.Run("disabled rejects c and reprompts", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		p := NewTerminalPrompter(strings.NewReader("c\nr\n"), &out, false)
		v, err := p.Verdict(Prompt{})
		require.NoError(t, err)
		assert.Equal(t, model.LabelReject, v.Label)
		assert.Contains(t, out.String(), "corrections are disabled")
		assert.NotContains(t, out.String(), "[c]orrect")
	})

	t.Run("enabled accepts c", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		p := NewTerminalPrompter(strings.NewReader("c\n"), &out, true)
		v, err := p.Verdict(Prompt{})
		require.NoError(t, err)
		assert.Equal(t, model.LabelCorrected, v.Label)
		assert.Contains(t, out.String(), "[c]orrect")
	})
}

func TestTerminalPrompterQuitAndEOF(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	p := NewTerminalPrompter(strings.NewReader("q\n"), &out, false)
	v, err := p.Verdict(Prompt{})
	require.NoError(t, err)
	assert.True(t, v.Quit)

	p = NewTerminalPrompter(strings.NewReader(""), &out, false)
	v, err = p.Verdict(Prompt{})
	require.NoError(t, err)
	assert.True(t, v.Quit, "EOF on stdin ends the session cleanly")
}

func TestTerminalPrompterCorrection(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	p := NewTerminalPrompter(strings.NewReader("  41 \n"), &out, true)
	text, err := p.Correction(Prompt{Field: "patient.age.num"})
	require.NoError(t, err)
	assert.Equal(t, "41", text)
	assert.Contains(t, out.String(), "corrected value for patient.age.num")
}
