package session

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/blegdams/journal-cli/internal/model"
)

// TerminalPrompter reads verdicts from an interactive terminal. It
// prints the resolved image path for the reviewer to open alongside;
// image display itself stays outside the tool.
type TerminalPrompter struct {
	in          *bufio.Reader
	out         io.Writer
	corrections bool
	lastImage   string
}

// NewTerminalPrompter creates a prompter over the given streams.
func NewTerminalPrompter(in io.Reader, out io.Writer, corrections bool) *TerminalPrompter {
	return &TerminalPrompter{
		in:          bufio.NewReader(in),
		out:         out,
		corrections: corrections,
	}
}

func (t *TerminalPrompter) Verdict(p Prompt) (Verdict, error) {
	if p.ImagePath != t.lastImage {
		fmt.Fprintf(t.out, "\n=== record %d/%d: %s ===\n", p.RecordIndex, p.RecordTotal, p.RecordID)
		fmt.Fprintf(t.out, "image: %s\n", p.ImagePath)
		t.lastImage = p.ImagePath
	}
	fmt.Fprintf(t.out, "\n%s: %s\n", p.Field, p.Value)

	options := "[a]ccept  [s]omewhat accept  [r]eject  [u]nsure  [q]uit"
	if t.corrections {
		options = "[a]ccept  [s]omewhat accept  [r]eject  [c]orrect  [u]nsure  [q]uit"
	}

	for {
		fmt.Fprintf(t.out, "%s > ", options)
		line, err := t.in.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return Verdict{Quit: true}, nil
			}
			return Verdict{}, eris.Wrap(err, "prompter: read verdict")
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "a":
			return Verdict{Label: model.LabelAccept}, nil
		case "s":
			return Verdict{Label: model.LabelSomewhatAccept}, nil
		case "r":
			return Verdict{Label: model.LabelReject}, nil
		case "u":
			return Verdict{Label: model.LabelUnsure}, nil
		case "c":
			if t.corrections {
				return Verdict{Label: model.LabelCorrected}, nil
			}
			fmt.Fprintln(t.out, "corrections are disabled for this session")
		case "q":
			return Verdict{Quit: true}, nil
		default:
			fmt.Fprintln(t.out, "unrecognized choice")
		}
	}
}

func (t *TerminalPrompter) Correction(p Prompt) (string, error) {
	fmt.Fprintf(t.out, "corrected value for %s > ", p.Field)
	line, err := t.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", eris.Wrap(err, "prompter: read correction")
	}
	return strings.TrimSpace(line), nil
}
