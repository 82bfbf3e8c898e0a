package transcribe

import (
	"fmt"
	"strings"

	"github.com/blegdams/journal-cli/internal/model"
)

const systemPrompt = `You are given a scanned page from a Danish hospital patient journal from the late 1800s. Your task is to extract data from the content on the page and return it as a single JSON object.`

// extractionPrompt renders the per-page instruction text from the field
// schema. The field list and guidelines mirror the journal layout the
// model is asked to read.
func extractionPrompt(schema *model.Schema) string {
	var b strings.Builder
	b.WriteString("Objective:\n")
	b.WriteString("Fill each field with the information found in the image.\n")
	b.WriteString("If a field cannot be determined, use null for that field.\n\n")
	b.WriteString("Output format:\n")
	b.WriteString("Return a single JSON object with exactly these fields, using dots to denote nesting:\n\n")

	for _, f := range schema.Fields {
		fmt.Fprintf(&b, "- %s (%s)", f.Path, f.Kind)
		if f.Description != "" {
			b.WriteString(": ")
			b.WriteString(f.Description)
		}
		if f.Optional {
			b.WriteString(" [may be absent]")
		}
		b.WriteString("\n")
	}

	b.WriteString("\nGuidelines:\n")
	b.WriteString("- Use only what is visible in the image.\n")
	b.WriteString("- Do not infer or guess beyond the evidence on the page.\n")
	b.WriteString("- Preserve spellings exactly as written, even if archaic or non-standard.\n")
	b.WriteString("- If multiple values exist for a field, choose the most prominent or clearly stated one.\n")
	b.WriteString("- Replace any newline characters within a field with a single space.\n")
	b.WriteString("- Return nothing except the JSON object.\n")
	return b.String()
}
