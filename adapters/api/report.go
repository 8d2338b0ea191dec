package api

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"goxtab/domain/tabs"
	"goxtab/models"
)

// RenderHTMLReport renders a stored run as an HTML report via markdown
func RenderHTMLReport(record *models.RunRecord) []byte {
	md := RenderMarkdownReport(record)

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	doc := p.Parse([]byte(md))
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.Render(doc, renderer)
}

// RenderMarkdownReport builds the markdown run report: status header,
// skip/warning lists, and one table per question with letters inline.
func RenderMarkdownReport(record *models.RunRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Crosstab Run %s\n\n", record.ID)
	fmt.Fprintf(&b, "- Status: **%s**\n", record.Status)
	fmt.Fprintf(&b, "- Questions tabulated: %d\n", record.Questions)
	fmt.Fprintf(&b, "- Fingerprint: `%s`\n\n", record.Fingerprint)

	if len(record.Skipped) > 0 {
		b.WriteString("## Skipped questions\n\n")
		for _, skip := range record.Skipped {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", skip.Question, skip.Reason, skip.Detail)
		}
		b.WriteString("\n")
	}
	if len(record.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, warning := range record.Warnings {
			fmt.Fprintf(&b, "- %s\n", warning.Message)
		}
		b.WriteString("\n")
	}

	for _, res := range record.Results {
		writeQuestionTable(&b, res)
	}

	return b.String()
}

func writeQuestionTable(b *strings.Builder, res *tabs.QuestionResult) {
	fmt.Fprintf(b, "## %s: %s\n\n", res.Code, res.Text)

	b.WriteString("| |")
	for _, col := range res.Columns {
		fmt.Fprintf(b, " %s (%s) |", col.Label, col.Letter)
	}
	b.WriteString("\n|---|")
	for range res.Columns {
		b.WriteString("---|")
	}
	b.WriteString("\n| Base |")
	for _, base := range res.Bases {
		if base.Empty {
			b.WriteString(" - |")
			continue
		}
		fmt.Fprintf(b, " %d |", base.Unweighted)
	}
	b.WriteString("\n")

	for _, row := range res.Rows {
		fmt.Fprintf(b, "| %s |", row.Label)
		for ci, cell := range row.Cells {
			if res.Bases[ci].Empty {
				b.WriteString(" - |")
				continue
			}
			suffix := ""
			if len(cell.Letters) > 0 {
				suffix = " " + strings.Join(cell.Letters, "")
			}
			if row.Kind == tabs.RowPercent {
				fmt.Fprintf(b, " %g%%%s |", cell.Value, suffix)
			} else {
				fmt.Fprintf(b, " %g%s |", cell.Value, suffix)
			}
		}
		b.WriteString("\n")
	}

	if res.Overall != nil {
		fmt.Fprintf(b, "\nChi-square: %.2f (df=%d, p=%.4f)\n", res.Overall.Stat, res.Overall.DF, res.Overall.PValue)
	}
	b.WriteString("\n")
}
