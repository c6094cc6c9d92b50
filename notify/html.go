package notify

import (
	"fmt"
	"html/template"
	"strings"

	"clauseguard-backend/models"
)

var reportTemplate = template.Must(template.New("report").Parse(`<html>
<body style="font-family: Arial, sans-serif; color: #1a1a1a;">
<h2>Contract Risk Report</h2>
<p>Document {{.DocumentID}} &middot; {{len .Entries}} clauses analyzed{{if not .Complete}} &middot; <strong>incomplete: {{.IncompleteReason}}</strong>{{end}}</p>
{{if .Warnings}}<p style="color: #b36b00;">{{range .Warnings}}{{.}}<br>{{end}}</p>{{end}}
<table border="1" cellpadding="6" cellspacing="0" style="border-collapse: collapse; width: 100%;">
<tr style="background: #f0f0f0;">
<th>#</th><th>Risk</th><th>Clause</th><th>Reasons</th><th>Suggested redline</th>
</tr>
{{range .Entries}}
<tr>
<td>{{.Clause.Index}}</td>
{{if .Verdict}}<td align="center">{{.Verdict.RiskScore}}</td>{{else}}<td align="center">&mdash;</td>{{end}}
<td>{{.Clause.Text}}</td>
{{if .Verdict}}<td>{{range .Verdict.Reasons}}&bull; {{.}}<br>{{end}}</td>
<td>{{.Verdict.Redline}}</td>{{else}}<td colspan="2" style="color: #999;">{{.Error}}</td>{{end}}
</tr>
{{end}}
</table>
</body>
</html>`))

// RenderReportHTML renders a report as an email-friendly HTML table.
func RenderReportHTML(report *models.AnalysisReport) (string, error) {
	var sb strings.Builder
	if err := reportTemplate.Execute(&sb, report); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return sb.String(), nil
}

// RenderReportText renders a plain-text alternative of the report.
func RenderReportText(report *models.AnalysisReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Contract Risk Report\nDocument %s, %d clauses analyzed\n", report.DocumentID, len(report.Entries))
	if !report.Complete {
		fmt.Fprintf(&sb, "INCOMPLETE: %s\n", report.IncompleteReason)
	}
	for _, w := range report.Warnings {
		fmt.Fprintf(&sb, "Warning: %s\n", w)
	}
	sb.WriteString("\n")
	for _, entry := range report.Entries {
		fmt.Fprintf(&sb, "Clause %d\n", entry.Clause.Index)
		if entry.Verdict != nil {
			fmt.Fprintf(&sb, "  Risk score: %d\n", entry.Verdict.RiskScore)
			for _, reason := range entry.Verdict.Reasons {
				fmt.Fprintf(&sb, "  - %s\n", reason)
			}
			if entry.Verdict.Redline != "" {
				fmt.Fprintf(&sb, "  Redline: %s\n", entry.Verdict.Redline)
			}
		} else {
			fmt.Fprintf(&sb, "  %s\n", entry.Error)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
