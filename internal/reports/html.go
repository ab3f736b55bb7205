package reports

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

var reportTemplate = template.Must(template.New("report.html.tmpl").
	Funcs(template.FuncMap{
		"title": func(s string) string {
			words := strings.Fields(strings.ReplaceAll(s, "_", " "))
			for i, word := range words {
				words[i] = strings.ToUpper(word[:1]) + word[1:]
			}
			return strings.Join(words, " ")
		},
		"cell": func(row map[string]any, column string) any {
			return row[column]
		},
	}).
	ParseFS(templateFS, "templates/report.html.tmpl"))

// RenderHTML writes the report as a standalone HTML page.
func RenderHTML(w io.Writer, report *Report) error {
	if err := reportTemplate.Execute(w, report); err != nil {
		return fmt.Errorf("reports: render html: %w", err)
	}
	return nil
}
