package web

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/MohamedMedhat18/HEO-System/internal/i18n"
)

//go:embed templates
var content embed.FS

// TemplateData holds data to be passed to templates
type TemplateData struct {
	Title     string
	Languages []string
}

// GetTemplateData returns the data shown on the landing page
func GetTemplateData() TemplateData {
	return TemplateData{
		Title:     i18n.T("en", "app_title"),
		Languages: i18n.SupportedLanguages,
	}
}

func ServeTemplate(w http.ResponseWriter, templateName string) error {
	tmpl, err := template.ParseFS(content, "templates/"+templateName)
	if err != nil {
		return err
	}
	return tmpl.Execute(w, GetTemplateData())
}
