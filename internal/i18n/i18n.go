package i18n

import (
	"embed"
	"encoding/json"
	"log"
	"strings"
	"sync"
)

//go:embed locales
var content embed.FS

var (
	once    sync.Once
	locales map[string]map[string]string
)

// SupportedLanguages lists the UI/document languages.
var SupportedLanguages = []string{
	"en", // English
	"ar", // Arabic
}

func load() {
	locales = make(map[string]map[string]string)
	for _, lang := range SupportedLanguages {
		data, err := content.ReadFile("locales/" + lang + ".json")
		if err != nil {
			log.Printf("Warning: Failed to load locale %s: %v\n", lang, err)
			continue
		}
		table := make(map[string]string)
		if err := json.Unmarshal(stripComments(data), &table); err != nil {
			log.Printf("Warning: Failed to parse locale %s: %v\n", lang, err)
			continue
		}
		locales[lang] = table
	}
}

// stripComments removes // line comments so the locale files can carry
// translator notes. Anything after // on a line is dropped.
func stripComments(data []byte) []byte {
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "//") {
			continue
		}
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		out = append(out, line)
	}
	return []byte(strings.Join(out, "\n"))
}

// T returns the localized string for key, falling back to English and
// finally to the key itself so a missing translation never blanks a label.
func T(language, key string) string {
	once.Do(load)
	if table, ok := locales[language]; ok {
		if v, ok := table[key]; ok {
			return v
		}
	}
	if table, ok := locales["en"]; ok {
		if v, ok := table[key]; ok {
			return v
		}
	}
	return key
}
