// Package localization provides the catalog of languages users can pick as
// their native language. Each <lang>.json file maps language codes to their
// display names in <lang>; "en" is the reference set of supported codes.
package localization

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
)

//go:embed languages/*.json
var embedded embed.FS

const fallbackLang = "en"

// Language is one supported target locale.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Catalog manages the display names of supported languages.
type Catalog struct {
	names map[string]map[string]string
	mu    sync.RWMutex
}

// NewCatalog loads the built-in language files.
func NewCatalog() (*Catalog, error) {
	return LoadCatalog(embedded, "languages")
}

// LoadCatalog loads every <lang>.json file under dir in fsys.
func LoadCatalog(fsys fs.FS, dir string) (*Catalog, error) {
	c := &Catalog{names: make(map[string]map[string]string)}

	files, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read language directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}
		lang := strings.TrimSuffix(file.Name(), ".json")

		data, err := fs.ReadFile(fsys, path.Join(dir, file.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read language file %s: %w", file.Name(), err)
		}

		var names map[string]string
		if err := json.Unmarshal(data, &names); err != nil {
			return nil, fmt.Errorf("failed to parse language file %s: %w", file.Name(), err)
		}
		c.names[lang] = names
	}

	if _, ok := c.names[fallbackLang]; !ok {
		return nil, fmt.Errorf("language catalog is missing %s.json", fallbackLang)
	}
	return c, nil
}

// Supported reports whether code can be used as a translation target.
func (c *Catalog) Supported(code string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.names[fallbackLang][code]
	return ok
}

// Name returns the display name of code in displayLang, falling back to English
// and finally to the code itself.
func (c *Catalog) Name(displayLang, code string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if names, ok := c.names[displayLang]; ok {
		if value, ok := names[code]; ok {
			return value
		}
	}
	if value, ok := c.names[fallbackLang][code]; ok {
		return value
	}
	return code
}

// Languages lists every supported language named in displayLang, sorted by code.
func (c *Catalog) Languages(displayLang string) []Language {
	c.mu.RLock()
	codes := make([]string, 0, len(c.names[fallbackLang]))
	for code := range c.names[fallbackLang] {
		codes = append(codes, code)
	}
	c.mu.RUnlock()

	sort.Strings(codes)
	out := make([]Language, 0, len(codes))
	for _, code := range codes {
		out = append(out, Language{Code: code, Name: c.Name(displayLang, code)})
	}
	return out
}
