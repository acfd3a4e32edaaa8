package cook

import (
	"path"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind classifies how an asset is cooked.
type Kind string

const (
	// KindText assets are normalized before digesting.
	KindText Kind = "text"
	// KindBinary assets are copied byte for byte.
	KindBinary Kind = "binary"
)

var textExtensions = map[string]struct{}{
	".txt":    {},
	".json":   {},
	".csv":    {},
	".xml":    {},
	".ini":    {},
	".toml":   {},
	".yaml":   {},
	".yml":    {},
	".md":     {},
	".lua":    {},
	".glsl":   {},
	".hlsl":   {},
	".shader": {},
	".loc":    {},
}

// KindFor classifies a file name by extension.
func KindFor(name string) Kind {
	if _, ok := textExtensions[strings.ToLower(path.Ext(name))]; ok {
		return KindText
	}
	return KindBinary
}

// TitleFor derives a display title from an asset name: "ui/main_menu.json"
// becomes "Main Menu".
func TitleFor(name string) string {
	base := path.Base(name)
	base = strings.TrimSuffix(base, path.Ext(base))
	base = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(base)
	base = strings.Join(strings.Fields(base), " ")
	if base == "" {
		return name
	}
	// Casers carry state, so each call gets its own.
	return cases.Title(language.English).String(base)
}
