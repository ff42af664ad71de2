// Package translation registers the message catalogs used for dialog,
// notification and error text. Lookups go through fyne.io/fyne/v2/lang;
// a message without a translation falls back to its English source text.
package translation

import (
	"embed"

	"fyne.io/fyne/v2/lang"
)

//go:embed translations
var translations embed.FS

// Load adds the catalogs and selects the closest match to the user's locale.
func Load() error {
	return lang.AddTranslationsFS(translations, "translations")
}
