package commands

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jrsteele09/atreader/internal/app"
	"golang.org/x/text/language"
)

type Flags struct {
	LogLevel   string
	ConfigPath string
	Lang       string

	// App is built in the Before hook and available to all commands
	App *app.Container
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "atreader", "config.yaml")
}

// DefaultLang derives a BCP 47 tag from LANG ("ru_RU.UTF-8" becomes "ru-RU").
func DefaultLang() string {
	lang := os.Getenv("LANG")
	if i := strings.IndexAny(lang, ".@"); i >= 0 {
		lang = lang[:i]
	}
	lang = strings.ReplaceAll(lang, "_", "-")
	if lang == "" || lang == "C" || lang == "POSIX" {
		return "en"
	}
	return lang
}

// Language parses Lang, falling back to English.
func (f *Flags) Language() language.Tag {
	tag, err := language.Parse(f.Lang)
	if err != nil {
		return language.English
	}
	return tag
}
