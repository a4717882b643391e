package config

import (
	_ "embed"
	"fmt"

	"gopkg.in/ini.v1"
)

//go:embed match.ini
var defaultMatchINI []byte

// matchSections lists the INI sections mapped onto MatchConfig, in load order.
var matchSections = []string{"match", "commands", "guard", "core"}

// LoadMatchINI layers an INI file over the embedded defaults.
// Keys missing from the file keep their default values.
func LoadMatchINI(path string) (MatchConfig, error) {
	sources := []interface{}{}
	if path != "" {
		sources = append(sources, path)
	}
	return loadMatchSources(sources...)
}

// ParseMatchINI layers raw INI bytes over the embedded defaults.
func ParseMatchINI(data []byte) (MatchConfig, error) {
	return loadMatchSources(data)
}

func loadMatchSources(others ...interface{}) (MatchConfig, error) {
	cfg := DefaultMatch()

	opts := ini.LoadOptions{
		SkipUnrecognizableLines: true,
		Insensitive:             true,
	}
	file, err := ini.LoadSources(opts, defaultMatchINI, others...)
	if err != nil {
		return cfg, fmt.Errorf("config: load match ini: %w", err)
	}

	for _, name := range matchSections {
		if err := file.Section(name).MapTo(&cfg); err != nil {
			return DefaultMatch(), fmt.Errorf("config: map section %s: %w", name, err)
		}
	}

	return cfg, nil
}
