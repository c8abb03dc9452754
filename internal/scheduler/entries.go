package scheduler

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Entry is one declared schedule record:
//
//	schedules:
//	  - name: nightly-pilot
//	    rollout: pilot-1.2.0
//	    cron: "0 3 * * *"
//	    enabled: true
type Entry struct {
	Name    string `yaml:"name"`
	Rollout string `yaml:"rollout"`
	Cron    string `yaml:"cron"`
	Enabled *bool  `yaml:"enabled"`
}

// IsEnabled reports the enabled flag; entries that omit it default to
// enabled.
func (e Entry) IsEnabled() bool {
	return e.Enabled == nil || *e.Enabled
}

type scheduleFile struct {
	Schedules []Entry `yaml:"schedules"`
}

// LoadEntries reads the declarative schedule list from a YAML file. A
// missing or unreadable file is an error; an empty schedules list is not.
func LoadEntries(path string) ([]Entry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schedules file %s: %w", path, err)
	}

	var file scheduleFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse schedules file %s: %w", path, err)
	}

	return file.Schedules, nil
}
