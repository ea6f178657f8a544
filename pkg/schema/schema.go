package schema

import "time"

// Receipt is the state file left at the volume root after a completed
// run, so the next invocation (or a human) can tell what was installed
// and when.
type Receipt struct {
	RunID       string    `yaml:"run_id"`
	Tag         string    `yaml:"tag"`
	Revision    string    `yaml:"revision"`
	Device      string    `yaml:"device"`
	Variant     string    `yaml:"variant"`
	Force       bool      `yaml:"force"`
	Operations  []string  `yaml:"operations"`
	InstalledAt time.Time `yaml:"installed_at"`
}
