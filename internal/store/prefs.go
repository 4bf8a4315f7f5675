package store

import (
	"os"
	"path/filepath"
	"strings"

	"ai-chat-console/backend/pkg/errors"
)

// ModelPrefs persists the last-selected model under its own key,
// independent of any session's lifecycle. It is process-wide state:
// clearing a session never touches it.
type ModelPrefs struct {
	path         string
	defaultModel string
}

// NewModelPrefs creates a preference store in dir with the given default.
func NewModelPrefs(dir, defaultModel string) *ModelPrefs {
	return &ModelPrefs{
		path:         filepath.Join(dir, "selected-model"),
		defaultModel: defaultModel,
	}
}

// Load returns the stored model selection, or the default when nothing
// usable is stored.
func (p *ModelPrefs) Load() string {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return p.defaultModel
	}
	model := strings.TrimSpace(string(data))
	if model == "" {
		return p.defaultModel
	}
	return model
}

// Save records the model selection for the next startup.
func (p *ModelPrefs) Save(model string) error {
	if err := os.WriteFile(p.path, []byte(model+"\n"), 0o644); err != nil {
		return errors.NewStorageError(err)
	}
	return nil
}
