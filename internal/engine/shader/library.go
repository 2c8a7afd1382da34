package shader

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/scenery/internal/assets"
	"github.com/Faultbox/scenery/internal/engine/shader/shaders"
	"github.com/Faultbox/scenery/internal/logger"
)

// ErrNoStages is returned when a program is requested without any source.
var ErrNoStages = errors.New("no shader stages")

// Library resolves stage sources by file name. Embedded defaults are always
// available; directories added later take precedence over them.
type Library struct {
	assets *assets.Manager
	log    *zap.Logger
}

// NewLibrary creates a library over the embedded defaults and the optional
// override directories.
func NewLibrary(dirs ...string) (*Library, error) {
	m := assets.NewManager()
	m.AddFS("embedded", shaders.FS)
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := m.AddDir(dir); err != nil {
			return nil, fmt.Errorf("shader library: %w", err)
		}
	}
	return NewLibraryFrom(m), nil
}

// NewLibraryFrom creates a library over an existing asset manager.
func NewLibraryFrom(m *assets.Manager) *Library {
	return &Library{assets: m, log: logger.Named("shader")}
}

// Has reports whether a stage file with the given name exists.
func (l *Library) Has(name string) bool {
	return l.assets.Exists(name)
}

// Sources loads every named stage file. The stage is taken from the extension.
func (l *Library) Sources(names ...string) ([]Source, error) {
	if len(names) == 0 {
		return nil, ErrNoStages
	}
	out := make([]Source, 0, len(names))
	for _, name := range names {
		stage, err := StageOf(name)
		if err != nil {
			return nil, err
		}
		code, err := l.assets.Load(name)
		if err != nil {
			return nil, fmt.Errorf("loading shader %s: %w", name, err)
		}
		out = append(out, Source{Name: name, Stage: stage, Code: string(code)})
	}
	return out, nil
}

// Derived returns the stage files named after base that exist, in Stages order.
func (l *Library) Derived(base string) []string {
	var found []string
	for _, name := range FileNames(base) {
		if l.Has(name) {
			found = append(found, name)
		}
	}
	return found
}

// Invalidate drops cached sources so the next load rereads them.
func (l *Library) Invalidate(names ...string) {
	l.assets.Invalidate(names...)
	l.log.Debug("shader cache invalidated", zap.Strings("files", names))
}
