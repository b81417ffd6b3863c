package xlator

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/volgraph/volgraph/internal/dict"
)

// Factory builds a translator instance of a registered type, mirroring the
// teacher's fs.RegInfo.NewFs pattern: one constructor per type name,
// resolved by the graph loader at parse time.
type Factory func(name string, opts *dict.Dict, logger *logrus.Logger) (Translator, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register adds a translator type to the registry. Called from each
// translator package's init(), e.g. storage/kv, protocol/client,
// mount/fuse. Re-registering an existing name panics: it indicates a
// packaging bug, not a runtime condition.
func Register(typeName string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[typeName]; exists {
		panic(fmt.Sprintf("xlator: type %q already registered", typeName))
	}
	registry[typeName] = f
}

// New resolves typeName to its factory and constructs an instance. An
// unknown type is a fatal load-time condition.
func New(typeName, name string, opts *dict.Dict, logger *logrus.Logger) (Translator, error) {
	registryMu.RLock()
	f, ok := registry[typeName]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("xlator: unknown translator type %q", typeName)
	}
	return f(name, opts, logger)
}

// Known reports whether typeName is registered, used by the parser to
// fail fast before attempting construction.
func Known(typeName string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[typeName]
	return ok
}
