package logger

import (
	"sync"
)

// Component names of the loggers starschema registers at startup.
const (
	ComponentExecutor  = "executor"
	ComponentStage     = "stage"
	ComponentWarehouse = "warehouse"
	ComponentStorage   = "storage"
)

// Components lists every component RegisterComponents seeds by default.
var Components = []string{ComponentExecutor, ComponentStage, ComponentWarehouse, ComponentStorage}

var components = struct {
	mu      sync.RWMutex
	loggers map[string]*Logger
}{loggers: make(map[string]*Logger)}

// Get returns the logger of component name. Unregistered components get the
// global logger tagged with name.
func Get(name string) *Logger {
	components.mu.RLock()
	l, ok := components.loggers[name]
	components.mu.RUnlock()
	if ok {
		return l
	}
	return GetGlobalLogger().WithComponent(name)
}

// RegisterComponents derives a component-tagged logger from base for each
// name, replacing any logger registered earlier. With no names it seeds
// Components.
func RegisterComponents(base *Logger, names ...string) {
	if len(names) == 0 {
		names = Components
	}
	components.mu.Lock()
	defer components.mu.Unlock()
	for _, name := range names {
		components.loggers[name] = base.WithComponent(name)
	}
}
