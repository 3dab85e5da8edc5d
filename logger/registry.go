package logger

import "sync"

// components holds loggers registered per component name. Packages that log
// call Get with their own name, so an application can route one component's
// output elsewhere by registering it first.
var components = struct {
	sync.RWMutex
	m map[string]*Logger
}{m: make(map[string]*Logger)}

// Register binds a logger to a component name.
func Register(component string, l *Logger) {
	components.Lock()
	components.m[component] = l
	components.Unlock()
}

// Get returns the logger registered for component, or the global logger
// tagged with the component name.
func Get(component string) *Logger {
	components.RLock()
	l, ok := components.m[component]
	components.RUnlock()
	if ok {
		return l
	}
	return GetGlobalLogger().WithComponent(component)
}
