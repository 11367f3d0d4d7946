package registry

import (
	"fmt"
	"log/slog"

	"github.com/gridwerk/gridwerk/internal/engine"
)

// Catalog holds every module compiled into the binary, in registration
// order. Registration order is significant: modules that primarily declare
// registry entries register before modules that primarily consume them.
type Catalog struct {
	modules []engine.Module
	byName  map[string]engine.Module
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{byName: make(map[string]engine.Module)}
}

// Register adds a module to the catalog. A duplicate name is a programmer
// error and panics at startup, before any scenario work begins.
func (c *Catalog) Register(m engine.Module) {
	name := m.Name()
	if _, exists := c.byName[name]; exists {
		panic(fmt.Sprintf("module with name '%s' already registered", name))
	}
	slog.Debug("Registering module.", "name", name)
	c.modules = append(c.modules, m)
	c.byName[name] = m
}

// Module looks a module up by name.
func (c *Catalog) Module(name string) (engine.Module, bool) {
	m, ok := c.byName[name]
	return m, ok
}

// Names lists the registered module names in registration order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.modules))
	for i, m := range c.modules {
		names[i] = m.Name()
	}
	return names
}

// Len returns the module count.
func (c *Catalog) Len() int { return len(c.modules) }
