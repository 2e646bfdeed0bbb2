// internal/di/container.go
package di

import (
	"sync"
)

// Container is a simple dependency injection container.
type Container struct {
	services map[string]interface{}
	mutex    sync.RWMutex
}

// Global container instance (singleton)
var (
	globalContainer *Container
	once            sync.Once
)

// NewContainer creates a new dependency injection container.
func NewContainer() *Container {
	return &Container{
		services: make(map[string]interface{}),
	}
}

// GetContainer returns the global container instance.
func GetContainer() *Container {
	once.Do(func() {
		globalContainer = NewContainer()
	})
	return globalContainer
}

// Register registers a service instance under a name.
func (c *Container) Register(name string, service interface{}) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.services[name] = service
}

// Get returns a registered service instance, or nil when absent.
func (c *Container) Get(name string) interface{} {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.services[name]
}

// Has reports whether a service is registered under the name.
func (c *Container) Has(name string) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	_, ok := c.services[name]
	return ok
}

// GetNames returns the names of all registered services.
func (c *Container) GetNames() []string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	names := make([]string, 0, len(c.services))
	for name := range c.services {
		names = append(names, name)
	}
	return names
}
