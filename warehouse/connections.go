package warehouse

import (
	stderrors "errors"
	"io"
	"sort"
	"sync"

	"github.com/kbukum/starschema/errors"
)

// Connections maps connection ids to clients.
type Connections struct {
	mu      sync.RWMutex
	clients map[string]Client
}

// NewConnections creates an empty registry.
func NewConnections() *Connections {
	return &Connections{clients: make(map[string]Client)}
}

// Register binds id to client, replacing any previous binding.
func (c *Connections) Register(id string, client Client) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clients[id] = client
}

// Resolve returns the client registered under id.
func (c *Connections) Resolve(id string) (Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	client, ok := c.clients[id]
	if !ok {
		return nil, errors.NotFound("connection", id)
	}
	return client, nil
}

// IDs returns the registered connection ids, sorted.
func (c *Connections) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.clients))
	for id := range c.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close closes every client that implements io.Closer and reports all failures.
func (c *Connections) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	for _, id := range sortedKeys(c.clients) {
		if closer, ok := c.clients[id].(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	c.clients = make(map[string]Client)
	return stderrors.Join(errs...)
}

func sortedKeys(m map[string]Client) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
