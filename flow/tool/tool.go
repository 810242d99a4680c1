// Package tool provides executable tools for workflow steps and a
// registry for resolving them by name.
package tool

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Tool defines the interface for executable tools that steps can invoke.
//
// Tools let workflows interact with external systems: inventory lookups,
// API calls, database queries, notifications.
//
// Implementations should:
//   - Validate input parameters
//   - Respect context cancellation and timeouts
//   - Return structured output as map[string]interface{}
//   - Be idempotent when possible
//
// Example implementation:
//
//	type StockTool struct{}
//
//	func (s *StockTool) Name() string { return "check_stock" }
//
//	func (s *StockTool) Call(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
//	    sku, ok := input["sku"].(string)
//	    if !ok {
//	        return nil, errors.New("sku parameter required")
//	    }
//	    return map[string]interface{}{"sku": sku, "on_hand": 42}, nil
//	}
type Tool interface {
	// Name returns the unique identifier for this tool.
	// Names should be lowercase with underscores, e.g. "check_stock".
	Name() string

	// Call executes the tool with the provided input and returns the
	// result. input may be nil for parameterless tools. The input
	// structure should match the schema advertised for this tool.
	Call(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error)
}

// Registry resolves tools by name at call time.
//
// Steps hold a *Registry and look tools up when they run, so a tool can
// be swapped after the workflow is built. Rebind replaces a live tool
// with another implementation under the same name, which is how tests
// substitute mocks without touching step code.
//
// Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool under its own name. Registering a name that
// already exists is an error; use Rebind to replace.
func (r *Registry) Register(t Tool) error {
	if t == nil {
		return fmt.Errorf("cannot register nil tool")
	}
	name := t.Name()
	if name == "" {
		return fmt.Errorf("tool has empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}
	r.tools[name] = t
	return nil
}

// Rebind replaces the tool registered under name with t. The
// replacement is visible to the next lookup; steps that resolve through
// the registry pick it up without rebuilding the workflow. Rebinding an
// unknown name is an error.
func (r *Registry) Rebind(name string, t Tool) error {
	if t == nil {
		return fmt.Errorf("cannot rebind to nil tool")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; !exists {
		return fmt.Errorf("tool %q not registered", name)
	}
	r.tools[name] = t
	return nil
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("tool %q not registered", name)
	}
	return t, nil
}

// Call resolves name and executes the tool in one step.
func (r *Registry) Call(ctx context.Context, name string, input map[string]interface{}) (map[string]interface{}, error) {
	t, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return t.Call(ctx, input)
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
