package executor

import (
	"context"
	"fmt"

	"github.com/rmoralis/cloudbatch/pkg/models"
)

// RequestExecutor performs one remote operation. The core never interprets
// params or the response payload; it only measures success and timing.
type RequestExecutor interface {
	Execute(ctx context.Context, service, operation string, params map[string]interface{}) (interface{}, error)
}

// Handler executes one specific (service, operation) pair
type Handler func(ctx context.Context, params map[string]interface{}) (interface{}, error)

type handlerKey struct {
	service   string
	operation string
}

// Registry maps (service, operation) pairs to handlers. Registration happens
// at startup; dispatch never falls back to string matching on unknown pairs.
type Registry struct {
	handlers map[handlerKey]Handler
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[handlerKey]Handler)}
}

// Register binds a handler to a (service, operation) pair. Re-registering a
// pair is a validation error so wiring mistakes surface at startup.
func (r *Registry) Register(service, operation string, h Handler) error {
	if h == nil {
		return &models.Error{Kind: models.ErrValidation, Op: "registry.Register",
			Service: service, Operation: operation,
			Err: fmt.Errorf("nil handler")}
	}
	key := handlerKey{service: service, operation: operation}
	if _, exists := r.handlers[key]; exists {
		return &models.Error{Kind: models.ErrValidation, Op: "registry.Register",
			Service: service, Operation: operation,
			Err: fmt.Errorf("handler already registered")}
	}
	r.handlers[key] = h
	return nil
}

// Validate checks that every request in the list has a registered handler
func (r *Registry) Validate(requests []models.Request) error {
	for _, req := range requests {
		if _, ok := r.handlers[handlerKey{service: req.Service, operation: req.Operation}]; !ok {
			return &models.Error{Kind: models.ErrValidation, Op: "registry.Validate",
				Service: req.Service, Operation: req.Operation,
				Err: fmt.Errorf("no handler registered")}
		}
	}
	return nil
}

// Execute dispatches to the registered handler, satisfying RequestExecutor
func (r *Registry) Execute(ctx context.Context, service, operation string, params map[string]interface{}) (interface{}, error) {
	h, ok := r.handlers[handlerKey{service: service, operation: operation}]
	if !ok {
		return nil, &models.Error{Kind: models.ErrNotFound, Op: "registry.Execute",
			Service: service, Operation: operation,
			Err: fmt.Errorf("no handler registered")}
	}
	return h(ctx, params)
}
