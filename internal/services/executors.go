package services

import (
	"context"
	"log"
)

// ActionExecutor runs one workflow action against an application. The real
// implementations live in external notification/tasking subsystems and are
// registered at startup, one per action type.
type ActionExecutor func(ctx context.Context, applicationID uint, config map[string]any) error

// ExecutorRegistry maps action types to their executors. Registration happens
// during wiring, before any dispatch, so lookups are not locked.
type ExecutorRegistry struct {
	executors map[string]ActionExecutor
}

func NewExecutorRegistry() *ExecutorRegistry {
	return &ExecutorRegistry{executors: make(map[string]ActionExecutor)}
}

func (r *ExecutorRegistry) Register(actionType string, fn ActionExecutor) {
	r.executors[actionType] = fn
}

func (r *ExecutorRegistry) Get(actionType string) (ActionExecutor, bool) {
	fn, ok := r.executors[actionType]
	return fn, ok
}

// LoggingExecutor is the stand-in wired for action types whose real executor
// has not been plugged in yet. It only logs the dispatch.
func LoggingExecutor(actionType string) ActionExecutor {
	return func(ctx context.Context, applicationID uint, config map[string]any) error {
		log.Printf("Action %s dispatched for application %d (config %v)", actionType, applicationID, config)
		return nil
	}
}
