// Package telemetry carries a logger, a metrics registry, and a
// correlation id through the pipeline explicitly, instead of through
// package-level globals.
package telemetry

import (
	"log"

	"github.com/google/uuid"
)

// Context bundles the observability handles a consumer threads through its
// loop. It is a plain struct passed by value/pointer, not a context.Context
// key, so call sites stay explicit about what they depend on.
type Context struct {
	Logger        *log.Logger
	Metrics       *Metrics
	CorrelationID string
}

// New builds a Context for the named consumer with a fresh correlation id.
func New(component string, metrics *Metrics) *Context {
	return &Context{
		Logger:        log.New(log.Writer(), "["+component+"] ", log.LstdFlags),
		Metrics:       metrics,
		CorrelationID: uuid.NewString(),
	}
}

// Lifecycle logs a service start/stop event with a configuration
// summary.
func (c *Context) Lifecycle(event, summary string) {
	c.Logger.Printf("%s %s", event, summary)
}

// Decision logs a business decision such as "resume from checkpoint h" or
// "start from genesis because no checkpoint".
func (c *Context) Decision(msg string, args ...interface{}) {
	c.Logger.Printf("decision: "+msg, args...)
}

// Errorf logs an error with full operational context: kind, operation,
// batch bounds, destination-store state.
func (c *Context) Errorf(msg string, args ...interface{}) {
	c.Logger.Printf("ERROR "+msg, args...)
}
