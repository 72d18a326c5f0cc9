package session

import (
	"strings"

	"github.com/GoobyCorp/xbdm-go/protocol"
)

// HandlerFunc implements one verb's behaviour. It receives the parsed
// command message and the Session it is executing against, and returns
// a Plan describing how to reply.
type HandlerFunc func(s *Session, msg *protocol.Message) Plan

// Registry maps lowercased verbs to handlers. Lookups are
// case-insensitive because XBDM verbs arrive with whatever casing the
// client used.
type Registry struct {
	handlers map[string]HandlerFunc
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]HandlerFunc)}
}

// Register binds verb (case-insensitively) to fn. Registering the same
// verb twice replaces the previous handler.
func (r *Registry) Register(verb string, fn HandlerFunc) {
	r.handlers[strings.ToLower(verb)] = fn
}

// Lookup returns the handler for verb, if any.
func (r *Registry) Lookup(verb string) (HandlerFunc, bool) {
	fn, ok := r.handlers[strings.ToLower(verb)]
	return fn, ok
}

// Dispatch runs the handler registered for msg's verb, or synthesizes
// the 405 "unknown command" reply plan when none is registered.
func (r *Registry) Dispatch(s *Session, msg *protocol.Message) Plan {
	fn, ok := r.Lookup(msg.Verb())
	if !ok {
		return Err(protocol.CodeGenericError, "unknown command")
	}
	return fn(s, msg)
}
