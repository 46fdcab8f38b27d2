package ws

import "github.com/google/uuid"

func (r *Rooms) IsMember(c *Conn, boardID uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.members[boardID][c]
	return ok
}

// Events lists the event names the router accepts.
func (r *Router) Events() []string {
	out := make([]string, 0, len(r.routes))
	for name := range r.routes {
		out = append(out, name)
	}
	return out
}

var FailureMessage = failureMessage
