package notify

import (
	"sync"

	"github.com/google/uuid"
)

// Registry tracks live handles per user for the lifetime of the process.
// A user may hold several handles at once (multiple tabs). State is entirely
// in-memory; a restart loses it, which is fine because persisted messages are
// the system of record.
type Registry struct {
	mu      sync.Mutex
	handles map[uint]map[string]Handle
}

func NewRegistry() *Registry {
	return &Registry{handles: make(map[uint]map[string]Handle)}
}

// Register adds a handle for the user and returns the key to unregister with.
func (r *Registry) Register(userID uint, h Handle) string {
	key := uuid.NewString()
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.handles[userID]
	if !ok {
		set = make(map[string]Handle)
		r.handles[userID] = set
	}
	set[key] = h
	return key
}

// Unregister removes the handle; the user entry goes away with its last handle.
func (r *Registry) Unregister(userID uint, key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.handles[userID]
	if !ok {
		return
	}
	delete(set, key)
	if len(set) == 0 {
		delete(r.handles, userID)
	}
}

// HandlesFor returns the currently live handles for the user, possibly none.
func (r *Registry) HandlesFor(userID uint) []Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.handles[userID]
	if len(set) == 0 {
		return nil
	}
	out := make([]Handle, 0, len(set))
	for _, h := range set {
		out = append(out, h)
	}
	return out
}

// Sweep drops and closes handles that no longer report alive, so clients that
// vanished without a clean disconnect do not accumulate. Returns the number
// of handles removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for userID, set := range r.handles {
		for key, h := range set {
			if h.Alive() {
				continue
			}
			h.Close()
			delete(set, key)
			removed++
		}
		if len(set) == 0 {
			delete(r.handles, userID)
		}
	}
	return removed
}

// ConnectedUsers reports how many users currently hold at least one handle.
func (r *Registry) ConnectedUsers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}
