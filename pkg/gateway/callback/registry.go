package callback

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Registry maps trigger strings to callbacks. Triggers match exactly and
// case-sensitively.
type Registry struct {
	logger *zap.Logger
	now    func() time.Time

	mu        sync.RWMutex
	callbacks map[string]*Callback
}

// NewRegistry creates an empty registry. A nil logger is replaced by a nop
// logger.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Registry{
		logger:    logger,
		now:       time.Now,
		callbacks: make(map[string]*Callback),
	}
}

// Register binds trigger to handler, replacing any previous binding. The
// owner is kept for diagnostics. A zero cooldown never disarms anyone.
func (r *Registry) Register(trigger string, owner any, handler Handler, cooldown time.Duration) *Callback {
	cb := newCallback(trigger, owner, handler, cooldown, r.logger, r.now)

	r.mu.Lock()
	_, replaced := r.callbacks[trigger]
	r.callbacks[trigger] = cb
	r.mu.Unlock()

	r.logger.Info("Registered callback",
		zap.String("trigger", trigger),
		zap.Duration("cooldown", cb.cooldown),
		zap.Bool("replaced", replaced))

	return cb
}

// Lookup returns the callback bound to content, if any.
func (r *Registry) Lookup(content string) (*Callback, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cb, ok := r.callbacks[content]
	return cb, ok
}

// Triggers returns the registered triggers in sorted order.
func (r *Registry) Triggers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	triggers := make([]string, 0, len(r.callbacks))
	for trigger := range r.callbacks {
		triggers = append(triggers, trigger)
	}
	sort.Strings(triggers)
	return triggers
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.callbacks)
}
