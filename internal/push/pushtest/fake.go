// Package pushtest provides an in-process push.Provider for tests.
package pushtest

import (
	"context"
	"sort"
	"sync"

	"github.com/nhle/fleetbell/internal/model"
	"github.com/nhle/fleetbell/internal/push"
)

// Provider is a push.Provider whose deliveries are driven by Inject.
type Provider struct {
	mu sync.Mutex

	// Token is returned by Register when RegisterErr is nil.
	Token string

	// RegisterErr, when set, is returned by Register.
	RegisterErr error

	// Bound, when set, is reported by BoundToken.
	Bound string

	registrations []string
	handlers      map[int]push.Handler
	nextID        int
	unsubscribes  int
}

// New returns a Provider that registers successfully with token.
func New(token string) *Provider {
	return &Provider{
		Token:    token,
		handlers: make(map[int]push.Handler),
	}
}

func (p *Provider) Register(_ context.Context, appKey string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.registrations = append(p.registrations, appKey)
	if p.RegisterErr != nil {
		return "", p.RegisterErr
	}
	return p.Token, nil
}

func (p *Provider) Subscribe(handler push.Handler) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	p.handlers[id] = handler

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.handlers, id)
		p.unsubscribes++
	}
}

// BoundToken returns Bound.
func (p *Provider) BoundToken() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Bound
}

// Inject delivers payload synchronously to every active handler, oldest
// subscription first.
func (p *Provider) Inject(payload model.PushPayload) {
	p.mu.Lock()
	ids := make([]int, 0, len(p.handlers))
	for id := range p.handlers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	handlers := make([]push.Handler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, p.handlers[id])
	}
	p.mu.Unlock()

	for _, h := range handlers {
		h(payload)
	}
}

// Active returns the number of live subscriptions.
func (p *Provider) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.handlers)
}

// Unsubscribes returns how many times an unsubscribe function ran.
func (p *Provider) Unsubscribes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.unsubscribes
}

// Registrations returns the app keys passed to Register, in call order.
func (p *Provider) Registrations() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.registrations...)
}
