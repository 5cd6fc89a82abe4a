// Package gate decides what a client may see on each route based on a
// single shared resolution of the current identity.
package gate

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/pixelstudio/internal/client/client"
	"github.com/dmitrijs2005/pixelstudio/internal/client/models"
	"golang.org/x/sync/singleflight"
)

const defaultResolveTimeout = 10 * time.Second

// IdentitySource answers "who am I". *client.Client satisfies it.
type IdentitySource interface {
	Me(ctx context.Context) (*models.User, error)
}

// Snapshot is the resolver state at one instant. User is nil for an
// anonymous visitor; it is meaningless while Resolved is false.
type Snapshot struct {
	Resolved bool
	User     *models.User
}

func (s Snapshot) Authenticated() bool {
	return s.Resolved && s.User != nil
}

// Resolver memoizes identity resolution for the whole process. Concurrent
// callers share one lookup; the result is kept until Invalidate.
type Resolver struct {
	src     IdentitySource
	timeout time.Duration
	group   singleflight.Group

	mu sync.Mutex
	// generation advances on Invalidate so a lookup that started before
	// sign-in or sign-out cannot overwrite the newer state.
	generation uint64
	snap       Snapshot
}

func NewResolver(src IdentitySource) *Resolver {
	return &Resolver{src: src, timeout: defaultResolveTimeout}
}

func (r *Resolver) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap
}

// Invalidate drops the cached identity. Call it after sign-in and sign-out.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	r.generation++
	r.snap = Snapshot{}
	r.mu.Unlock()
}

// Resolve returns the current identity, or nil for an anonymous visitor.
// Transient failures are returned and not cached. Cancelling ctx abandons
// the wait, not the shared lookup.
func (r *Resolver) Resolve(ctx context.Context) (*models.User, error) {
	snap, gen := r.state()
	if snap.Resolved {
		return snap.User, nil
	}

	select {
	case res := <-r.start(gen):
		if res.Err != nil {
			return nil, res.Err
		}
		u, _ := res.Val.(*models.User)
		return u, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// kick starts a lookup in the background unless one is cached or running.
func (r *Resolver) kick() {
	snap, gen := r.state()
	if !snap.Resolved {
		r.start(gen)
	}
}

func (r *Resolver) state() (Snapshot, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap, r.generation
}

func (r *Resolver) start(gen uint64) <-chan singleflight.Result {
	return r.group.DoChan(strconv.FormatUint(gen, 10), func() (any, error) {
		return r.load(gen)
	})
}

func (r *Resolver) load(gen uint64) (*models.User, error) {
	// A caller that read the state just before the previous lookup landed
	// must not start a second one.
	r.mu.Lock()
	if r.generation == gen && r.snap.Resolved {
		u := r.snap.User
		r.mu.Unlock()
		return u, nil
	}
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	u, err := r.src.Me(ctx)
	if errors.Is(err, client.ErrSignedOut) || errors.Is(err, client.ErrUnauthorized) {
		u, err = nil, nil
	}
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.generation == gen {
		r.snap = Snapshot{Resolved: true, User: u}
	}
	r.mu.Unlock()
	return u, nil
}
