package membership

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ElectricBrains530/atomic-crm/internal/session"
	"github.com/ElectricBrains530/atomic-crm/internal/tenant"
)

// snapshot holds a cache epoch's result. Active and all are written together
// so a reader can never observe an active membership missing from the list.
type snapshot struct {
	active Membership
	all    []Membership
}

// Resolver resolves the caller's active membership and full membership list,
// caching the result per user until the epoch is invalidated. Epoch
// boundaries are exactly: login success, logout, organization switch.
type Resolver struct {
	source   Source
	store    tenant.Store
	sessions session.Reader
	log      *logrus.Entry

	mu    sync.RWMutex
	cache map[string]*snapshot
}

// NewResolver creates a Resolver.
func NewResolver(source Source, store tenant.Store, sessions session.Reader, log *logrus.Entry) *Resolver {
	return &Resolver{
		source:   source,
		store:    store,
		sessions: sessions,
		log:      log,
		cache:    make(map[string]*snapshot),
	}
}

// Resolve returns the caller's active membership and all memberships.
// An unauthenticated caller or a user with no memberships yields
// (nil, empty, nil): both are valid terminal states, not errors.
func (r *Resolver) Resolve(ctx context.Context) (*Membership, []Membership, error) {
	caller, ok, err := r.sessions.Caller(ctx)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, []Membership{}, nil
	}

	if active, all, hit := r.cached(caller.UserID); hit {
		return active, all, nil
	}

	all, err := r.source.ListForUser(ctx, caller)
	if err != nil {
		// Failed resolutions are never cached; a retry with a
		// now-available membership must succeed.
		return nil, nil, err
	}

	if len(all) == 0 {
		// Valid mid-onboarding state. Not cached so provisioning that
		// completes later is picked up without an epoch change.
		r.log.WithField("user_id", caller.UserID).Warn("user has no organization memberships")
		return nil, []Membership{}, nil
	}

	sortStable(all)

	active, err := r.selectActive(ctx, caller.UserID, all)
	if err != nil {
		return nil, nil, err
	}

	r.mu.Lock()
	r.cache[caller.UserID] = &snapshot{active: *active, all: all}
	r.mu.Unlock()

	return active, all, nil
}

// Invalidate drops the cached epoch for one user. Called on login, logout,
// and organization switch.
func (r *Resolver) Invalidate(userID string) {
	r.mu.Lock()
	delete(r.cache, userID)
	r.mu.Unlock()
}

func (r *Resolver) cached(userID string) (*Membership, []Membership, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap, ok := r.cache[userID]
	if !ok {
		return nil, nil, false
	}
	active := snap.active
	return &active, snap.all, true
}

// selectActive picks the membership named by the active-context store, or
// falls back to the first membership in stable order and writes the fallback
// back to the store (self-healing an invalid or missing selection).
func (r *Resolver) selectActive(ctx context.Context, userID string, all []Membership) (*Membership, error) {
	storedOrg, ok, err := r.store.Get(ctx, userID)
	if err != nil {
		// Treat an unreadable selection like a missing one.
		r.log.WithError(err).Warn("active context read failed, falling back to first membership")
		ok = false
	}

	if ok {
		for i := range all {
			if all[i].OrganizationID == storedOrg {
				return &all[i], nil
			}
		}
	}

	active := &all[0]
	if err := r.store.Set(ctx, userID, active.OrganizationID); err != nil {
		return nil, err
	}
	return active, nil
}
