// Package auth bridges membership resolution to the two contracts the rest
// of the system consumes: "who is this, for display" and "may this action
// proceed".
package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ElectricBrains530/atomic-crm/internal/dto"
	"github.com/ElectricBrains530/atomic-crm/internal/membership"
	"github.com/ElectricBrains530/atomic-crm/internal/repository"
)

// ErrNoActiveMembership signals an authenticated caller whose provisioning is
// incomplete. Callers treat it like an unauthenticated state, not a failure.
var ErrNoActiveMembership = errors.New("no active membership found")

// Provider turns resolved memberships into identities and authorization
// decisions.
type Provider struct {
	resolver *membership.Resolver
	initRepo repository.InitStateRepository
	log      *logrus.Entry

	initMu     sync.Mutex
	initCached *bool
}

// NewProvider creates a Provider.
func NewProvider(resolver *membership.Resolver, initRepo repository.InitStateRepository, log *logrus.Entry) *Provider {
	return &Provider{
		resolver: resolver,
		initRepo: initRepo,
		log:      log,
	}
}

// Resolver exposes the underlying membership resolver for epoch invalidation.
func (p *Provider) Resolver() *membership.Resolver {
	return p.resolver
}

// GetIdentity returns the presentable identity of the caller. The identity id
// is the membership id, not the raw user id: display data is
// organization-scoped and changes when the caller switches organizations.
func (p *Provider) GetIdentity(ctx context.Context) (*dto.Identity, error) {
	active, all, err := p.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, ErrNoActiveMembership
	}

	identity := dto.ToIdentity(active, all)
	return &identity, nil
}

// IsInitialized reports whether the one-time initial setup has completed.
// The flag is cached after the first successful read; InvalidateInitCache
// refreshes it when the sign-up flow completes setup.
func (p *Provider) IsInitialized(ctx context.Context) (bool, error) {
	p.initMu.Lock()
	defer p.initMu.Unlock()

	if p.initCached != nil {
		return *p.initCached, nil
	}

	initialized, err := p.initRepo.IsInitialized()
	if err != nil {
		return false, err
	}

	p.initCached = &initialized
	return initialized, nil
}

// InvalidateInitCache drops the cached setup flag.
func (p *Provider) InvalidateInitCache() {
	p.initMu.Lock()
	p.initCached = nil
	p.initMu.Unlock()
}

// CanAccess decides whether the caller may perform action on resource. It
// fails closed: incomplete setup, resolution failures, and missing
// memberships all deny. These checks shape the UI only; the record store's
// row-level policy and the privileged service remain authoritative.
func (p *Provider) CanAccess(ctx context.Context, action, resource string) bool {
	initialized, err := p.IsInitialized(ctx)
	if err != nil || !initialized {
		return false
	}

	active, _, err := p.resolver.Resolve(ctx)
	if err != nil || active == nil {
		return false
	}

	return policyAllows(PrivilegeFor(active.Role), action, resource)
}
