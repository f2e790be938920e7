package recordstore

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ElectricBrains530/atomic-crm/internal/constants"
)

// OrgSource yields the active organization id for a request, read at send
// time. ok is false when no organization is selected.
type OrgSource interface {
	ActiveOrg(r *http.Request) (uint64, bool)
}

// OrgSourceFunc adapts a function to the OrgSource interface.
type OrgSourceFunc func(r *http.Request) (uint64, bool)

func (f OrgSourceFunc) ActiveOrg(r *http.Request) (uint64, bool) {
	return f(r)
}

// orgTransport stamps every request destined for the record store with the
// x-organization-id header. It sits at the transport layer so that no call
// site can forget it; a single omission would silently defeat tenant
// isolation. The transform is synchronous and adds no retries or timeouts.
type orgTransport struct {
	base   http.RoundTripper
	source OrgSource
	store  *url.URL
}

func newOrgTransport(base http.RoundTripper, source OrgSource, store *url.URL) *orgTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &orgTransport{base: base, source: source, store: store}
}

func (t *orgTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.source == nil || !t.matches(req.URL) {
		return t.base.RoundTrip(req)
	}

	orgID, ok := t.source.ActiveOrg(req)
	if !ok {
		return t.base.RoundTrip(req)
	}

	// RoundTrippers must not mutate the original request.
	stamped := req.Clone(req.Context())
	stamped.Header.Set(constants.OrganizationHeader, strconv.FormatUint(orgID, 10))
	return t.base.RoundTrip(stamped)
}

func (t *orgTransport) matches(u *url.URL) bool {
	if u.Host != t.store.Host {
		return false
	}
	return strings.HasPrefix(u.Path, t.store.Path)
}
