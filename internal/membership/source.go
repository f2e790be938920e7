package membership

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/ElectricBrains530/atomic-crm/internal/recordstore"
	"github.com/ElectricBrains530/atomic-crm/internal/session"
)

// Source loads all memberships for a user, joined with organization display
// data and the organization-scoped profile.
type Source interface {
	ListForUser(ctx context.Context, caller session.Caller) ([]Membership, error)
}

// RecordStoreSource loads memberships through the record store with the
// caller's own access token, the same path the rest of the data plane uses.
type RecordStoreSource struct {
	client *recordstore.Client
}

// NewRecordStoreSource creates a Source backed by the record store.
func NewRecordStoreSource(client *recordstore.Client) *RecordStoreSource {
	return &RecordStoreSource{client: client}
}

func (s *RecordStoreSource) ListForUser(ctx context.Context, caller session.Caller) ([]Membership, error) {
	params := url.Values{}
	params.Set("select", "*,employees(first_name,last_name,avatar),organizations(name,plan)")
	params.Set("user_id", "eq."+caller.UserID)
	params.Set("order", "created_at.asc,id.asc")

	rows, err := s.client.WithToken(caller.Token).Query(ctx, "org_members", params)
	if err != nil {
		return nil, fmt.Errorf("load memberships: %w", err)
	}

	memberships := make([]Membership, 0, len(rows))
	for _, row := range rows {
		var m Membership
		if err := json.Unmarshal(row, &m); err != nil {
			return nil, fmt.Errorf("decode membership: %w", err)
		}
		memberships = append(memberships, m)
	}

	return memberships, nil
}
