// Package membership resolves "who is the caller, acting as which
// organization, with which role" and caches the answer for the session epoch.
package membership

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ElectricBrains530/atomic-crm/internal/models"
)

// Membership is a user's membership in one organization, joined with the
// organization's display data and the organization-scoped profile.
type Membership struct {
	ID             uint64                  `json:"id"`
	OrganizationID uint64                  `json:"organization_id"`
	UserID         string                  `json:"user_id"`
	Role           models.OrganizationRole `json:"role"`
	Status         models.MemberStatus     `json:"status"`
	CreatedAt      time.Time               `json:"created_at"`
	Organization   OrganizationInfo        `json:"organizations"`
	Profile        *Profile                `json:"employees"`
}

// OrganizationInfo is the display descriptor of an organization.
type OrganizationInfo struct {
	Name string `json:"name"`
	Plan string `json:"plan"`
}

// Profile is the organization-scoped display profile of a membership.
type Profile struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Avatar    *string `json:"avatar"`
}

// FullName joins the profile's name fields for display.
func (p *Profile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// UnmarshalJSON accepts both an embedded object and a one-element array: the
// record store's join cardinality depends on how the relationship is
// declared, and the ambiguity is normalized here rather than downstream.
func (o *OrganizationInfo) UnmarshalJSON(data []byte) error {
	type plain OrganizationInfo
	var v plain
	if err := unmarshalEmbedded(data, &v); err != nil {
		return fmt.Errorf("organization join: %w", err)
	}
	*o = OrganizationInfo(v)
	return nil
}

// UnmarshalJSON mirrors OrganizationInfo's cardinality normalization.
func (p *Profile) UnmarshalJSON(data []byte) error {
	type plain Profile
	var v plain
	if err := unmarshalEmbedded(data, &v); err != nil {
		return fmt.Errorf("profile join: %w", err)
	}
	*p = Profile(v)
	return nil
}

func unmarshalEmbedded(data []byte, v interface{}) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		switch len(items) {
		case 0:
			return nil
		case 1:
			return json.Unmarshal(items[0], v)
		default:
			return fmt.Errorf("expected at most one embedded row, got %d", len(items))
		}
	}
	return json.Unmarshal(data, v)
}

// sortStable orders memberships by creation time then id, so the "first
// membership" fallback never depends on unordered fetch results.
func sortStable(memberships []Membership) {
	sort.SliceStable(memberships, func(i, j int) bool {
		if !memberships[i].CreatedAt.Equal(memberships[j].CreatedAt) {
			return memberships[i].CreatedAt.Before(memberships[j].CreatedAt)
		}
		return memberships[i].ID < memberships[j].ID
	})
}
