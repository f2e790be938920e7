package constants

// Session
const (
	SessionCookieName     = "crm_session"
	SessionKeyUserID      = "user_id"
	SessionKeyAccessToken = "access_token"
)

// ContextKeyCaller is the gin context key holding the authenticated caller.
const ContextKeyCaller = "caller"

// OrganizationHeader carries the active organization id to the record store.
// Server-side row-level policies derive the tenant scope from this header.
const OrganizationHeader = "x-organization-id"

const MinPasswordLength = 8
