package tenant

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/ElectricBrains530/atomic-crm/internal/session"
)

// RequestSource adapts a Store to the record store client's send-time org
// lookup: the caller comes from the request context, the selection from the
// store. A read failure sends the request unscoped; the record store's own
// policy rejects unscoped tenant reads.
func RequestSource(store Store, log *logrus.Entry) func(r *http.Request) (uint64, bool) {
	return func(r *http.Request) (uint64, bool) {
		caller, ok := session.FromContext(r.Context())
		if !ok {
			return 0, false
		}

		orgID, ok, err := store.Get(r.Context(), caller.UserID)
		if err != nil {
			log.WithError(err).Warn("active context read failed, sending request unscoped")
			return 0, false
		}
		return orgID, ok
	}
}
