package controllers

import (
	"net/http"

	"github.com/storefronthq/storefront-backend/api/responses"
	"github.com/storefronthq/storefront-backend/api/validators"
	activitysvc "github.com/storefronthq/storefront-backend/internal/activity"
	"github.com/storefronthq/storefront-backend/pkg/enums"
	"github.com/storefronthq/storefront-backend/pkg/logger"
)

// AdminActivityLogs pages through the activity log, optionally filtered by
// user and activity type.
func AdminActivityLogs(svc activitysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, limit, err := parsePaging(r, activitysvc.DefaultPageLimit, activitysvc.MaxPageLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := activitysvc.ListQuery{
			UserID: validators.SanitizeString(r.URL.Query().Get("user_id"), 64),
			Type:   enums.ActivityType(validators.SanitizeString(r.URL.Query().Get("type"), 40)),
			Page:   page,
			Limit:  limit,
		}

		entries, err := svc.List(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}
