package controllers

import (
	"net/http"

	"github.com/storefronthq/storefront-backend/api/validators"
)

const maxPage = 1_000_000

// parsePaging reads the shared page/limit query parameters.
func parsePaging(r *http.Request, defaultLimit, maxLimit int) (page, limit int, err error) {
	page, err = validators.ParseQueryInt(r, "page", 1, 1, maxPage)
	if err != nil {
		return 0, 0, err
	}
	limit, err = validators.ParseQueryInt(r, "limit", defaultLimit, 1, maxLimit)
	if err != nil {
		return 0, 0, err
	}
	return page, limit, nil
}
