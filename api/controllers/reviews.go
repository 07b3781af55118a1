package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/storefronthq/storefront-backend/api/middleware"
	"github.com/storefronthq/storefront-backend/api/responses"
	"github.com/storefronthq/storefront-backend/api/validators"
	reviewssvc "github.com/storefronthq/storefront-backend/internal/reviews"
	userssvc "github.com/storefronthq/storefront-backend/internal/users"
	"github.com/storefronthq/storefront-backend/pkg/logger"
)

// ReviewList returns all reviews of one product, newest first.
func ReviewList(svc reviewssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reviews, err := svc.ListByProduct(r.Context(), chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, reviews)
	}
}

// ReviewCreate adds the caller's review of a product. The display name is
// denormalized onto the review at write time.
func ReviewCreate(svc reviewssvc.Service, users userssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload reviewssvc.ReviewInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		principalID := middleware.PrincipalIDFromContext(r.Context())
		user, err := users.GetProfile(r.Context(), principalID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		review, err := svc.Create(r.Context(), principalID, user.Name, chi.URLParam(r, "productId"), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, review)
	}
}

// ReviewUpdate edits the caller's own review.
func ReviewUpdate(svc reviewssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload reviewssvc.ReviewInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		review, err := svc.Update(r.Context(), chi.URLParam(r, "reviewId"),
			middleware.PrincipalIDFromContext(r.Context()), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, review)
	}
}

// ReviewDelete removes a review; owners always may, admins may remove any.
func ReviewDelete(svc reviewssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		err := svc.Delete(ctx, chi.URLParam(r, "reviewId"),
			middleware.PrincipalIDFromContext(ctx), middleware.RoleFromContext(ctx).IsAdmin())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
