package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/storefronthq/storefront-backend/api/controllers"
	"github.com/storefronthq/storefront-backend/api/middleware"
	"github.com/storefronthq/storefront-backend/internal/activity"
	"github.com/storefronthq/storefront-backend/internal/auth"
	"github.com/storefronthq/storefront-backend/internal/orders"
	"github.com/storefronthq/storefront-backend/internal/products"
	"github.com/storefronthq/storefront-backend/internal/promotions"
	"github.com/storefronthq/storefront-backend/internal/reviews"
	"github.com/storefronthq/storefront-backend/internal/users"
	"github.com/storefronthq/storefront-backend/pkg/config"
	"github.com/storefronthq/storefront-backend/pkg/enums"
	"github.com/storefronthq/storefront-backend/pkg/logger"
	"github.com/storefronthq/storefront-backend/pkg/metrics"
	"github.com/storefronthq/storefront-backend/pkg/redis"
)

// Services carries every domain service the router wires to handlers.
type Services struct {
	Auth       auth.Service
	Users      users.Service
	Products   products.Service
	Reviews    reviews.Service
	Orders     orders.Service
	Promotions promotions.Service
	Activity   activity.Service
}

// NewRouter assembles the full HTTP surface.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	mongoPinger controllers.Pinger,
	redisClient *redis.Client,
	httpMetrics *metrics.HTTPMetrics,
	metricsHandler http.Handler,
	svcs Services,
	uploadsDir string,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
		middleware.Metrics(httpMetrics),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	signupPolicy := middleware.NewAuthRateLimitPolicy(
		"signup",
		cfg.AuthRateLimit.SignupWindow,
		cfg.AuthRateLimit.SignupIPLimit,
		cfg.AuthRateLimit.SignupEmailLimit,
	)
	loginLimiter := middleware.AuthRateLimit(loginPolicy, nil, logg)
	signupLimiter := middleware.AuthRateLimit(signupPolicy, nil, logg)
	if redisClient != nil {
		loginLimiter = middleware.AuthRateLimit(loginPolicy, redisClient, logg)
		signupLimiter = middleware.AuthRateLimit(signupPolicy, redisClient, logg)
	}

	var redisPinger controllers.Pinger
	if redisClient != nil {
		redisPinger = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, mongoPinger, redisPinger))
	})

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	if uploadsDir != "" {
		fileServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadsDir)))
		r.Method(http.MethodGet, "/uploads/*", fileServer)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(signupLimiter).Post("/signup", controllers.AuthSignup(svcs.Auth, logg))
		r.With(loginLimiter).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.With(loginLimiter).Post("/admin/login", controllers.AdminAuthLogin(svcs.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, svcs.Auth, logg))
			r.Post("/logout", controllers.AuthLogout(svcs.Auth, logg))
			r.Post("/password/change", controllers.AuthChangePassword(svcs.Users, logg))
		})
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductList(svcs.Products, logg))
		r.Get("/search", controllers.ProductSearch(svcs.Products, logg))
		r.Get("/{productId}", controllers.ProductDetail(svcs.Products, logg))
		r.Get("/{productId}/reviews", controllers.ReviewList(svcs.Reviews, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, svcs.Auth, logg))
			r.Post("/{productId}/reviews", controllers.ReviewCreate(svcs.Reviews, svcs.Users, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(
				middleware.Auth(cfg.JWT, svcs.Auth, logg),
				middleware.RequireAdmin(logg),
				middleware.RequirePermissions(logg, enums.PermissionManageProducts),
			)
			r.Post("/", controllers.ProductCreate(svcs.Products, logg))
			r.Put("/{productId}", controllers.ProductUpdate(svcs.Products, logg))
			r.Delete("/{productId}", controllers.ProductDelete(svcs.Products, logg))
			r.Post("/{productId}/image", controllers.ProductUploadImage(svcs.Products, cfg.Media, logg))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, svcs.Auth, logg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/profile", controllers.UserProfile(svcs.Users, logg))
			r.Put("/profile", controllers.UserUpdateProfile(svcs.Users, logg))
			r.Put("/email", controllers.UserChangeEmail(svcs.Users, logg))
			r.Put("/phone", controllers.UserChangePhone(svcs.Users, logg))
			r.Get("/purchase-history", controllers.UserPurchaseHistory(svcs.Orders, logg))
			r.Get("/activities", controllers.UserActivityHistory(svcs.Activity, logg))

			r.Route("/addresses", func(r chi.Router) {
				r.Post("/", controllers.UserAddAddress(svcs.Users, logg))
				r.Put("/{addressId}", controllers.UserUpdateAddress(svcs.Users, logg))
				r.Delete("/{addressId}", controllers.UserRemoveAddress(svcs.Users, logg))
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(svcs.Users, logg))
				r.Post("/", controllers.CartAddItem(svcs.Users, logg))
				r.Put("/{productId}", controllers.CartUpdateItem(svcs.Users, logg))
				r.Delete("/{productId}", controllers.CartRemoveItem(svcs.Users, logg))
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", controllers.WishlistFetch(svcs.Users, logg))
				r.Post("/", controllers.WishlistAdd(svcs.Users, logg))
				r.Delete("/{productId}", controllers.WishlistRemove(svcs.Users, logg))
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(svcs.Orders, logg))
			r.Get("/", controllers.OrderList(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(svcs.Orders, logg))
			r.Post("/{orderId}/cancel", controllers.OrderCancel(svcs.Orders, logg))
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Put("/{reviewId}", controllers.ReviewUpdate(svcs.Reviews, logg))
			r.Delete("/{reviewId}", controllers.ReviewDelete(svcs.Reviews, logg))
		})

		r.Post("/promotions/apply", controllers.PromotionApply(svcs.Promotions, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(
			middleware.Auth(cfg.JWT, svcs.Auth, logg),
			middleware.RequireAdmin(logg),
		)

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequirePermissions(logg, enums.PermissionManageUsers))
			r.Get("/", controllers.AdminUserList(svcs.Users, logg))
			r.Get("/{userId}", controllers.AdminUserDetail(svcs.Users, logg))
			r.Put("/{userId}", controllers.AdminUserUpdate(svcs.Users, logg))
			r.Put("/{userId}/permissions", controllers.AdminUserSetPermissions(svcs.Users, logg))
			r.Delete("/{userId}", controllers.AdminUserDelete(svcs.Users, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(middleware.RequirePermissions(logg, enums.PermissionManageOrders))
			r.Get("/", controllers.AdminOrderList(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.AdminOrderDetail(svcs.Orders, logg))
			r.Put("/{orderId}/status", controllers.AdminOrderUpdateStatus(svcs.Orders, logg))
			r.Delete("/{orderId}", controllers.AdminOrderDelete(svcs.Orders, logg))
		})

		r.Route("/promotions", func(r chi.Router) {
			r.Use(middleware.RequirePermissions(logg, enums.PermissionManagePromotions))
			r.Post("/", controllers.AdminPromotionCreate(svcs.Promotions, logg))
			r.Get("/", controllers.AdminPromotionList(svcs.Promotions, logg))
			r.Get("/{promotionId}", controllers.AdminPromotionDetail(svcs.Promotions, logg))
			r.Put("/{promotionId}", controllers.AdminPromotionUpdate(svcs.Promotions, logg))
			r.Delete("/{promotionId}", controllers.AdminPromotionDelete(svcs.Promotions, logg))
		})

		r.With(middleware.RequirePermissions(logg, enums.PermissionViewReports)).
			Get("/activity-logs", controllers.AdminActivityLogs(svcs.Activity, logg))
		r.With(middleware.RequirePermissions(logg, enums.PermissionViewReports)).
			Get("/reports/sales", controllers.AdminSalesReport(svcs.Orders, logg))
	})

	return r
}
