package httpapi

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"tableside-order-service/internal/auth"
	"tableside-order-service/internal/config"
	"tableside-order-service/internal/http/handlers"
	"tableside-order-service/internal/middleware"
	"tableside-order-service/internal/queue"
	"tableside-order-service/internal/storage"
	"tableside-order-service/internal/ws"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func NewRouter(db *pgxpool.Pool, logger *zap.Logger, cfg config.Config, queueClient *queue.Client, hub *ws.Hub, mirror *storage.ObjectStore) http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Telemetry(logger))

	if cfg.Env == "development" || len(cfg.CorsAllowedOrigins) > 0 {
		options := cors.Options{
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{
				"Accept",
				"Authorization",
				"Content-Type",
				"X-Requested-With",
				"Cache-Control",
				"Pragma",
			},
			AllowCredentials: true,
			MaxAge:           300,
		}

		if cfg.Env == "development" {
			options.AllowOriginFunc = func(_ *http.Request, origin string) bool {
				return true
			}
		} else {
			options.AllowedOrigins = cfg.CorsAllowedOrigins
		}

		r.Use(cors.Handler(options))
	}

	store := storage.NewLocalStore(cfg.UploadDir)
	h := &handlers.Handler{
		DB:       db,
		Logger:   logger,
		Config:   cfg,
		Queue:    queueClient,
		Notifier: hub,
		Uploads:  store,
		Mirror:   mirror,
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Post("/api/auth/login", h.Login)

	r.Route("/api/user", func(r chi.Router) {
		r.Get("/home/menu", h.UserMenuList)
		r.Get("/home/menu-types", h.MenuTypesList)
		r.Get("/check-table/{tableNumber}", h.CheckTable)
		r.Post("/order", h.UserOrderCreate)
		r.Route("/viewOrder-list", func(r chi.Router) {
			r.Get("/{orderCode}", h.UserOrderListByCode)
			r.Put("/cancel-order/{orderId}", h.UserCancelOrder)
			r.Put("/pay-order/{orderId}", h.UserPayOrder)
			r.Put("/pay-all-orders/{orderCode}", h.UserPayAllOrders)
		})
	})

	r.Route("/api/staff", func(r chi.Router) {
		r.Use(middleware.RequireRole(cfg.JWTSecret, auth.RoleOwner, auth.RoleStaff))

		r.Get("/orders/all", h.StaffOrdersToday)
		r.Get("/orders/count", h.StaffOrderCount)
		r.Get("/orders/today-revenue", h.TodayRevenue)
		r.Get("/orders/{orderId}", h.OrderDetail)
		r.Put("/orders/{orderId}/status", h.UpdateOrderStatus)
		r.Get("/profile", h.ProfileGet)
		r.Put("/profile", h.ProfileUpdate)
	})

	r.Route("/api/owner", func(r chi.Router) {
		r.Use(middleware.RequireRole(cfg.JWTSecret, auth.RoleOwner))

		r.Get("/menu-types", h.MenuTypesList)
		r.Post("/menu-types", h.MenuTypesCreate)
		r.Put("/menu-types/{typeId}", h.MenuTypesUpdate)
		r.Delete("/menu-types/{typeId}", h.MenuTypesDelete)

		r.Get("/menu", h.MenuList)
		r.Post("/menu", h.MenuCreate)
		r.Put("/menu/{menuId}", h.MenuUpdate)
		r.Delete("/menu/{menuId}", h.MenuDelete)

		r.Get("/tables", h.TablesList)
		r.Post("/tables", h.TablesCreate)
		r.Put("/tables/{tableId}", h.TablesUpdate)
		r.Delete("/tables/{tableId}", h.TablesDelete)

		r.Route("/temp-receipts", func(r chi.Router) {
			r.Get("/all", h.OwnerTempReceipts)
			r.Get("/today-revenue", h.TodayRevenue)
			r.Get("/order/{orderId}", h.OrderDetail)
			r.Put("/order/{orderId}/status", h.UpdateOrderStatus)
			r.Put("/{orderCode}/complete-all", h.CompleteAllOrders)
		})

		r.Get("/order-history/all", h.OwnerOrderHistory)
		r.Get("/order-sale/all", h.OwnerOrderSales)
		r.Get("/order-sale/{receiptCode}/receipt", h.OwnerReceiptPDF)

		r.Get("/profile", h.ProfileGet)
		r.Put("/profile", h.ProfileUpdate)
	})

	if hub != nil {
		r.Get("/ws", hub.HandleWS)
	}

	uploads := http.StripPrefix("/uploads/", http.FileServer(http.Dir(store.Root())))
	r.Get("/uploads/*", func(w http.ResponseWriter, r *http.Request) {
		uploads.ServeHTTP(w, r)
	})

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
