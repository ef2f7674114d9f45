package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/travelai/booking-chat/backend/internal/config"
	"github.com/travelai/booking-chat/backend/internal/handler/chat"
	"github.com/travelai/booking-chat/backend/internal/handler/offer"
	"github.com/travelai/booking-chat/backend/internal/handler/session"
	"github.com/travelai/booking-chat/backend/internal/handler/stream"
	"github.com/travelai/booking-chat/backend/internal/handler/voice"
	middlewarePkg "github.com/travelai/booking-chat/backend/internal/middleware"
	offerModel "github.com/travelai/booking-chat/backend/internal/model/offer"
	"github.com/travelai/booking-chat/backend/internal/observability"
	chatService "github.com/travelai/booking-chat/backend/internal/service/chat"
	"github.com/travelai/booking-chat/backend/pkg/utils"
)

// Deps 路由依赖的核心服务
type Deps struct {
	Config    *config.Config
	Catalog   offerModel.Catalog
	Completer chat.Completer
	Sessions  *chatService.Service
	Logger    *zap.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	logger := observability.OrNop(deps.Logger)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger.Named("http")))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.Config.Server.AllowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"sessions": deps.Sessions.Count(),
		})
	})

	r.Route("/api", func(api chi.Router) {
		if deps.Config.RateLimit.Enabled() {
			limiter := middlewarePkg.NewRateLimiter(deps.Config.RateLimit.PerMinute, deps.Config.RateLimit.Burst, logger.Named("ratelimit"))
			api.Use(limiter.Handler)
		}

		chat.New(deps.Completer, logger.Named("chat")).RegisterRoutes(api)
		offer.New(deps.Catalog).RegisterRoutes(api)
		session.New(deps.Sessions, logger.Named("session")).RegisterRoutes(api)
		stream.New(deps.Sessions, logger.Named("stream")).RegisterRoutes(api)
		voice.NewWebSocketHandler(deps.Sessions, logger.Named("voice")).RegisterRoutes(api)
	})

	return r
}
