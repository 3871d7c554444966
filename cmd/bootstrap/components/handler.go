package components

import (
	"booking-engine/internal/handler"
	"booking-engine/internal/handler/api"
	"booking-engine/internal/handler/middleware"
	"booking-engine/internal/usecase"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		usecase.NewTokenValidator,
		api.NewBookingHandler,
		api.NewWebhookHandler,
		api.NewTripHandler,
		api.NewOpsHandler,
		middleware.NewAuthMiddleware,
		NewHandlers,
	),
	fx.Invoke(handler.NewRouter),
)

func NewHandlers(booking *api.BookingHandler, webhook *api.WebhookHandler, trip *api.TripHandler, ops *api.OpsHandler) handler.Handlers {
	return handler.Handlers{Booking: booking, Webhook: webhook, Trip: trip, Ops: ops}
}
