package components

import (
	"log/slog"

	"booking-engine/internal/infra/content"
	"booking-engine/internal/infra/gateway"
	"booking-engine/internal/infra/lock"
	"booking-engine/internal/infra/supplier"
	"booking-engine/internal/pkg/clock"
	"booking-engine/internal/pkg/config"
	"booking-engine/internal/usecase/shared"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

// Outbound collaborators. Each HTTP adapter falls back to its mock mode when
// the base URL is empty.
var CollaboratorModule = fx.Module("collaborator",
	fx.Provide(
		fx.Annotate(
			NewContentClient,
			fx.As(new(shared.ContentClient)),
		),
		fx.Annotate(
			NewPaymentGateway,
			fx.As(new(shared.PaymentGateway)),
		),
		fx.Annotate(
			NewSupplierClient,
			fx.As(new(shared.SupplierIssuer)),
		),
		fx.Annotate(
			NewLocker,
			fx.As(new(shared.Locker)),
		),
	),
)

func NewContentClient(cfg config.Config, clk clock.Clock, logger *slog.Logger) *content.Client {
	return content.NewClient(cfg.Content, clk, logger)
}

func NewPaymentGateway(cfg config.Config, logger *slog.Logger) *gateway.Paystack {
	return gateway.NewPaystack(cfg.Payment, logger)
}

func NewSupplierClient(cfg config.Config, logger *slog.Logger) *supplier.Client {
	return supplier.NewClient(cfg.Supplier, logger)
}

func NewLocker(client *redis.Client, logger *slog.Logger) *lock.RedisLocker {
	return lock.NewRedisLocker(client, logger)
}
