package components

import (
	"booking-engine/internal/domain/pricing"
	"booking-engine/internal/domain/ticketing"
	"booking-engine/internal/pkg/clock"
	"booking-engine/internal/pkg/config"
	"booking-engine/internal/usecase/commands"
	"booking-engine/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	NewBookingConfig,
	NewGateConfig,
	NewWebhookConfig,
	NewTicketingConfig,
	NewSweepConfig,
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewPriceGate,
		commands.NewBookingUseCase,
		commands.NewWebhookUseCase,
		commands.NewTicketingUseCase,
		commands.NewReconcileUseCase,
		commands.NewQuoteUseCase,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewTripQueries,
		queries.NewPaymentQueries,
	),
)

func NewBookingConfig(cfg config.Config) commands.BookingConfig {
	return commands.BookingConfig{
		SupportedCurrencies: cfg.Payment.SupportedCurrencies,
		GatewayTimeout:      cfg.Payment.Timeout,
		IdempotencyTTL:      cfg.Payment.IdempotencyTTL,
		CallbackURL:         cfg.Payment.CallbackURL,
	}
}

func NewGateConfig(cfg config.Config) commands.GateConfig {
	return commands.GateConfig{
		Tolerance: pricing.Tolerance{
			Percent:       cfg.Pricing.TolerancePercent,
			AbsoluteMinor: cfg.Pricing.ToleranceAbsoluteMinor,
		},
		CallTimeout: cfg.Content.Timeout,
		Attempts:    cfg.Pricing.RepriceAttempts,
		RetryBase:   cfg.Pricing.RepriceRetryBase,
	}
}

func NewWebhookConfig(cfg config.Config) commands.WebhookConfig {
	return commands.WebhookConfig{
		Secret:                 cfg.Payment.Secret,
		AmountTolerancePercent: cfg.Payment.AmountTolerancePercent,
		QuoteExpiry:            cfg.Payment.QuoteExpiry,
		TicketingHorizon:       cfg.Ticketing.Horizon,
		DedupTTL:               cfg.Payment.WebhookDedupTTL,
	}
}

func NewTicketingConfig(cfg config.Config) commands.TicketingConfig {
	return commands.TicketingConfig{
		Policy: ticketing.RetryPolicy{
			MaxAttempts: cfg.Ticketing.MaxAttempts,
			Base:        cfg.Ticketing.BackoffBase,
			Max:         cfg.Ticketing.BackoffMax,
		},
		LeaseTTL:        cfg.Ticketing.LeaseTTL,
		SupplierTimeout: cfg.Supplier.Timeout,
		Horizon:         cfg.Ticketing.Horizon,
	}
}

func NewSweepConfig(cfg config.Config, ticketingCfg commands.TicketingConfig) commands.SweepConfig {
	return commands.SweepConfig{
		QuoteExpiry: cfg.Payment.QuoteExpiry,
		StuckAfter:  cfg.Sweep.StuckAfter,
		BatchSize:   cfg.Sweep.BatchSize,
		Ticketing:   ticketingCfg,
	}
}
