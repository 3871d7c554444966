package commands

import (
	"context"
	"log/slog"
	"time"

	"booking-engine/internal/domain/money"
	"booking-engine/internal/domain/pricing"
	"booking-engine/internal/pkg/backoff"
	"booking-engine/internal/pkg/clock"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/shared"
)

type GateConfig struct {
	Tolerance   pricing.Tolerance
	CallTimeout time.Duration
	Attempts    int
	RetryBase   time.Duration
}

type PriceGate interface {
	// Reconfirm returns the current offer when the booking may proceed, or a
	// *PriceChangedError carrying the new price.
	Reconfirm(ctx context.Context, offerID string, searchPrice money.Money, acceptedPrice *money.Money) (*shared.PricedOffer, error)
}

type priceGateImpl struct {
	content shared.ContentClient
	cfg     GateConfig
	clock   clock.Clock
	logger  *slog.Logger
}

func NewPriceGate(content shared.ContentClient, cfg GateConfig, clk clock.Clock, logger *slog.Logger) PriceGate {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	return &priceGateImpl{content: content, cfg: cfg, clock: clk, logger: logger}
}

func (g *priceGateImpl) Reconfirm(ctx context.Context, offerID string, searchPrice money.Money, acceptedPrice *money.Money) (*shared.PricedOffer, error) {
	offer, err := g.reprice(ctx, offerID)
	if err != nil {
		return nil, err
	}

	if offer.ValidUntil != nil && !g.clock.Now().Before(*offer.ValidUntil) {
		return nil, errs.Mark(ErrOfferExpired, ErrValidation)
	}

	result := pricing.Evaluate(searchPrice, acceptedPrice, offer.Total, g.cfg.Tolerance)
	if !result.Accepted() {
		g.logger.Info("price reconfirmation required",
			slog.String("offer_id", offerID),
			slog.String("search_price", searchPrice.String()),
			slog.String("current_price", offer.Total.String()),
			slog.Int64("delta_minor", result.Delta))
		return nil, &PriceChangedError{NewPrice: offer.Total, OldPrice: searchPrice}
	}
	return offer, nil
}

func (g *priceGateImpl) reprice(ctx context.Context, offerID string) (*shared.PricedOffer, error) {
	var lastErr error
	for attempt := 0; attempt < g.cfg.Attempts; attempt++ {
		if attempt > 0 {
			wait := backoff.Exponential(attempt-1, g.cfg.RetryBase, 0)
			select {
			case <-ctx.Done():
				return nil, errs.Mark(ctx.Err(), ErrContentUnavailable)
			case <-time.After(wait):
			}
		}

		offer, err := g.callContent(ctx, offerID)
		if err == nil {
			return offer, nil
		}
		if errs.Is(err, ErrOfferNotFound) {
			return nil, err
		}
		lastErr = err
		g.logger.Warn("content reprice failed",
			slog.String("offer_id", offerID),
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()))
	}
	return nil, errs.Mark(lastErr, ErrContentUnavailable)
}

func (g *priceGateImpl) callContent(ctx context.Context, offerID string) (*shared.PricedOffer, error) {
	if g.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.CallTimeout)
		defer cancel()
	}
	offer, err := g.content.Reprice(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer == nil || offer.Total.AmountMinor() <= 0 {
		return nil, errs.Wrap(ErrContentUnavailable, "content returned no price")
	}
	return offer, nil
}
