package components

import (
	"booking-engine/internal/infra/db"
	"booking-engine/internal/infra/readstore"
	"booking-engine/internal/infra/uow"
	"booking-engine/internal/usecase/queries"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	baseOption,
	readstoreModule,
	unitOfWorkModule,
)

var baseOption = fx.Provide(
	NewDBTX,
)

var readstoreModule = fx.Module("persistence/readstore",
	fx.Provide(
		fx.Annotate(
			readstore.NewTripReadStore,
			fx.As(new(queries.TripReadStore)),
		),
		fx.Annotate(
			readstore.NewPaymentReadStore,
			fx.As(new(queries.PaymentReadStore)),
		),
	),
)

// write-side repositories are bound per transaction inside the unit of work
var unitOfWorkModule = fx.Module("persistence/uow",
	fx.Provide(
		uow.NewPostgresUoW,
	),
)

func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}
