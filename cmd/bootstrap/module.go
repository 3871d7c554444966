package bootstrap

import (
	"booking-engine/cmd/bootstrap/components"

	"go.uber.org/fx"
)

// infrastructure shared by the API and the worker
var baseModule = fx.Options(
	ConfigModule,
	LoggerModule,
	DBModule,
	RedisModule,
	MessagingModule,
	components.PersistenceModule,
	components.CollaboratorModule,
	components.UseCaseModule,
)

var Module = fx.Options(
	baseModule,
	JWTModule,
	components.HandlerModule,
)

var WorkerModule = fx.Options(
	baseModule,
	components.WorkerModule,
)
