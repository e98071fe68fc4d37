package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/coursemart/internal/adapter/gateway"
	"github.com/polkiloo/coursemart/internal/app"
	"github.com/polkiloo/coursemart/internal/config"
	"github.com/polkiloo/coursemart/internal/logger"
	"github.com/polkiloo/coursemart/internal/pkg/auth"
	"github.com/polkiloo/coursemart/internal/server/http/router"
	"github.com/polkiloo/coursemart/internal/storage/postgres"
	"github.com/polkiloo/coursemart/internal/usecase"
)

// Module assembles the full application graph. Extra options are appended last.
func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		auth.Module,
		postgres.Module,
		gateway.Module,
		usecase.Module,
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
