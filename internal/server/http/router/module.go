package router

import (
	"go.uber.org/fx"

	"github.com/polkiloo/coursemart/internal/app"
	"github.com/polkiloo/coursemart/internal/server/http/handlers"
)

// Module registers HTTP router construction for fx runtime.
var Module = fx.Provide(
	func(f *app.CourseMart) handlers.CourseMart { return f },
	Setup,
)
