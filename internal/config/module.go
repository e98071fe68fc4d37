package config

import "go.uber.org/fx"

// Module loads configuration once from process flags and environment.
var Module = fx.Provide(Load)
