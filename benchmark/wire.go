//go:build wireinject

package benchmark

import "github.com/google/wire"

// InitializeService is the compile-time wired counterpart of the injector
// benchmarks. Every call builds a fresh graph.
func InitializeService() *Service {
	wire.Build(NewConfig, NewLogger, NewDatabase, NewCache, NewRepository, NewService)
	return nil
}
