package proto

import (
	"go.uber.org/fx"
	"google.golang.org/grpc"
)

var (
	Module = fx.Options(
		fx.Provide(NewGRPCServer),
		fx.Invoke(func(*grpc.Server) {}),
	)
)
