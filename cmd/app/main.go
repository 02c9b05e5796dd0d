package main

import (
	"go.uber.org/fx"

	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/auth"
	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/config"
	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/db"
	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/logger"
	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/proto"
	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/service"
	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/store"
	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/transport"
)

func main() {
	fx.New(app()).Run()
}

func app() fx.Option {
	return fx.Options(
		config.Module,
		logger.Module,
		db.Module,
		auth.Module,
		fx.Provide(
			fx.Annotate(store.NewPosts, fx.As(new(service.PostRepository), new(store.PostChecker))),
			fx.Annotate(store.NewFolders, fx.As(new(service.FolderStore))),
			fx.Annotate(store.NewBookmarks, fx.As(new(service.BookmarkStore))),
			fx.Annotate(store.NewTxManager, fx.As(new(service.TxManager))),
			service.NewBookmarks,
			service.NewGeneral,
		),
		transport.Module,
		proto.Module,
	)
}
