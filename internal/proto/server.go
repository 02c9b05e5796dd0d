package proto

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/auth"
	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/config"
	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/models"
	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/service"
)

type ownerCtxKey struct{}

type (
	BookmarkReader interface {
		ListFolders(ctx context.Context, owner uint64) ([]models.Folder, error)
		ListBookmarks(ctx context.Context, owner uint64) ([]models.Bookmark, error)
		ListFolderBookmarks(ctx context.Context, owner, folderID uint64) ([]models.Bookmark, error)
	}

	BookmarkerServerImpl struct {
		bookmarks BookmarkReader
		tokens    *auth.Tokens
		logger    *zap.SugaredLogger
	}
)

func NewGRPCServer(
	lc fx.Lifecycle,
	cfg *config.Config,
	bookmarks *service.Bookmarks,
	tokens *auth.Tokens,
	logger *zap.SugaredLogger,
) *grpc.Server {
	grpcServer := NewServer(bookmarks, tokens, logger)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			lis, err := net.Listen("tcp", cfg.GRPCListen())
			if err != nil {
				return errors.Wrap(err, "grpc listen")
			}
			logger.Infow("starting GRPC server", "listen", lis.Addr().String())

			go func() {
				if err := grpcServer.Serve(lis); err != nil {
					logger.Errorw("GRPC server stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping GRPC server.")
			grpcServer.GracefulStop()
			return nil
		},
	})

	return grpcServer
}

// NewServer registers the bookmarker and health services on a fresh server.
func NewServer(bookmarks BookmarkReader, tokens *auth.Tokens, logger *zap.SugaredLogger) *grpc.Server {
	instance := &BookmarkerServerImpl{
		bookmarks: bookmarks,
		tokens:    tokens,
		logger:    logger,
	}

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(instance.logUnary, instance.authUnary))
	grpcServer.RegisterService(&Bookmarker_ServiceDesc, instance)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, hs)

	return grpcServer
}

func (s *BookmarkerServerImpl) ListFolders(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	folders, err := s.bookmarks.ListFolders(ctx, ownerFromContext(ctx))
	if err != nil {
		return nil, err
	}

	items := make([]interface{}, len(folders))
	for i, f := range folders {
		items[i] = map[string]interface{}{
			"id":              f.ID,
			"owner":           f.Owner,
			"name":            f.Name,
			"created_at":      f.CreatedAt.Format(time.RFC3339Nano),
			"updated_at":      f.UpdatedAt.Format(time.RFC3339Nano),
			"bookmarks_count": f.BookmarksCount,
		}
	}
	return itemsStruct(items)
}

func (s *BookmarkerServerImpl) ListBookmarks(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	bookmarks, err := s.bookmarks.ListBookmarks(ctx, ownerFromContext(ctx))
	if err != nil {
		return nil, err
	}
	return bookmarksStruct(bookmarks)
}

func (s *BookmarkerServerImpl) ListFolderBookmarks(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	folderID := uint64(in.GetFields()["folder_id"].GetNumberValue())
	if folderID == 0 {
		return nil, models.FieldError("folder_id", "This field is required.")
	}

	bookmarks, err := s.bookmarks.ListFolderBookmarks(ctx, ownerFromContext(ctx), folderID)
	if err != nil {
		return nil, err
	}
	return bookmarksStruct(bookmarks)
}

func bookmarksStruct(bookmarks []models.Bookmark) (*structpb.Struct, error) {
	items := make([]interface{}, len(bookmarks))
	for i, b := range bookmarks {
		item := map[string]interface{}{
			"id":          b.ID,
			"owner":       b.Owner,
			"post":        b.PostID,
			"folder":      b.FolderID,
			"folder_name": b.FolderName,
			"created_at":  b.CreatedAt.Format(time.RFC3339Nano),
		}
		if b.Post != nil {
			item["post_title"] = b.Post.Title
			item["post_author"] = b.Post.Author
			item["post_image"] = b.Post.Image
		}
		items[i] = item
	}
	return itemsStruct(items)
}

func itemsStruct(items []interface{}) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(map[string]interface{}{"items": items})
	if err != nil {
		return nil, errors.Wrap(err, "build response")
	}
	return out, nil
}

////////

func ownerFromContext(ctx context.Context) uint64 {
	owner, _ := ctx.Value(ownerCtxKey{}).(uint64)
	return owner
}

func (s *BookmarkerServerImpl) authUnary(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if strings.HasPrefix(info.FullMethod, "/grpc.health.v1.Health/") {
		return handler(ctx, req)
	}

	token := ""
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get("authorization"); len(values) > 0 {
			token = auth.FromHeader(values[0])
		}
	}
	if token == "" {
		return nil, status.Error(codes.Unauthenticated, models.ErrUnauthorized.Message)
	}

	owner, err := s.tokens.Verify(token)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, models.ErrUnauthorized.Message)
	}

	return handler(context.WithValue(ctx, ownerCtxKey{}, owner), req)
}

func (s *BookmarkerServerImpl) logUnary(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	err = s.toStatus(info.FullMethod, err)

	s.logger.Infow("grpc call",
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"latency", time.Since(start),
	)
	return resp, err
}

var kindCodes = map[models.Kind]codes.Code{
	models.KindValidation:        codes.InvalidArgument,
	models.KindDuplicateName:     codes.AlreadyExists,
	models.KindDuplicateBookmark: codes.AlreadyExists,
	models.KindInvalidReference:  codes.InvalidArgument,
	models.KindUnauthorized:      codes.Unauthenticated,
	models.KindForbidden:         codes.PermissionDenied,
	models.KindNotFound:          codes.NotFound,
	models.KindCascadeFailure:    codes.Aborted,
}

func (s *BookmarkerServerImpl) toStatus(method string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var domainErr *models.Error
	if errors.As(err, &domainErr) {
		if code, ok := kindCodes[domainErr.Kind]; ok {
			return status.Error(code, domainErr.Message)
		}
	}

	s.logger.Errorw("grpc call failed", "method", method, "error", err)
	return status.Error(codes.Internal, "internal server error")
}
