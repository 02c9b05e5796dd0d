package proto

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/auth"
	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/config"
	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/service"
	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/store"
	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/testutil"
)

func TestBookmarkerService(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn := testutil.NewDB(t)
	logger := zap.NewNop().Sugar()
	tokens := auth.NewTokens(&config.Config{JWTSecret: "test-secret", JWTTTL: time.Hour})

	posts := store.NewPosts(conn)
	svc := service.NewBookmarks(
		store.NewFolders(conn),
		store.NewBookmarks(conn, posts),
		posts,
		store.NewTxManager(conn),
		logger,
	)

	alice := testutil.CreateUser(t, conn, "alice")
	bob := testutil.CreateUser(t, conn, "bob")
	post := testutil.CreatePost(t, conn, bob, "Compost 101")

	folder, err := svc.CreateFolder(ctx, alice.ID, "Recipes")
	require.NoError(t, err)
	_, err = svc.CreateBookmark(ctx, alice.ID, post.ID, folder.ID)
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	srv := NewServer(svc, tokens, logger)
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	cc, err := grpc.DialContext(ctx, "bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	defer cc.Close()

	client := NewBookmarkerClient(cc)

	withToken := func(userID uint64, username string) context.Context {
		token, _, err := tokens.Issue(userID, username)
		require.NoError(t, err)
		return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
	}
	aliceCtx := withToken(alice.ID, "alice")
	bobCtx := withToken(bob.ID, "bob")

	t.Run("health", func(t *testing.T) {
		resp, err := healthpb.NewHealthClient(cc).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
	})

	t.Run("unauthenticated", func(t *testing.T) {
		_, err := client.ListFolders(ctx, nil)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))

		bad := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer nope")
		_, err = client.ListFolders(bad, nil)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("list folders", func(t *testing.T) {
		resp, err := client.ListFolders(aliceCtx, nil)
		require.NoError(t, err)

		items := resp.GetFields()["items"].GetListValue().GetValues()
		require.Len(t, items, 1)
		fields := items[0].GetStructValue().GetFields()
		assert.Equal(t, "Recipes", fields["name"].GetStringValue())
		assert.Equal(t, float64(1), fields["bookmarks_count"].GetNumberValue())

		resp, err = client.ListFolders(bobCtx, nil)
		require.NoError(t, err)
		assert.Empty(t, resp.GetFields()["items"].GetListValue().GetValues())
	})

	t.Run("list bookmarks", func(t *testing.T) {
		resp, err := client.ListBookmarks(aliceCtx, nil)
		require.NoError(t, err)

		items := resp.GetFields()["items"].GetListValue().GetValues()
		require.Len(t, items, 1)
		fields := items[0].GetStructValue().GetFields()
		assert.Equal(t, "Compost 101", fields["post_title"].GetStringValue())
		assert.Equal(t, "Recipes", fields["folder_name"].GetStringValue())
	})

	t.Run("list folder bookmarks", func(t *testing.T) {
		in, err := structpb.NewStruct(map[string]interface{}{"folder_id": folder.ID})
		require.NoError(t, err)

		resp, err := client.ListFolderBookmarks(aliceCtx, in)
		require.NoError(t, err)
		assert.Len(t, resp.GetFields()["items"].GetListValue().GetValues(), 1)

		_, err = client.ListFolderBookmarks(bobCtx, in)
		assert.Equal(t, codes.PermissionDenied, status.Code(err))

		missing, err := structpb.NewStruct(map[string]interface{}{"folder_id": 999999})
		require.NoError(t, err)
		_, err = client.ListFolderBookmarks(aliceCtx, missing)
		assert.Equal(t, codes.NotFound, status.Code(err))

		_, err = client.ListFolderBookmarks(aliceCtx, nil)
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})
}
