package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "bookmarker.v1.Bookmarker"

// BookmarkerServer is the server API of the read-only bookmarker service.
// Requests and responses are google.protobuf.Struct messages; list
// responses carry an "items" array.
type BookmarkerServer interface {
	ListFolders(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListBookmarks(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListFolderBookmarks(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var Bookmarker_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BookmarkerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListFolders", Handler: unaryHandler("ListFolders", BookmarkerServer.ListFolders)},
		{MethodName: "ListBookmarks", Handler: unaryHandler("ListBookmarks", BookmarkerServer.ListBookmarks)},
		{MethodName: "ListFolderBookmarks", Handler: unaryHandler("ListFolderBookmarks", BookmarkerServer.ListFolderBookmarks)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bookmarker/v1/bookmarker.proto",
}

type (
	unaryMethod func(BookmarkerServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

	// methodHandler has the shape of grpc.MethodDesc.Handler.
	methodHandler = func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error)
)

func unaryHandler(name string, call unaryMethod) methodHandler {
	fullMethod := "/" + ServiceName + "/" + name

	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(BookmarkerServer), ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(BookmarkerServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

type BookmarkerClient struct {
	cc grpc.ClientConnInterface
}

func NewBookmarkerClient(cc grpc.ClientConnInterface) *BookmarkerClient {
	return &BookmarkerClient{cc: cc}
}

func (c *BookmarkerClient) ListFolders(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListFolders", in, opts...)
}

func (c *BookmarkerClient) ListBookmarks(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListBookmarks", in, opts...)
}

func (c *BookmarkerClient) ListFolderBookmarks(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListFolderBookmarks", in, opts...)
}

func (c *BookmarkerClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
