package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "shortener.URLService"

// Full method names, as seen by interceptors.
const (
	CreateMethod       = "/" + ServiceName + "/Create"
	ResolveMethod      = "/" + ServiceName + "/Resolve"
	AnalyticsMethod    = "/" + ServiceName + "/Analytics"
	SuggestMethod      = "/" + ServiceName + "/Suggest"
	ListForOwnerMethod = "/" + ServiceName + "/ListForOwner"
	DeleteMethod       = "/" + ServiceName + "/Delete"
)

// URLServiceServer is the server API of shortener.URLService. Messages are
// protobuf well-known types:
//
//	Create       Struct{original_url, requested_code?, expiration_date?} -> Struct{code, short_url, expiration_date}
//	Resolve      StringValue(code) -> StringValue(original_url), records a click
//	Analytics    StringValue(code) -> Struct (click summary)
//	Suggest      Struct{count, original_url, prefix?} -> ListValue of strings
//	ListForOwner Empty -> ListValue of Struct
//	Delete       StringValue(code) -> BoolValue
type URLServiceServer interface {
	Create(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Resolve(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	Analytics(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Suggest(context.Context, *structpb.Struct) (*structpb.ListValue, error)
	ListForOwner(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	Delete(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
}

// unaryHandler adapts a typed server method to grpc.MethodHandler.
func unaryHandler[Req any, PReq interface {
	*Req
	proto.Message
}, Resp proto.Message](fullMethod string, call func(URLServiceServer, context.Context, PReq) (Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(URLServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(URLServiceServer), ctx, req.(PReq))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// URLServiceDesc describes shortener.URLService for grpc.ServiceRegistrar.
var URLServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*URLServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Create", Handler: unaryHandler(CreateMethod, URLServiceServer.Create)},
		{MethodName: "Resolve", Handler: unaryHandler(ResolveMethod, URLServiceServer.Resolve)},
		{MethodName: "Analytics", Handler: unaryHandler(AnalyticsMethod, URLServiceServer.Analytics)},
		{MethodName: "Suggest", Handler: unaryHandler(SuggestMethod, URLServiceServer.Suggest)},
		{MethodName: "ListForOwner", Handler: unaryHandler(ListForOwnerMethod, URLServiceServer.ListForOwner)},
		{MethodName: "Delete", Handler: unaryHandler(DeleteMethod, URLServiceServer.Delete)},
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterURLServiceServer registers srv on s.
func RegisterURLServiceServer(s grpc.ServiceRegistrar, srv URLServiceServer) {
	s.RegisterService(&URLServiceDesc, srv)
}

// Client calls shortener.URLService.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient returns a Client over cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Create(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, CreateMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Resolve(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, ResolveMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Analytics(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, AnalyticsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Suggest(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, SuggestMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListForOwner(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, ListForOwnerMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Delete(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, DeleteMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
