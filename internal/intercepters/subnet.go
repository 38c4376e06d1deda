package intercepters

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/atinyakov/shortlink/internal/middleware"
)

type contextKey string

// RealIPKey holds the client address taken from the x-real-ip metadata.
const RealIPKey contextKey = "real-ip"

// RealIPFromContext returns the address stored by SubnetIPInterceptor, or "".
func RealIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(RealIPKey).(string)
	return ip
}

// SubnetIPInterceptor copies the x-real-ip metadata into the context.
func SubnetIPInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if ok {
		if ips := md.Get("x-real-ip"); len(ips) > 0 {
			ctx = context.WithValue(ctx, RealIPKey, ips[0])
		}
	}
	return handler(ctx, req)
}

// TrustedSubnet rejects calls to the guarded methods unless the client
// address lies in cidr. It must run after SubnetIPInterceptor.
func TrustedSubnet(cidr string, guarded ...string) grpc.UnaryServerInterceptor {
	network, err := middleware.ParseSubnet(cidr)
	if err != nil {
		network = nil
	}

	methods := make(map[string]struct{}, len(guarded))
	for _, m := range guarded {
		methods[m] = struct{}{}
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := methods[info.FullMethod]; ok && !middleware.InSubnet(network, RealIPFromContext(ctx)) {
			return nil, status.Error(codes.PermissionDenied, "client is outside the trusted subnet")
		}
		return handler(ctx, req)
	}
}
