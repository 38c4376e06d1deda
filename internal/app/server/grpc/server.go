// Package grpc serves shortener.URLService over gRPC.
package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/atinyakov/shortlink/internal/analytics"
	"github.com/atinyakov/shortlink/internal/app/service"
	"github.com/atinyakov/shortlink/internal/intercepters"
	"github.com/atinyakov/shortlink/internal/middleware"
	"github.com/atinyakov/shortlink/internal/models"
)

// Server wraps the gRPC server and dependencies.
type Server struct {
	grpcServer *grpc.Server
	addr       string
	logger     *zap.Logger
}

// New builds a server for svc. Delete is restricted to trustedSubnet.
func New(addr, trustedSubnet string, svc service.URLServiceIface, auth service.AuthIface, logger *zap.Logger) *Server {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			recovery.UnaryServerInterceptor(recovery.WithRecoveryHandler(func(p any) error {
				logger.Error("gRPC handler panicked", zap.Any("panic", p))
				return status.Error(codes.Internal, "internal error")
			})),
			logging.UnaryServerInterceptor(intercepters.InterceptorLogger(logger),
				logging.WithLogOnEvents(logging.FinishCall)),
			intercepters.SubnetIPInterceptor,
			intercepters.TrustedSubnet(trustedSubnet, DeleteMethod),
			intercepters.WithJWT(auth),
		),
	)

	RegisterURLServiceServer(s, &shortenerServer{
		service: svc,
		now:     time.Now,
	})

	return &Server{
		grpcServer: s,
		addr:       addr,
		logger:     logger,
	}
}

// Start listens on the configured address and serves until stopped.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.logger.Error("gRPC server failed to listen", zap.Error(err))
		return err
	}
	return s.Serve(lis)
}

// Serve accepts connections on lis.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("gRPC server listening", zap.String("addr", lis.Addr().String()))
	return s.grpcServer.Serve(lis)
}

// GracefulStop shuts down the server gracefully.
func (s *Server) GracefulStop() {
	s.grpcServer.GracefulStop()
}

type shortenerServer struct {
	service service.URLServiceIface
	now     func() time.Time
}

func (s *shortenerServer) Create(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	create := models.CreateRequest{
		OriginalURL:   stringField(req, "original_url"),
		RequestedCode: stringField(req, "requested_code"),
	}
	if raw := stringField(req, "expiration_date"); raw != "" {
		exp, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "expiration_date must be RFC 3339: %v", err)
		}
		create.ExpirationDate = &exp
	}

	u, err := s.service.Create(ctx, create, middleware.UserIDFromContext(ctx))
	if err != nil {
		return nil, toStatus(err)
	}

	fields := map[string]any{
		"code":      u.Code,
		"short_url": u.ShortURL,
	}
	if u.ExpirationDate != nil {
		fields["expiration_date"] = u.ExpirationDate.UTC().Format(time.RFC3339)
	}
	return structpb.NewStruct(fields)
}

func (s *shortenerServer) Resolve(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	u, err := s.service.ResolveAndRecordClick(ctx, req.GetValue(), clickMeta(ctx))
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.String(u.OriginalURL), nil
}

func (s *shortenerServer) Analytics(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	u, err := s.service.GetAnalytics(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}

	b, err := json.Marshal(analytics.Summarize(u, s.now()))
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out := &structpb.Struct{}
	if err := out.UnmarshalJSON(b); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (s *shortenerServer) Suggest(ctx context.Context, req *structpb.Struct) (*structpb.ListValue, error) {
	count := int(req.GetFields()["count"].GetNumberValue())

	suggested, err := s.service.SuggestCodes(ctx, count, stringField(req, "original_url"), stringField(req, "prefix"))
	if err != nil {
		return nil, toStatus(err)
	}

	values := make([]*structpb.Value, 0, len(suggested))
	for _, c := range suggested {
		values = append(values, structpb.NewStringValue(c))
	}
	return &structpb.ListValue{Values: values}, nil
}

func (s *shortenerServer) ListForOwner(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	urls, err := s.service.ListForOwner(ctx, middleware.UserIDFromContext(ctx))
	if err != nil {
		return nil, toStatus(err)
	}

	values := make([]*structpb.Value, 0, len(urls))
	for _, u := range urls {
		fields := map[string]any{
			"code":         u.Code,
			"original_url": u.OriginalURL,
			"short_url":    u.ShortURL,
			"click_count":  u.ClickCount,
		}
		if u.ExpirationDate != nil {
			fields["expiration_date"] = u.ExpirationDate.UTC().Format(time.RFC3339)
		}
		st, err := structpb.NewStruct(fields)
		if err != nil {
			return nil, status.Error(codes.Internal, err.Error())
		}
		values = append(values, structpb.NewStructValue(st))
	}
	return &structpb.ListValue{Values: values}, nil
}

func (s *shortenerServer) Delete(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	deleted, err := s.service.Delete(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Bool(deleted), nil
}

func stringField(st *structpb.Struct, name string) string {
	return st.GetFields()[name].GetStringValue()
}

// clickMeta collects the click metadata a gRPC caller can provide.
func clickMeta(ctx context.Context) models.ClickMeta {
	var meta models.ClickMeta
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get("user-agent"); len(v) > 0 {
			meta.UserAgent = v[0]
		}
		if v := md.Get("referer"); len(v) > 0 {
			meta.Referrer = v[0]
		}
	}

	meta.IPAddress = intercepters.RealIPFromContext(ctx)
	if meta.IPAddress == "" {
		if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
			meta.IPAddress = p.Addr.String()
		}
	}
	return meta
}

// toStatus maps service errors to gRPC codes.
func toStatus(err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		code = codes.InvalidArgument
	case errors.Is(err, service.ErrCodeConflict):
		code = codes.AlreadyExists
	case errors.Is(err, service.ErrCodeSpaceExhausted):
		code = codes.ResourceExhausted
	case errors.Is(err, service.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, service.ErrGone):
		code = codes.FailedPrecondition
	case errors.Is(err, service.ErrStoreUnavailable):
		return status.Error(codes.Unavailable, service.ErrStoreUnavailable.Error())
	default:
		return status.Error(codes.Internal, fmt.Sprintf("internal error: %v", err))
	}
	return status.Error(code, err.Error())
}
