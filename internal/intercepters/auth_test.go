package intercepters_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/atinyakov/shortlink/internal/app/service"
	"github.com/atinyakov/shortlink/internal/intercepters"
	"github.com/atinyakov/shortlink/internal/middleware"
	"github.com/atinyakov/shortlink/internal/mocks"
)

func TestWithJWT(t *testing.T) {
	tests := []struct {
		name        string
		md          metadata.MD
		setup       func(m *mocks.MockAuthIface)
		wantErrCode codes.Code
		wantUserID  string
	}{
		{
			name:        "missing metadata",
			md:          nil,
			setup:       func(m *mocks.MockAuthIface) {},
			wantErrCode: codes.Unauthenticated,
		},
		{
			name: "no token issues a new owner",
			md:   metadata.Pairs(),
			setup: func(m *mocks.MockAuthIface) {
				m.EXPECT().BuildJWTString().Return("new-token", "user-123", nil)
			},
			wantUserID: "user-123",
		},
		{
			name: "token build failure",
			md:   metadata.Pairs(),
			setup: func(m *mocks.MockAuthIface) {
				m.EXPECT().BuildJWTString().Return("", "", errors.New("no entropy"))
			},
			wantErrCode: codes.Internal,
		},
		{
			name: "invalid token",
			md:   metadata.Pairs("authorization", "Bearer invalidtoken"),
			setup: func(m *mocks.MockAuthIface) {
				m.EXPECT().ParseRawJWT("invalidtoken").Return(nil, service.ErrInvalidToken)
			},
			wantErrCode: codes.Unauthenticated,
		},
		{
			name: "valid token",
			md:   metadata.Pairs("authorization", "Bearer token-abc"),
			setup: func(m *mocks.MockAuthIface) {
				m.EXPECT().ParseRawJWT("token-abc").Return(&service.Claims{UserID: "user-123"}, nil)
			},
			wantUserID: "user-123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockAuth := mocks.NewMockAuthIface(ctrl)
			tt.setup(mockAuth)

			ctx := context.Background()
			if tt.md != nil {
				ctx = metadata.NewIncomingContext(ctx, tt.md)
			}

			var gotUserID string
			handler := func(ctx context.Context, req any) (any, error) {
				gotUserID = middleware.UserIDFromContext(ctx)
				return "ok", nil
			}

			resp, err := intercepters.WithJWT(mockAuth)(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/test/method"}, handler)

			if tt.wantErrCode != codes.OK {
				require.Error(t, err)
				assert.Equal(t, tt.wantErrCode, status.Code(err))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "ok", resp)
			assert.Equal(t, tt.wantUserID, gotUserID)
		})
	}
}
