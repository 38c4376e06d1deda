package service_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/atinyakov/shortlink/internal/app/service"
	"github.com/atinyakov/shortlink/internal/mocks"
	"github.com/atinyakov/shortlink/internal/models"
)

func TestBuildJWTString(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockURLService := mocks.NewMockURLServiceIface(ctrl)

	// an unused owner id lists nothing
	mockURLService.EXPECT().
		ListForOwner(gomock.Any(), gomock.Any()).
		Return([]models.ShortenedURL{}, nil)

	auth := service.NewAuth(mockURLService, "test-secret")

	tokenStr, userID, err := auth.BuildJWTString()
	require.NoError(t, err)
	require.NotEmpty(t, tokenStr)
	require.NotEmpty(t, userID)

	token, err := jwt.ParseWithClaims(tokenStr, &service.Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(*service.Claims)
	require.True(t, ok)
	require.Equal(t, userID, claims.UserID)
	require.WithinDuration(t, time.Now().Add(service.TokenExp), claims.ExpiresAt.Time, time.Minute)
}

func TestBuildJWTString_RetriesTakenOwnerID(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockURLService := mocks.NewMockURLServiceIface(ctrl)

	gomock.InOrder(
		mockURLService.EXPECT().ListForOwner(gomock.Any(), gomock.Any()).
			Return([]models.ShortenedURL{{Code: "taken"}}, nil),
		mockURLService.EXPECT().ListForOwner(gomock.Any(), gomock.Any()).
			Return(nil, nil),
	)

	_, userID, err := service.NewAuth(mockURLService, "").BuildJWTString()
	require.NoError(t, err)
	require.NotEmpty(t, userID)
}

func TestBuildJWTString_StoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockURLService := mocks.NewMockURLServiceIface(ctrl)

	mockURLService.EXPECT().ListForOwner(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

	_, _, err := service.NewAuth(mockURLService, "").BuildJWTString()
	require.Error(t, err)
}

func TestParseClaims(t *testing.T) {
	auth := service.NewAuth(nil, "")

	t.Run("valid token", func(t *testing.T) {
		userID := "test-user-id"
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, service.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(service.TokenExp)),
			},
			UserID: userID,
		})

		signedToken, err := token.SignedString([]byte(service.DefaultSecret))
		require.NoError(t, err)

		claims, err := auth.ParseClaims(&http.Cookie{Name: "token", Value: signedToken})
		require.NoError(t, err)
		require.Equal(t, userID, claims.UserID)
	})

	t.Run("invalid token", func(t *testing.T) {
		claims, err := auth.ParseClaims(&http.Cookie{Name: "token", Value: "invalid.token.here"})
		require.Error(t, err)
		require.Nil(t, claims)
	})

	t.Run("foreign secret", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, service.Claims{UserID: "u"})
		signedToken, err := token.SignedString([]byte("other"))
		require.NoError(t, err)

		_, err = auth.ParseRawJWT(signedToken)
		require.Error(t, err)
	})

	t.Run("missing user id", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, service.Claims{})
		signedToken, err := token.SignedString([]byte(service.DefaultSecret))
		require.NoError(t, err)

		_, err = auth.ParseRawJWT(signedToken)
		require.ErrorIs(t, err, service.ErrInvalidToken)
	})
}
