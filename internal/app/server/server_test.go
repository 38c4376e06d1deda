package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atinyakov/shortlink/internal/app/server"
	"github.com/atinyakov/shortlink/internal/app/service"
	"github.com/atinyakov/shortlink/internal/models"
	"github.com/atinyakov/shortlink/internal/storage"
)

const baseURL = "http://short.test"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := zap.NewNop()
	mem, _ := storage.CreateMemoryStorage()
	gen, err := service.NewGenerator(service.DefaultCodeLength, service.DefaultAlphabet)
	require.NoError(t, err)
	pool, err := service.NewCodePool(gen, mem, service.DefaultPoolConfig(), logger)
	require.NoError(t, err)

	svc, err := service.NewURL(mem, gen, pool, logger, service.DefaultPolicy(baseURL))
	require.NoError(t, err)

	srv := httptest.NewServer(server.Init(svc, service.NewAuth(svc, "test-secret"), server.Options{
		TrustedSubnet: "10.0.0.0/8",
	}, logger))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func TestServer_Lifecycle(t *testing.T) {
	srv := newTestServer(t)
	client := newClient(t)

	resp, err := client.Post(srv.URL+"/api/shorten", "application/json",
		strings.NewReader(`{"original_url":"https://example.com/page","requested_code":"example"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, baseURL+"/example", created.Result)
	assert.NotEmpty(t, resp.Cookies(), "owner token cookie is issued")

	resp, err = client.Get(srv.URL + "/example")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "https://example.com/page", resp.Header.Get("Location"))

	resp, err = client.Get(srv.URL + "/api/analytics/example")
	require.NoError(t, err)
	var summary models.AnalyticsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	resp.Body.Close()
	assert.Equal(t, 1, summary.ClickCount)
	assert.Len(t, summary.RecentClicks, 1)

	resp, err = client.Get(srv.URL + "/api/user/urls")
	require.NoError(t, err)
	var owned []models.ByOwnerResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&owned))
	resp.Body.Close()
	require.Len(t, owned, 1)
	assert.Equal(t, "example", owned[0].Code)

	resp, err = client.Post(srv.URL+"/api/shorten", "application/json",
		strings.NewReader(`{"original_url":"https://example.com/other","requested_code":"example"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestServer_PlainTextCreate(t *testing.T) {
	srv := newTestServer(t)
	client := newClient(t)

	resp, err := client.Post(srv.URL+"/", "text/plain", strings.NewReader("https://go.dev"))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	code, found := strings.CutPrefix(string(body), baseURL+"/")
	require.True(t, found)
	assert.Len(t, code, service.DefaultCodeLength)

	resp, err = client.Get(srv.URL + "/" + code)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
}

func TestServer_DeleteRequiresTrustedSubnet(t *testing.T) {
	srv := newTestServer(t)
	client := newClient(t)

	resp, err := client.Post(srv.URL+"/api/shorten", "application/json",
		strings.NewReader(`{"url":"https://example.com","requested_code":"todelete"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	del := func(realIP string) int {
		req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/urls/todelete", nil)
		req.Header.Set("X-Real-IP", realIP)
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusForbidden, del("192.168.1.1"))
	assert.Equal(t, http.StatusNoContent, del("10.1.2.3"))
	assert.Equal(t, http.StatusNotFound, del("10.1.2.3"))

	resp, err = client.Get(srv.URL + "/todelete")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_Routing(t *testing.T) {
	srv := newTestServer(t)
	client := newClient(t)

	resp, err := client.Get(srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = client.Get(srv.URL + "/ping")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/shorten", bytes.NewBufferString("{}"))
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = client.Get(srv.URL + "/nothing1")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
