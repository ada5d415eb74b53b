package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"DocPilot/internal/config"
	"DocPilot/internal/middleware/metrics"
	"DocPilot/internal/modules/rag/application/dto/request"
	"DocPilot/internal/modules/rag/application/dto/respond"
	ragHandler "DocPilot/internal/modules/rag/interface/http"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopDocs struct{}

func (nopDocs) Upload(ctx context.Context, filename string, data []byte) (*respond.UploadRespond, error) {
	return &respond.UploadRespond{Success: true}, nil
}

func (nopDocs) List(ctx context.Context) (*respond.DocumentListRespond, error) {
	return &respond.DocumentListRespond{Documents: []respond.DocumentItem{}}, nil
}

func (nopDocs) Delete(ctx context.Context, documentID string) (*respond.DeleteRespond, error) {
	return &respond.DeleteRespond{Success: true}, nil
}

type nopChat struct{}

func (nopChat) Chat(ctx context.Context, req request.ChatRequest) (*respond.ChatRespond, error) {
	return &respond.ChatRespond{Answer: "ok", Sources: []respond.SourceItem{}}, nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	conf := config.Default()
	conf.MainConfig.Mode = gin.TestMode
	return NewRouter(conf, RouterDeps{
		Documents: ragHandler.NewDocumentHandler(nopDocs{}, conf.UploadConfig.MaxBytes),
		Chat:      ragHandler.NewChatHandler(nopChat{}),
		Metrics:   metrics.New("docpilot_test"),
	})
}

func TestRouter_CORSPreflight(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/documents/doc_1", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodDelete)
}

func TestRouter_MetricsExposed(t *testing.T) {
	r := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "docpilot_test_http_requests_total"))
}

func TestRouter_NoMCPWhenDisabled(t *testing.T) {
	r := newTestRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("{}")))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
