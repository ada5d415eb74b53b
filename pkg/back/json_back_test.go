package back

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"DocPilot/pkg/xerr"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, data any, err error) (int, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	Result(c, data, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestResult_Success(t *testing.T) {
	code, body := run(t, gin.H{"status": "ok"}, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestResult_CodeErrorWithExtra(t *testing.T) {
	err := xerr.New(xerr.PartialIngestion, "partial").WithExtra("document_id", "doc_1_abcdef").WithExtra("code", "ignored")
	code, body := run(t, nil, err)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, float64(xerr.PartialIngestion), body["code"])
	assert.Equal(t, "partial", body["message"])
	assert.Equal(t, "doc_1_abcdef", body["document_id"])
}

func TestResult_PlainError(t *testing.T) {
	code, body := run(t, nil, errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "boom", body["message"])
}
