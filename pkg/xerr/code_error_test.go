package xerr

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, New(BadRequest, "x").HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, New(PartialIngestion, "x").HTTPStatus())
	assert.Equal(t, http.StatusServiceUnavailable, New(5031, "x").HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, New(42, "x").HTTPStatus())
}

func TestWithExtraCopies(t *testing.T) {
	base := New(PartialIngestion, "partial")
	e := base.WithExtra("stored", 3).WithExtra("total", 5)

	assert.Nil(t, base.Extra)
	assert.Equal(t, map[string]any{"stored": 3, "total": 5}, e.Extra)
	assert.Equal(t, base.Code, e.Code)
}
