package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "truthchain/pkg/domain-errors"
)

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func Test_WriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteJSON(rr, http.StatusCreated, map[string]string{"hello": "world"})

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "world", decode(t, rr)["hello"])
}

func Test_WriteError_CodedError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, dErrors.New(dErrors.CodeDuplicate, "document already registered at this hash"))

	assert.Equal(t, http.StatusConflict, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, "duplicate_registration", body["error"])
	assert.Equal(t, "document already registered at this hash", body["error_description"])
}

func Test_WriteError_WrappedCodeSurvives(t *testing.T) {
	cause := errors.New("connection refused")
	err := dErrors.Wrap(dErrors.CodeUnavailable, "ledger write failed", cause)

	rr := httptest.NewRecorder()
	WriteError(rr, err)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, "ledger_unavailable", body["error"])
	assert.NotContains(t, body["error_description"], "connection refused")
}

func Test_WriteError_InternalOmitsDescription(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, dErrors.New(dErrors.CodeInternal, "schema mismatch in row 7"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, "internal", body["error"])
	_, present := body["error_description"]
	assert.False(t, present, "internal details must not leak to callers")
}

func Test_WriteError_UncodedErrorIsInternal(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, errors.New("something unexpected"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "internal", decode(t, rr)["error"])
}
