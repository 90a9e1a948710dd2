package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decodeTarget struct {
	Name string `json:"name"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		strict  bool
		ok      bool
		message string
	}{
		{name: "valid", body: `{"name":"x"}`, strict: true, ok: true},
		{name: "unknown field strict", body: `{"name":"x","extra":1}`, strict: true, message: `json: unknown field "extra"`},
		{name: "unknown field lenient", body: `{"name":"x","extra":1}`, ok: true},
		{name: "empty body", body: ``, strict: true, message: "request body must be a JSON object"},
		{name: "malformed", body: `{"name":`, message: "unexpected EOF"},
		{name: "too large", body: `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`, message: "http: request body too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst decodeTarget

			var ok bool
			if tt.strict {
				ok = DecodeJSON(rec, req, &dst)
			} else {
				ok = DecodeJSONLenient(rec, req, &dst)
			}

			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, "x", dst.Name)
				assert.Equal(t, 0, rec.Body.Len())
				return
			}
			require.Equal(t, http.StatusBadRequest, rec.Code)
			body := errorBody(t, rec)
			assert.Equal(t, "invalid_json", body["error"])
			assert.Equal(t, tt.message, body["message"])
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]int{"n": 1})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"n":1}`, rec.Body.String())

	rec = httptest.NewRecorder()
	WriteJSON(rec, http.StatusOK, make(chan int))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWriteMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteMessage(rec, http.StatusOK, "done")
	assert.JSONEq(t, `{"message":"done"}`, rec.Body.String())
}
