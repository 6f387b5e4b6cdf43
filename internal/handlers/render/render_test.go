package render

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_JSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		data := map[string]any{"key1": 1, "key2": "222"}
		JSON(w, data)
	}))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/test")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"key1":1,"key2":"222"}`+"\n", string(body))
}

func TestRender_ServiceError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		ServiceError(w, "something terrible happened", http.StatusForbidden)
	}))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/test")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.JSONEq(t, `
		{
			"error": "service_error",
			"message": "something terrible happened"
		}`, string(body))
}

func TestRender_BindAndValidate(t *testing.T) {
	type request struct {
		Email    string `json:"email" validate:"required,email"`
		Username string `json:"username" validate:"required,min=3,username"`
	}

	bind := func(t *testing.T, body string) (request, *httptest.ResponseRecorder, error) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		value, err := BindAndValidate[request](rec, req)
		return value, rec, err
	}

	t.Run("valid payload", func(t *testing.T) {
		value, _, err := bind(t, `{"email": "a@x.com", "username": "alice"}`)

		require.NoError(t, err)
		assert.Equal(t, "a@x.com", value.Email)
		assert.Equal(t, "alice", value.Username)
	})

	t.Run("broken json renders decode error", func(t *testing.T) {
		_, rec, err := bind(t, `{"email": `)

		require.Error(t, err)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, DecodingErrorType, resp.Error)
	})

	t.Run("validation error reports json field names", func(t *testing.T) {
		_, rec, err := bind(t, `{"email": "not-an-email", "username": "l"}`)

		require.Error(t, err)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, ValidationErrorType, resp.Error)
		assert.Contains(t, resp.Fields, "email")
		assert.Contains(t, resp.Fields, "username")
	})

	t.Run("username tag", func(t *testing.T) {
		_, rec, err := bind(t, `{"email": "a@x.com", "username": "has spaces"}`)

		require.Error(t, err)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Only letters, digits, dashes and underscores are allowed", resp.Fields["username"])
	})
}
