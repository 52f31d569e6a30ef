package common_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-nursery/internal/common"
)

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	var calls int32
	handler := common.Idem{R: rdb, TTL: time.Minute}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		common.JSON(w, http.StatusOK, map[string]int32{"call": n})
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/paypal/create-order", strings.NewReader("{}"))
		req.Header.Set("Idempotency-Key", "abc")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	first := send()
	second := send()

	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
	require.Equal(t, http.StatusOK, second.Code)
	require.JSONEq(t, first.Body.String(), second.Body.String())
	require.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
}

func TestIdempotencyWithoutHeaderPassesThrough(t *testing.T) {
	var calls int32
	handler := common.Idem{}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	for i := 0; i < 2; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))
	}
	require.Equal(t, int32(2), calls)
}

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func TestDecodeJSONReportsFieldErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"nope","password":"123"}`))
	var body signup
	err := common.DecodeJSON(req, &body)

	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, "validation_failed", appErr.Code)
	fields := appErr.Details.([]common.FieldError)
	require.ElementsMatch(t, []common.FieldError{{Field: "email", Rule: "email"}, {Field: "password", Rule: "min"}}, fields)
}

func TestDecodeJSONRejectsMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	err := common.DecodeJSON(req, &signup{})

	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, "invalid_body", appErr.Code)
	require.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
}

func TestWriteErrorMapsAppErrors(t *testing.T) {
	rr := httptest.NewRecorder()
	common.WriteError(rr, common.NewAppError("plant_not_found", "Plant not found", http.StatusNotFound, nil))
	require.Equal(t, http.StatusNotFound, rr.Code)

	var body struct {
		Error common.ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "plant_not_found", body.Error.Code)

	rr = httptest.NewRecorder()
	common.WriteError(rr, errors.New("db down"))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.NotContains(t, rr.Body.String(), "db down")
}

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&per_page=500", nil)
	page, perPage := common.ParsePagination(req, 20, 100)
	require.Equal(t, 3, page)
	require.Equal(t, 100, perPage)
	require.Equal(t, 200, common.Offset(page, perPage))

	req = httptest.NewRequest(http.MethodGet, "/?page=-1&limit=x", nil)
	page, perPage = common.ParsePagination(req, 20, 100)
	require.Equal(t, 1, page)
	require.Equal(t, 20, perPage)
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	require.Equal(t, "203.0.113.7", common.ClientIP(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.2:5555"
	require.Equal(t, "198.51.100.2", common.ClientIP(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "not-an-ip")
	req.RemoteAddr = "198.51.100.2:5555"
	require.Equal(t, "198.51.100.2", common.ClientIP(req))
}

func TestPageWritesPaginationHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	common.Page[string](rr, nil, 42, 2, 10)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "42", rr.Header().Get("X-Total-Count"))
	require.Equal(t, "2", rr.Header().Get("X-Page"))
	require.Equal(t, "10", rr.Header().Get("X-Per-Page"))
	require.JSONEq(t, `[]`, rr.Body.String())
}

func TestPrincipalRoundTrip(t *testing.T) {
	ctx := common.WithPrincipal(httptest.NewRequest(http.MethodGet, "/", nil).Context(), common.Principal{UserID: "u1", Email: "a@b.c", Role: "admin"})
	p, ok := common.CurrentPrincipal(ctx)
	require.True(t, ok)
	require.Equal(t, "admin", p.Role)
}
