package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fjod/donation_cart/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddItem_Success(t *testing.T) {
	ts := newTestServer(t)
	store := ts.sessions.Open()

	rec := ts.do(t, http.MethodPost, "/api/v1/cart/items", store.ID(), map[string]any{
		"appeal_id": "1", "amount": "25", "frequency": "onetime",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decode[CartResponse](t, rec)
	assert.Equal(t, store.ID(), resp.SessionID)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "1", resp.Items[0].AppealID)
	assert.Equal(t, "25", resp.Items[0].Amount)
	assert.Equal(t, domain.FrequencyOneTime, resp.Items[0].Frequency)
	assert.Equal(t, 1, resp.Items[0].Quantity)
	assert.Equal(t, "25.00", resp.Items[0].Subtotal)
	assert.Equal(t, "Emergency Food Relief", resp.Items[0].Appeal.Title)
	assert.Equal(t, "25.00", resp.Total)
	assert.Equal(t, 1, resp.ItemCount)
	assert.True(t, resp.RecentlyAdded)
}

func TestAddItem_SameKeyMerges(t *testing.T) {
	ts := newTestServer(t)
	session := ts.sessions.Open().ID()

	for _, amount := range []string{"25", "25.00"} {
		rec := ts.do(t, http.MethodPost, "/api/v1/cart/items", session, map[string]any{
			"appeal_id": "1", "amount": amount, "frequency": "onetime",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := ts.do(t, http.MethodGet, "/api/v1/cart", session, nil)
	resp := decode[CartResponse](t, rec)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 2, resp.Items[0].Quantity)
	assert.Equal(t, "50.00", resp.Total)
}

func TestAddItem_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{
			name:   "non-positive amount",
			body:   map[string]any{"appeal_id": "1", "amount": "0", "frequency": "onetime"},
			status: http.StatusBadRequest,
			code:   "invalid_amount",
		},
		{
			name:   "negative amount",
			body:   map[string]any{"appeal_id": "1", "amount": "-5", "frequency": "onetime"},
			status: http.StatusBadRequest,
			code:   "invalid_amount",
		},
		{
			name:   "unknown frequency",
			body:   map[string]any{"appeal_id": "1", "amount": "10", "frequency": "weekly"},
			status: http.StatusBadRequest,
			code:   "invalid_frequency",
		},
		{
			name:   "missing appeal id",
			body:   map[string]any{"amount": "10", "frequency": "onetime"},
			status: http.StatusBadRequest,
			code:   "invalid_appeal_id",
		},
		{
			name:   "unknown appeal",
			body:   map[string]any{"appeal_id": "404", "amount": "10", "frequency": "onetime"},
			status: http.StatusNotFound,
			code:   "appeal_not_found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			store := ts.sessions.Open()

			rec := ts.do(t, http.MethodPost, "/api/v1/cart/items", store.ID(), tt.body)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decode[ErrorResponse](t, rec).Code)
			assert.True(t, store.State().IsEmpty())
		})
	}
}

func TestAddItem_InvalidJSON(t *testing.T) {
	ts := newTestServer(t)
	session := ts.sessions.Open().ID()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader("{not json"))
	req.Header.Set(SessionHeader, session)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decode[ErrorResponse](t, rec).Code)
}

func TestUpdateQuantity(t *testing.T) {
	ts := newTestServer(t)
	session := ts.sessions.Open().ID()

	ts.do(t, http.MethodPost, "/api/v1/cart/items", session, map[string]any{
		"appeal_id": "1", "amount": "10", "frequency": "monthly",
	})

	t.Run("sets quantity", func(t *testing.T) {
		rec := ts.do(t, http.MethodPut, "/api/v1/cart/items", session, map[string]any{
			"appeal_id": "1", "amount": "10", "frequency": "monthly", "quantity": 4,
		})
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[CartResponse](t, rec)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, 4, resp.Items[0].Quantity)
		assert.Equal(t, "40.00", resp.Total)
	})

	t.Run("unknown key is a no-op", func(t *testing.T) {
		rec := ts.do(t, http.MethodPut, "/api/v1/cart/items", session, map[string]any{
			"appeal_id": "2", "amount": "10", "frequency": "monthly", "quantity": 4,
		})
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[CartResponse](t, rec)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, "1", resp.Items[0].AppealID)
	})

	t.Run("missing quantity", func(t *testing.T) {
		rec := ts.do(t, http.MethodPut, "/api/v1/cart/items", session, map[string]any{
			"appeal_id": "1", "amount": "10", "frequency": "monthly",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_quantity", decode[ErrorResponse](t, rec).Code)
	})

	t.Run("zero removes", func(t *testing.T) {
		rec := ts.do(t, http.MethodPut, "/api/v1/cart/items", session, map[string]any{
			"appeal_id": "1", "amount": "10", "frequency": "monthly", "quantity": 0,
		})
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[CartResponse](t, rec)
		assert.Empty(t, resp.Items)
		assert.Equal(t, "0.00", resp.Total)
	})
}

func TestRemoveItem(t *testing.T) {
	ts := newTestServer(t)
	session := ts.sessions.Open().ID()

	ts.do(t, http.MethodPost, "/api/v1/cart/items", session, map[string]any{
		"appeal_id": "1", "amount": "10", "frequency": "onetime",
	})
	ts.do(t, http.MethodPost, "/api/v1/cart/items", session, map[string]any{
		"appeal_id": "1", "amount": "10", "frequency": "yearly",
	})

	rec := ts.do(t, http.MethodDelete, "/api/v1/cart/items?appeal_id=1&amount=10.00&frequency=onetime", session, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[CartResponse](t, rec)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, domain.FrequencyYearly, resp.Items[0].Frequency)
}

func TestRemoveItem_BadAmount(t *testing.T) {
	ts := newTestServer(t)
	session := ts.sessions.Open().ID()

	rec := ts.do(t, http.MethodDelete, "/api/v1/cart/items?appeal_id=1&amount=ten&frequency=onetime", session, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_amount", decode[ErrorResponse](t, rec).Code)
}

func TestGetCart_EmptySession(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/cart", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[CartResponse](t, rec)
	assert.NotEmpty(t, resp.SessionID)
	assert.Empty(t, resp.Items)
	assert.Equal(t, "0.00", resp.Total)
	assert.Equal(t, 0, resp.ItemCount)
	assert.False(t, resp.RecentlyAdded)
}

func TestAddItem_HugeExponentIsRejectedQuickly(t *testing.T) {
	ts := newTestServer(t)
	store := ts.sessions.Open()

	rec := ts.do(t, http.MethodPost, "/api/v1/cart/items", store.ID(), map[string]any{
		"appeal_id": "1", "amount": "25", "frequency": "onetime",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	start := time.Now()
	rec = ts.do(t, http.MethodPost, "/api/v1/cart/items", store.ID(), map[string]any{
		"appeal_id": "2", "amount": "1e200000000", "frequency": "onetime",
	})

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "invalid_amount", resp.Code)
	assert.Equal(t, "amount is out of range", resp.Details)

	rec = ts.do(t, http.MethodGet, "/api/v1/cart", store.ID(), nil)
	cartResp := decode[CartResponse](t, rec)
	require.Len(t, cartResp.Items, 1)
	assert.Equal(t, "25.00", cartResp.Total)
}

func TestAddItem_ErrorDetails(t *testing.T) {
	tests := []struct {
		amount  string
		details string
	}{
		{"0.005", "amount has more than 2 decimal places"},
		{"2000000", "amount exceeds 1000000.00"},
		{"0", "amount must be greater than 0"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			ts := newTestServer(t)
			session := ts.sessions.Open().ID()

			rec := ts.do(t, http.MethodPost, "/api/v1/cart/items", session, map[string]any{
				"appeal_id": "1", "amount": tt.amount, "frequency": "onetime",
			})

			require.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decode[ErrorResponse](t, rec)
			assert.Equal(t, "invalid donation amount", resp.Error)
			assert.Equal(t, tt.details, resp.Details)
		})
	}
}

func TestAddItem_OversizedBody(t *testing.T) {
	ts := newTestServer(t)
	session := ts.sessions.Open().ID()

	body := `{"appeal_id":"1","amount":"` + strings.Repeat("9", maxBodyBytes) + `","frequency":"onetime"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))
	req.Header.Set(SessionHeader, session)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decode[ErrorResponse](t, rec).Code)
}

func TestRemoveItem_HugeExponentIsNoop(t *testing.T) {
	ts := newTestServer(t)
	session := ts.sessions.Open().ID()

	ts.do(t, http.MethodPost, "/api/v1/cart/items", session, map[string]any{
		"appeal_id": "1", "amount": "10", "frequency": "onetime",
	})

	start := time.Now()
	rec := ts.do(t, http.MethodDelete, "/api/v1/cart/items?appeal_id=1&amount=1e200000000&frequency=onetime", session, nil)

	assert.Less(t, time.Since(start), time.Second)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[CartResponse](t, rec).Items, 1)
}
