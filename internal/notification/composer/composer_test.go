package composer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() (model.StockState, model.ReplenishmentRecommendation, model.SalesVelocity) {
	cov := 0
	s := model.StockState{
		LocationID: "bar", ItemID: "gin", ItemName: "London Dry Gin",
		Available: 2, CoverageHours: &cov, PercentOfReorder: 10,
		Severity:   model.SeverityCritical,
		Thresholds: model.Thresholds{MinAbsolute: 5, ReorderPoint: 20, PackSize: 1},
	}
	rec := model.ReplenishmentRecommendation{
		SuggestedQty: 48, Urgency: model.UrgencyImmediate, Action: model.ActionTransfer,
		TransferFrom: "cellar", Reasoning: "daily=240",
	}
	return s, rec, model.SalesVelocity{EWMA: 10}
}

func TestTemplate_IsDeterministic(t *testing.T) {
	s, rec, v := sample()
	a, err := Template{}.Compose(context.Background(), s, rec, v)
	require.NoError(t, err)
	b, _ := Template{}.Compose(context.Background(), s, rec, v)

	assert.Equal(t, a, b)
	assert.Equal(t, "[CRITICAL] London Dry Gin at bar: 2 left", a.ShortMessage)
	assert.Contains(t, a.FullMessage, "about 0h of cover at 10.0/h")
	assert.Contains(t, a.FullMessage, "transfer 48 from cellar (immediate)")
	assert.Equal(t, "daily=240", a.Explanation)
	assert.Equal(t, SourceTemplate, a.Source)
}

type stubComposer struct {
	msg   model.ComposedMessage
	err   error
	delay time.Duration
}

func (s stubComposer) Compose(ctx context.Context, _ model.StockState, _ model.ReplenishmentRecommendation, _ model.SalesVelocity) (model.ComposedMessage, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return model.ComposedMessage{}, ctx.Err()
		}
	}
	return s.msg, s.err
}

func TestWithFallback(t *testing.T) {
	s, rec, v := sample()
	testCases := []struct {
		name    string
		primary Composer
		source  string
	}{
		{"no primary", nil, SourceTemplate},
		{"primary error", stubComposer{err: errors.New("503")}, SourceTemplate},
		{"primary timeout", stubComposer{msg: model.ComposedMessage{ShortMessage: "late"}, delay: time.Second}, SourceTemplate},
		{"empty reply", stubComposer{}, SourceTemplate},
		{"primary ok", stubComposer{msg: model.ComposedMessage{ShortMessage: "Gin is nearly out"}}, SourceService},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := WithFallback(tc.primary, 20*time.Millisecond, logger.NewNop())
			msg, err := c.Compose(context.Background(), s, rec, v)
			require.NoError(t, err)
			assert.Equal(t, tc.source, msg.Source)
			assert.NotEmpty(t, msg.ShortMessage)
			assert.Equal(t, "daily=240", msg.Explanation)
		})
	}
}

func TestHTTPComposer_RoundTripAndBreaker(t *testing.T) {
	var calls atomic.Int32
	fail := atomic.Bool{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		var req composeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(model.ComposedMessage{ShortMessage: "Low: " + req.State.ItemID})
	}))
	defer srv.Close()

	c := NewHTTPComposer(srv.URL, srv.Client(), logger.NewNop())
	s, rec, v := sample()

	msg, err := c.Compose(context.Background(), s, rec, v)
	require.NoError(t, err)
	assert.Equal(t, "Low: gin", msg.ShortMessage)

	fail.Store(true)
	for i := 0; i < 3; i++ {
		_, err := c.Compose(context.Background(), s, rec, v)
		assert.Error(t, err)
	}
	before := calls.Load()
	_, err = c.Compose(context.Background(), s, rec, v)
	assert.Error(t, err)
	assert.Equal(t, before, calls.Load(), "open breaker must not reach the service")
}
