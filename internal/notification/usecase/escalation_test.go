package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscalationSweep(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.orchestrate(t, "gin", "bar", model.SeverityCritical)
	h.orchestrate(t, "tonic", "bar", model.SeverityWarning)
	before, err := h.repo.Get(ctx, "gin@bar")
	require.NoError(t, err)

	h.clk.Advance(10 * time.Minute)
	n, err := h.o.EscalationSweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "threshold must be exceeded, not reached")

	h.clk.Advance(time.Second)
	n, err = h.o.EscalationSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	sent := h.disp.all()
	last := sent[len(sent)-1]
	assert.Equal(t, model.KindEscalation, last.Kind)
	assert.Equal(t, []string{"gin"}, last.ItemIDs)

	// Re-running before another threshold elapses is a no-op.
	n, err = h.o.EscalationSweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	st, err := h.repo.Get(ctx, "gin@bar")
	require.NoError(t, err)
	assert.Equal(t, 1, st.EscalationCount)
	assert.Equal(t, before.CooldownUntil, st.CooldownUntil, "escalation keeps the cooldown clock")
	assert.Equal(t, before.LastNotifiedAt, st.LastNotifiedAt)

	h.clk.Advance(11 * time.Minute)
	n, err = h.o.EscalationSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, h.stats.Snapshot().Escalations)
}

func TestEscalationSweep_AcknowledgedStops(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.orchestrate(t, "gin", "bar", model.SeverityCritical)
	_, err := h.o.Acknowledge(ctx, "gin@bar", "mgr")
	require.NoError(t, err)

	h.clk.Advance(time.Hour)
	n, err := h.o.EscalationSweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
