package channel

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/notification"
	"github.com/fekuna/omnipos-stock-service/internal/notification/repository"
	"github.com/fekuna/omnipos-stock-service/internal/storage"
	"github.com/fekuna/omnipos-stock-service/pkg/keylock"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	ch    model.Channel
	mu    sync.Mutex
	sent  []string
	fails int
}

func (s *recordingSender) Channel() model.Channel { return s.ch }

func (s *recordingSender) Send(_ context.Context, to model.Recipient, _ model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fails > 0 {
		s.fails--
		return errors.New("provider down")
	}
	s.sent = append(s.sent, to.ID)
	return nil
}

func (s *recordingSender) recipients() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

var recipients = []model.Recipient{
	{ID: "owner", Role: model.RoleOwner, Channels: []model.Channel{model.ChannelSMS, model.ChannelEmail}, MinSeverity: model.SeverityCritical},
	{ID: "manager", Role: model.RoleManager, Channels: []model.Channel{model.ChannelEmail, model.ChannelPush}, MinSeverity: model.SeverityWarning},
	{ID: "bartender", Role: model.RoleBartender, Channels: []model.Channel{model.ChannelPush}, MinSeverity: model.SeverityInfo},
}

func newDispatcher(senders ...Sender) (*Dispatcher, *repository.InboxRepository, *notification.Stats) {
	inbox := repository.NewInboxRepository(storage.NewMemoryStore(), keylock.NewLocal(), logger.NewNop())
	stats := notification.NewStats()
	d := NewDispatcher(NewInApp(inbox, 10), senders, recipients,
		Config{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond},
		stats, logger.NewNop())
	return d, inbox, stats
}

func TestEligible_NeverIncludesFrontLine(t *testing.T) {
	d, _, _ := newDispatcher()
	for _, r := range d.Eligible() {
		assert.False(t, r.Role.IsFrontLine(), r.ID)
	}
	assert.Empty(t, d.Eligible(ByRole(model.RoleBartender)))
}

func TestDispatch_FiltersBySeverity(t *testing.T) {
	email := &recordingSender{ch: model.ChannelEmail}
	sms := &recordingSender{ch: model.ChannelSMS}
	push := &recordingSender{ch: model.ChannelPush}
	d, inbox, _ := newDispatcher(email, sms, push)

	d.Dispatch(context.Background(), model.Notification{ID: "n1", Severity: model.SeverityWarning}, BySeverity(model.SeverityWarning))
	d.Wait()

	assert.Equal(t, []string{"manager"}, email.recipients())
	assert.Equal(t, []string{"manager"}, push.recipients())
	assert.Empty(t, sms.recipients())

	items, err := inbox.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	assert.Equal(t, []model.Channel{model.ChannelInApp, model.ChannelEmail, model.ChannelPush},
		d.Channels(BySeverity(model.SeverityWarning)))
	assert.Equal(t, []model.Channel{model.ChannelInApp, model.ChannelEmail, model.ChannelPush, model.ChannelSMS},
		d.Channels(BySeverity(model.SeverityCritical)))
}

func TestDispatch_RetriesThenGivesUp(t *testing.T) {
	flaky := &recordingSender{ch: model.ChannelEmail, fails: 2}
	d, _, stats := newDispatcher(flaky)
	d.Dispatch(context.Background(), model.Notification{ID: "n1"}, ByRole(model.RoleManager))
	d.Wait()
	assert.Equal(t, []string{"manager"}, flaky.recipients())

	dead := &recordingSender{ch: model.ChannelEmail, fails: 100}
	d, inbox, stats := newDispatcher(dead)
	d.Dispatch(context.Background(), model.Notification{ID: "n2"}, ByRole(model.RoleManager))
	d.Wait()

	assert.Empty(t, dead.recipients())
	assert.Equal(t, 1, stats.Snapshot().DeliveryFailures)
	items, err := inbox.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, items, 1, "in-app delivery survives external failure")
}

func TestWebhook(t *testing.T) {
	var hits atomic.Int32
	status := atomic.Int32{}
	status.Store(http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, srv.Client(), 0)
	ctx := context.Background()
	n := model.Notification{ID: "n1", Title: "Gin low"}

	require.NoError(t, wh.Send(ctx, model.Recipient{ID: "ops"}, n))

	status.Store(http.StatusBadRequest)
	assert.Error(t, wh.Send(ctx, model.Recipient{ID: "ops"}, n))

	status.Store(http.StatusServiceUnavailable)
	assert.Error(t, wh.Send(ctx, model.Recipient{ID: "ops"}, n))
	assert.Equal(t, int32(3), hits.Load())

	assert.Error(t, NewWebhook("", nil, 0).Send(ctx, model.Recipient{ID: "ops"}, n))
}

func TestWebhook_PermanentErrorsAreNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d, _, _ := newDispatcher(NewWebhook(srv.URL, srv.Client(), 0))
	d.recipients = []model.Recipient{{ID: "ops", Role: model.RoleManager, Channels: []model.Channel{model.ChannelWebhook}}}
	d.Dispatch(context.Background(), model.Notification{ID: "n1"})
	d.Wait()
	assert.Equal(t, int32(1), hits.Load())
}
