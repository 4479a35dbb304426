package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/services"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/testhelpers"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/utils"
	"github.com/sendgrid/sendgrid-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingNotifier struct{ err error }

func (n failingNotifier) Notify(ctx context.Context, ev services.Event) error { return n.err }

func TestMultiNotifier_DeliversToAllAndJoinsErrors(t *testing.T) {
	rec := &testhelpers.RecordingNotifier{}
	boom := errors.New("smtp down")
	m := services.NewMultiNotifier(failingNotifier{boom}, nil, rec)
	assert.Equal(t, 2, m.Len())

	err := m.Notify(context.Background(), services.Event{Name: services.EventTenantAssigned})
	require.ErrorIs(t, err, boom)
	assert.Len(t, rec.Named(services.EventTenantAssigned), 1, "one failing channel does not starve the rest")
}

func TestDispatcher(t *testing.T) {
	t.Run("nil dispatcher is a no-op", func(t *testing.T) {
		var d *services.Dispatcher
		d.Dispatch(services.Event{Name: "x"})
		d.Wait()
	})

	t.Run("assigns ids and swallows errors", func(t *testing.T) {
		rec := &testhelpers.RecordingNotifier{}
		d := services.NewDispatcher(services.NewMultiNotifier(rec, failingNotifier{errors.New("nope")}))
		for i := 0; i < 5; i++ {
			d.Dispatch(services.Event{Name: services.EventRoomRenamed})
		}
		d.Wait()
		events := rec.Events()
		require.Len(t, events, 5)
		seen := map[uuid.UUID]bool{}
		for _, ev := range events {
			assert.NotEqual(t, uuid.Nil, ev.ID)
			seen[ev.ID] = true
		}
		assert.Len(t, seen, 5)
	})
}

func TestEmailNotifier(t *testing.T) {
	var (
		mu   sync.Mutex
		body map[string]any
		hits int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		mu.Lock()
		hits++
		_ = json.Unmarshal(raw, &body)
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := sendgrid.NewSendClient("test-key")
	client.BaseURL = srv.URL + "/v3/mail/send"
	n := services.NewEmailNotifier(client, "PG Finder", "no-reply@example.com", true)

	require.NoError(t, n.Notify(context.Background(), services.Event{Name: "x", Subject: "hello"}))
	assert.Equal(t, 0, hits, "events without a recipient are skipped")

	err := n.Notify(context.Background(), services.Event{
		Name:      services.EventTenantAssigned,
		Subject:   "Welcome",
		Message:   "You have bed D01-B1.",
		Recipient: &services.Recipient{Name: "Asha", Email: "asha@example.com"},
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, hits)
	assert.Equal(t, "Welcome", body["subject"])
	settings, _ := body["mail_settings"].(map[string]any)
	require.NotNil(t, settings)
	assert.Contains(t, settings, "sandbox_mode")
}

func TestEmailNotifier_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer srv.Close()

	client := sendgrid.NewSendClient("bad-key")
	client.BaseURL = srv.URL + "/v3/mail/send"
	n := services.NewEmailNotifier(client, "PG Finder", "no-reply@example.com", false)

	err := n.Notify(context.Background(), services.Event{
		Subject:   "Welcome",
		Recipient: &services.Recipient{Name: "Asha", Email: "asha@example.com"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestSMSNotifier_SkipsWithoutPhone(t *testing.T) {
	n := services.NewSMSNotifier(nil, "+15550000000")
	assert.NoError(t, n.Notify(context.Background(), services.Event{}))
	assert.NoError(t, n.Notify(context.Background(), services.Event{
		Recipient: &services.Recipient{Name: "Asha", Email: "asha@example.com", Phone: utils.Ptr("")},
	}))
}
