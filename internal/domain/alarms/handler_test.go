package alarms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dose-tracker/internal/adapters/storage/memory"
	"dose-tracker/internal/domain/doses"
	"dose-tracker/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAlarmServer(t *testing.T, now time.Time, events ...doses.DoseEvent) (*httptest.Server, doses.Repository) {
	t.Helper()

	repo := memory.NewDoseRepo()
	require.NoError(t, repo.InsertBatch(context.Background(), events))
	store := doses.NewService(repo)
	prefs := memory.NewPreferenceStore()

	reg := NewRegistry(context.Background(), func(subjectID string) (*Loop, error) {
		return NewLoop(Options{
			SubjectID:    subjectID,
			Store:        store,
			Preferences:  prefs,
			PollInterval: time.Hour, // los tests hacen polling vía GET
			Now:          func() time.Time { return now },
		})
	})
	t.Cleanup(reg.Shutdown)

	r := chi.NewRouter()
	r.Use(middleware.AuthContext(nil))
	RegisterRoutes(r, reg)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, repo
}

func do(t *testing.T, method, url, body string) (*http.Response, alarmResponse) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("X-Debug-User-ID", "u-1")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out alarmResponse
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestAlarmHTTP_Flow(t *testing.T) {
	now := at(9, 10)
	srv, repo := newAlarmServer(t, now, pending("a", at(9, 0)), pending("b", at(9, 5)))

	resp, got := do(t, http.MethodGet, srv.URL+"/me/alarm", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, StateActive, got.State)
	require.NotNil(t, got.Active)
	assert.Equal(t, "a", got.Active.Dose.ID)
	assert.Len(t, got.Queue, 1)
	assert.True(t, got.ShowAudioBanner)
	assert.Equal(t, SoundOff, got.Sound)

	resp, got = do(t, http.MethodPut, srv.URL+"/me/alarm/audio", `{"enabled":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, got.ShowAudioBanner)
	assert.Equal(t, SoundRinging, got.Sound)

	resp, got = do(t, http.MethodPost, srv.URL+"/me/alarm/decision", `{"status":"taken"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, got.Active)
	assert.Equal(t, "b", got.Active.Dose.ID)

	items, err := repo.Query(context.Background(), "u-1", doses.Filter{Status: doses.StatusTaken})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].ID)

	resp, _ = do(t, http.MethodPost, srv.URL+"/me/alarm/decision", `{"status":"snooze"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, got = do(t, http.MethodPost, srv.URL+"/me/alarm/decision", `{"status":"missed"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, StateIdle, got.State)

	resp, _ = do(t, http.MethodPost, srv.URL+"/me/alarm/decision", `{"status":"taken"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = do(t, http.MethodDelete, srv.URL+"/me/session", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestAlarmHTTP_RequiresSubject(t *testing.T) {
	srv, _ := newAlarmServer(t, at(9, 0))

	resp, err := http.Get(srv.URL + "/me/alarm")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
