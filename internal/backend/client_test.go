package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sensor-dashboard/internal/logging"
)

func newTestClient(url string, opts Options) *Client {
	opts.Logger = logging.Discard()
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return New(url, opts)
}

func TestAllMeasurements(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/Mesure", r.URL.Path)
		require.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": 1, "sensorsId": 1, "authentificationId": 7, "valeur": 21.5, "dateMesure": "2025-10-01T12:00:00Z"},
			{"id": 2, "sensorsId": 3, "authentificationId": 7, "valeur": 1, "dateMesure": "2025-10-01T12:00:05"}
		]`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL, Options{}).AllMeasurements(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.Equal(t, int64(1), got[0].ID)
	require.Equal(t, 1, got[0].SensorID)
	require.Equal(t, int64(7), got[0].OwnerID)
	require.Equal(t, 21.5, got[0].Value)
	require.True(t, got[0].Timestamp.Equal(time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)))
	require.True(t, got[1].Timestamp.Equal(time.Date(2025, 10, 1, 12, 0, 5, 0, time.UTC)))
}

func TestZonelessTimestampUsesLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id": 1, "sensorsId": 2, "valeur": 40, "dateMesure": "2025-10-01T12:00:00"}]`))
	}))
	defer srv.Close()

	loc := time.FixedZone("UTC+2", 2*60*60)
	got, err := newTestClient(srv.URL, Options{Location: loc}).AllMeasurements(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.True(t, got[0].Timestamp.Equal(time.Date(2025, 10, 1, 10, 0, 0, 0, time.UTC)))
}

func TestMalformedTimestampsAreSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id": 1, "sensorsId": 2, "valeur": 40, "dateMesure": "yesterday"},
			{"id": 2, "sensorsId": 2, "valeur": 41, "dateMesure": "2025-10-01T12:00:00Z"}
		]`))
	}))
	defer srv.Close()

	skipped := 0
	c := newTestClient(srv.URL, Options{OnMalformed: func(n int) { skipped += n }})
	got, err := c.AllMeasurements(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, int64(2), got[0].ID)
	require.Equal(t, 1, skipped)
}

func TestMeasurementsBySensor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/Mesure/6", r.URL.Path)
		require.Equal(t, "Bearer s3cret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL+"/", Options{Token: "s3cret"}).MeasurementsBySensor(context.Background(), 6)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "database offline", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, Options{}).AllMeasurements(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "503")
	require.Contains(t, err.Error(), "database offline")
}

func TestInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items": []}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, Options{}).AllMeasurements(context.Background())
	require.Error(t, err)
}

func TestUnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url, Options{Timeout: time.Second}).AllMeasurements(context.Background())
	require.Error(t, err)
}
