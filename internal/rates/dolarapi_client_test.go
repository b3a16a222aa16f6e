package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/yelinaung/ledger-engine/internal/models"
)

func TestDolarAPIClientFetchRate(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/dolares/paralelo":
			w.Write([]byte(`{"fuente":"paralelo","nombre":"Paralelo","promedio":36.52,"fechaActualizacion":"2026-01-15T13:30:00Z"}`))
		case "/v1/dolares/oficial":
			w.Write([]byte(`{"fuente":"oficial","nombre":"Oficial","promedio":35.10,"fechaActualizacion":"2026-01-15T13:00:00Z"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewDolarAPIClient(server.URL, time.Second)

	t.Run("paralelo", func(t *testing.T) {
		quote, err := client.FetchRate(context.Background(), models.RateSourceParalelo)
		require.NoError(t, err)
		assert.Equal(t, 36.52, quote.Rate)
		assert.Equal(t, time.Date(2026, 1, 15, 13, 30, 0, 0, time.UTC), quote.FetchedAt)
	})

	t.Run("bcv maps to the official endpoint", func(t *testing.T) {
		quote, err := client.FetchRate(context.Background(), models.RateSourceBCV)
		require.NoError(t, err)
		assert.Equal(t, 35.10, quote.Rate)
	})

	t.Run("unknown source", func(t *testing.T) {
		_, err := client.FetchRate(context.Background(), "black-market")
		require.ErrorIs(t, err, errUnknownSource)
	})
}

func TestDolarAPIClientErrorResponses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    "",
			wantErr: "status 500",
		},
		{
			name:    "malformed body",
			status:  http.StatusOK,
			body:    `{"promedio":`,
			wantErr: "failed to decode",
		},
		{
			name:    "zero rate",
			status:  http.StatusOK,
			body:    `{"promedio":0}`,
			wantErr: "must be positive",
		},
		{
			name:    "negative rate",
			status:  http.StatusOK,
			body:    `{"promedio":-3}`,
			wantErr: "must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewDolarAPIClient(server.URL, time.Second)
			_, err := client.FetchRate(context.Background(), models.RateSourceParalelo)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDolarAPIClientMissingUpdateTimestamp(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"promedio":40.25}`))
	}))
	defer server.Close()

	before := time.Now().UTC()
	client := NewDolarAPIClient(server.URL+"/", time.Second)
	quote, err := client.FetchRate(context.Background(), models.RateSourceParalelo)
	require.NoError(t, err)
	assert.Equal(t, 40.25, quote.Rate)
	assert.False(t, quote.FetchedAt.Before(before))
}
