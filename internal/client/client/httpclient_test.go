package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vportnov/smallwins/internal/common"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL, "user-1", 5*time.Second)
}

func TestHTTPClient_SendsIdentityHeader(t *testing.T) {
	var gotUser string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotUser = r.Header.Get(common.UserIDHeaderName)
		_ = json.NewEncoder(w).Encode(itemResponse{Item: Moment{ID: "srv-1", Text: "x"}})
	})

	_, err := c.GetByServerID(context.Background(), "srv-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", gotUser)
}

func TestHTTPClient_GetByClientID_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/moments/by-client-id/abc", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(errorResponse{Error: "unknown client id"})
	})

	_, err := c.GetByClientID(context.Background(), "abc")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPClient_Create_QuotaErrors(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantErr error
	}{
		{name: "daily", code: codeDailyLimitReached, wantErr: ErrDailyLimitReached},
		{name: "total", code: codeTotalLimitReached, wantErr: ErrTotalLimitReached},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodPost, r.Method)
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(errorResponse{Error: "limit reached", Code: tc.code})
			})

			_, err := c.Create(context.Background(), CreateMomentRequest{ClientID: "abc", Text: "x"})
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestHTTPClient_Create_SendsBody(t *testing.T) {
	var got CreateMomentRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(itemResponse{Item: Moment{ID: "srv-1", ClientID: got.ClientID, Text: got.Text}})
	})

	m, err := c.Create(context.Background(), CreateMomentRequest{
		ClientID:    "abc",
		Text:        "ran 5k",
		SubmittedAt: "2026-08-29T10:00:00Z",
		Timezone:    "Europe/Riga",
		TimeAgo:     30,
	})
	require.NoError(t, err)
	assert.Equal(t, "abc", got.ClientID)
	assert.Equal(t, 30, got.TimeAgo)
	assert.Equal(t, "srv-1", m.ID)
}

func TestHTTPClient_RequestEnrichment_Conflict(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/moments/srv-1/enrich", r.URL.Path)
		w.WriteHeader(http.StatusConflict)
	})

	_, err := c.RequestEnrichment(context.Background(), "srv-1")
	require.ErrorIs(t, err, ErrEnrichInProgress)
}

func TestHTTPClient_RetriesTransientServerError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(itemResponse{Item: Moment{ID: "srv-1", Text: "x"}})
	})

	m, err := c.GetByServerID(context.Background(), "srv-1")
	require.NoError(t, err)
	assert.Equal(t, "srv-1", m.ID)
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPClient_GivesUpAfterBoundedRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.GetByServerID(context.Background(), "srv-1")
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(transientRetries+1), calls.Load())
}

func TestHTTPClient_List_EncodesParams(t *testing.T) {
	fav := true
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/moments", r.URL.Path)
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		assert.Equal(t, "cur-2", r.URL.Query().Get("cursor"))
		assert.Equal(t, "true", r.URL.Query().Get("isFavorite"))
		_ = json.NewEncoder(w).Encode(ListMomentsResult{
			Data:        []Moment{{ID: "srv-1", Text: "x"}},
			NextCursor:  "cur-3",
			HasNextPage: true,
		})
	})

	res, err := c.List(context.Background(), ListMomentsParams{Limit: 25, Cursor: "cur-2", IsFavorite: &fav})
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "cur-3", res.NextCursor)
	assert.True(t, res.HasNextPage)
}

func TestHTTPClient_SetFavoriteAndDelete(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	})

	require.NoError(t, c.SetFavorite(context.Background(), "srv-1", true))
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/moments/srv-1", gotPath)
	assert.Equal(t, true, gotBody["isFavorite"])

	require.NoError(t, c.Delete(context.Background(), "srv-1"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/moments/srv-1", gotPath)
}

func TestHTTPClient_ServerErrorMessageIsWrapped(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(errorResponse{Error: "text is required"})
	})

	_, err := c.Create(context.Background(), CreateMomentRequest{ClientID: "abc"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "text is required")
}

func TestParseTimestamp(t *testing.T) {
	fallback := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{name: "plain", input: "2026-08-29T10:00:00Z", want: time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)},
		{name: "fractional seconds", input: "2026-08-29T10:00:00.123Z", want: time.Date(2026, 8, 29, 10, 0, 0, 123000000, time.UTC)},
		{name: "empty falls back", input: "", want: fallback},
		{name: "garbage falls back", input: "yesterday-ish", want: fallback},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseTimestamp(tc.input, fallback)
			assert.True(t, tc.want.Equal(got), "want %v, got %v", tc.want, got)
		})
	}
}
