package rebrickable

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bricktools/brickpick/pkg/errors"
	"github.com/bricktools/brickpick/pkg/parts"
)

// testClient skips request pacing so tests run fast.
func testClient(t *testing.T, srv *httptest.Server, apiKey string) *Client {
	t.Helper()
	c := New(apiKey, WithBaseURL(srv.URL), WithTimeout(2*time.Second))
	c.last = time.Now().Add(-time.Hour)
	return c
}

func TestSetInventoryPaginates(t *testing.T) {
	var gotAuth []string
	mux := http.NewServeMux()
	mux.HandleFunc("/lego/sets/60393-1/", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"set_num":"60393-1","name":"4x4 Firetruck Doomsday Hunt","year":2023,"num_parts":149}`)
	})
	pages := 0
	var srvURL string
	mux.HandleFunc("/lego/sets/60393-1/parts/", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		pages++
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprintf(w, `{
				"count": 3,
				"next": %q,
				"results": [
					{"part":{"part_num":"3001"},"color":{"id":5,"name":"Red"},"quantity":4,"is_spare":false},
					{"part":{"part_num":"3023"},"color":{"id":0,"name":"Black"},"quantity":2,"is_spare":true}
				]
			}`, srvURL+"/lego/sets/60393-1/parts/?page=2")
		case "2":
			fmt.Fprint(w, `{
				"count": 3,
				"next": null,
				"results": [
					{"part":{"part_num":"3710"},"color":{"id":71,"name":"Light Bluish Gray"},"quantity":6,"is_spare":false}
				]
			}`)
		default:
			http.Error(w, "unexpected page", http.StatusBadRequest)
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	srvURL = srv.URL

	client := testClient(t, srv, "secret")
	inv, err := client.SetInventory(context.Background(), "60393-1")
	require.NoError(t, err)

	assert.Equal(t, "60393-1", inv.SetNumber)
	assert.Equal(t, "4x4 Firetruck Doomsday Hunt", inv.SetName)
	assert.False(t, inv.FetchedAt.IsZero())
	require.Len(t, inv.Lines, 3)
	assert.Equal(t, parts.InventoryLine{
		Key:      parts.PartKey{PartNumber: "3001", ColorID: 5},
		Quantity: 4,
	}, inv.Lines[0])
	assert.True(t, inv.Lines[1].IsSpare)
	assert.Equal(t, 2, pages)

	for _, auth := range gotAuth {
		assert.Equal(t, "key secret", auth)
	}
}

func TestSetInventoryFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Not found."}`, http.StatusNotFound)
	}))
	defer srv.Close()

	client := testClient(t, srv, "secret")
	_, err := client.SetInventory(context.Background(), "99999-9")
	require.Error(t, err)
	assert.True(t, errors.IsFetchFailed(err))

	var fetchErr *errors.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	assert.Equal(t, "99999-9", fetchErr.SetNumber)
	assert.Equal(t, "Not found.", fetchErr.Message)
}

func TestSetInventoryRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Request was throttled."}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := testClient(t, srv, "secret")
	_, err := client.SetInventory(context.Background(), "60393-1")
	require.Error(t, err)
	assert.True(t, errors.IsRateLimited(err))
	assert.True(t, errors.IsFetchFailed(err))
}

func TestMissingAPIKey(t *testing.T) {
	client := New("")
	_, err := client.SetInventory(context.Background(), "60393-1")
	assert.ErrorIs(t, err, errors.ErrAPIKeyRequired)
}

func TestContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	client := testClient(t, srv, "secret")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.SetInventory(ctx, "60393-1")
	require.Error(t, err)
	assert.True(t, errors.IsFetchFailed(err))
}

func TestValidateKey(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"count":0,"results":[]}`)
		}))
		defer srv.Close()

		ok, err := testClient(t, srv, "secret").ValidateKey(context.Background())
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("rejected", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"detail":"Invalid key"}`, http.StatusUnauthorized)
		}))
		defer srv.Close()

		ok, err := testClient(t, srv, "bogus").ValidateKey(context.Background())
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestPaceSpacesRequests(t *testing.T) {
	c := New("secret")
	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, c.pace(context.Background()))
	}
	// Third request must wait out two full intervals.
	assert.GreaterOrEqual(t, time.Since(start), 2*minRequestInterval)
}
