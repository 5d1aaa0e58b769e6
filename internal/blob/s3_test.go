package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func httpError(status int) error {
	return &smithyhttp.ResponseError{
		Response: &smithyhttp.Response{Response: &http.Response{StatusCode: status}},
		Err:      errors.New("http error"),
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"no such key", &s3types.NoSuchKey{}, true},
		{"wrapped not found", fmt.Errorf("get: %w", &s3types.NotFound{}), true},
		{"http 404", fmt.Errorf("get: %w", httpError(http.StatusNotFound)), true},
		{"http 403", httpError(http.StatusForbidden), false},
		{"plain error", errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isNotFound(tt.err))
		})
	}
}

const noSuchKeyBody = `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`

func TestS3_Get(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		if r.URL.Path == "/backtests/runs/agg_open_price.csv" {
			_, _ = io.WriteString(w, "0,10,BTCUSDT,2023-01-01\n")
			return
		}
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, noSuchKeyBody)
	}))
	defer srv.Close()

	store, err := NewS3(context.Background(), S3Config{
		Endpoint:       srv.URL,
		Region:         "us-east-1",
		Bucket:         "backtests",
		Prefix:         "runs",
		AccessKey:      "key",
		SecretKey:      "secret",
		ForcePathStyle: true,
	})
	require.NoError(t, err)

	rc, err := store.Get(context.Background(), "agg_open_price.csv")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "0,10,BTCUSDT,2023-01-01\n", string(body))

	_, err = store.Get(context.Background(), "4_result_prices/2023-01-01_trading_price.csv")
	require.ErrorIs(t, err, ErrNotFound)
	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, paths, "/backtests/runs/4_result_prices/2023-01-01_trading_price.csv")
}

func TestNewS3_RequiresBucketAndRegion(t *testing.T) {
	_, err := NewS3(context.Background(), S3Config{Region: "us-east-1"})
	require.Error(t, err)
	_, err = NewS3(context.Background(), S3Config{Bucket: "b"})
	require.Error(t, err)
}
