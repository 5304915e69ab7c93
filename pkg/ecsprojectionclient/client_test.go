package ecsprojectionclient_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecspanse-go/ecspanse/pkg/ecsprojectionclient"
	"github.com/ecspanse-go/ecspanse/pkg/ecsprojectionserver"
)

func TestStreamDeliversPublishedEvents(t *testing.T) {
	srv := ecsprojectionserver.NewServer()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := ecsprojectionclient.NewClient(ts.URL, ts.Client())
	events, err := client.Stream(ctx, "scores")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, srv.Publish("scores", ecsprojectionserver.WireEvent{Status: "ok", Value: 42.0}))

	select {
	case ev := <-events:
		require.True(t, ev.IsOk())
		var v float64
		require.NoError(t, ev.Decode(&v))
		assert.Equal(t, 42.0, v)
	case <-time.After(time.Second):
		t.Fatal("did not receive published event")
	}
}

func TestStreamErrorsOnMissingServer(t *testing.T) {
	client := ecsprojectionclient.NewClient("http://127.0.0.1:1", nil)
	_, err := client.Stream(context.Background(), "anything")
	assert.Error(t, err)
}
