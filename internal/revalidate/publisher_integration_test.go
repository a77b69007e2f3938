//go:build integration

package revalidate

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestRedisPublisher_Integration(t *testing.T) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	defer client.Close()

	sub := client.Subscribe(ctx, "revalidate")
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	pub := NewRedisPublisher(client, "revalidate")
	require.NoError(t, pub.Publish(ctx, Tags("categories", "abc")...))
	require.NoError(t, pub.Publish(ctx, "categories"))

	n, err := client.Get(ctx, KeyPrefix+"categories").Int()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	select {
	case msg := <-sub.Channel():
		var m Message
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &m))
		assert.Equal(t, []string{"categories", "categories:abc"}, m.Tags)
	case <-time.After(5 * time.Second):
		t.Fatal("no revalidate message received")
	}
}
