package pubsub

import (
	"context"
	"encoding/json"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/JakeFAU/naver-rank-tracker/internal/rank"
)

func newFakeServer(t *testing.T) (*pstest.Server, []option.ClientOption) {
	t.Helper()
	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })
	return srv, dial(t, srv)
}

func dial(t *testing.T, srv *pstest.Server) []option.ClientOption {
	t.Helper()
	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return []option.ClientOption{option.WithGRPCConn(conn)}
}

func createTopic(t *testing.T, srv *pstest.Server, name string) {
	t.Helper()
	client, err := pubsub.NewClient(context.Background(), "proj", dial(t, srv)...)
	require.NoError(t, err)
	_, err = client.CreateTopic(context.Background(), name)
	require.NoError(t, err)
}

func TestPublishSendsEvent(t *testing.T) {
	t.Parallel()
	srv, opts := newFakeServer(t)
	ctx := context.Background()

	createTopic(t, srv, "checks")

	pub, err := Open(ctx, "proj", "checks", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pub.Close() })

	pos := 4
	event := rank.RankingEvent{CheckType: rank.CheckTypeSite, RankingID: "r-1", EntityID: 9, Rank: &pos}
	id, err := pub.Publish(ctx, rank.EventRankingChecked, event)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, rank.EventRankingChecked, msgs[0].Attributes["event"])

	var got rank.RankingEvent
	require.NoError(t, json.Unmarshal(msgs[0].Data, &got))
	assert.Equal(t, "r-1", got.RankingID)
	require.NotNil(t, got.Rank)
	assert.Equal(t, 4, *got.Rank)
}

func TestPublishMissingTopic(t *testing.T) {
	t.Parallel()
	_, opts := newFakeServer(t)

	pub, err := Open(context.Background(), "proj", "absent", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pub.Close() })

	_, err = pub.Publish(context.Background(), rank.EventRankingChecked, map[string]string{"k": "v"})
	require.Error(t, err)
}

func TestPublishUnconfigured(t *testing.T) {
	t.Parallel()

	_, err := New(nil).Publish(context.Background(), "e", "payload")
	require.ErrorContains(t, err, "not configured")
	require.NoError(t, New(nil).Close())

	_, err = Open(context.Background(), "", "checks")
	require.Error(t, err)
}

func TestPublishMarshalError(t *testing.T) {
	t.Parallel()
	srv, opts := newFakeServer(t)
	createTopic(t, srv, "t")

	pub, err := Open(context.Background(), "proj", "t", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pub.Close() })

	_, err = pub.Publish(context.Background(), "e", make(chan int))
	require.ErrorContains(t, err, "marshal payload")
}
