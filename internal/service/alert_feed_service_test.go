package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/peibanapp/peiban-api/internal/dto"
	"github.com/peibanapp/peiban-api/internal/models"
)

func TestAlertFeedDeliversToLocalSubscriber(t *testing.T) {
	feed := NewAlertFeedService(nil, "", nil, testLogger())

	stream, cleanup := feed.Subscribe(1)
	defer cleanup()

	alert := dto.HealthAlertResponse{
		ID:       1,
		UserID:   1,
		Severity: models.AlertSeverityHigh,
		Message:  "心率偏高: 110 bpm",
	}
	feed.PublishAlert(context.Background(), alert)

	select {
	case received := <-stream:
		require.Equal(t, alert.Message, received.Message)
	case <-time.After(time.Second):
		t.Fatal("expected alert on subscriber channel")
	}
}

func TestAlertFeedDoesNotCrossUsers(t *testing.T) {
	feed := NewAlertFeedService(nil, "", nil, testLogger())

	stream, cleanup := feed.Subscribe(2)
	defer cleanup()

	feed.PublishAlert(context.Background(), dto.HealthAlertResponse{ID: 1, UserID: 1, Message: "别人的告警"})

	select {
	case <-stream:
		t.Fatal("alert for user 1 must not reach user 2")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestAlertFeedUnsubscribeClosesChannel(t *testing.T) {
	feed := NewAlertFeedService(nil, "", nil, testLogger())

	stream, cleanup := feed.Subscribe(3)
	cleanup()

	_, open := <-stream
	require.False(t, open)
}

func TestAlertFeedRelaysOverRedis(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	feed := NewAlertFeedService(client, "peiban:alerts", nil, testLogger())

	pubsub := client.Subscribe(context.Background(), "peiban:alerts:vitals")
	defer pubsub.Close()
	_, err = pubsub.Receive(context.Background())
	require.NoError(t, err)

	alert := dto.HealthAlertResponse{ID: 7, UserID: 4, Message: "血压偏高: 150/95 mmHg"}
	feed.PublishAlert(context.Background(), alert)

	msg, err := pubsub.ReceiveTimeout(context.Background(), time.Second)
	require.NoError(t, err)

	payload, ok := msg.(*redis.Message)
	require.True(t, ok)

	var event struct {
		Source string                  `json:"source"`
		Alert  dto.HealthAlertResponse `json:"alert"`
	}
	require.NoError(t, json.Unmarshal([]byte(payload.Payload), &event))
	require.NotEmpty(t, event.Source)
	require.Equal(t, alert.Message, event.Alert.Message)
}

func TestAlertFeedIgnoresOwnEvents(t *testing.T) {
	feed := NewAlertFeedService(nil, "", nil, testLogger()).(*alertFeedService)

	stream, cleanup := feed.Subscribe(5)
	defer cleanup()

	event := alertEvent{
		Source: feed.nodeID,
		Alert:  dto.HealthAlertResponse{ID: 9, UserID: 5, Message: "回声"},
		SentAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	feed.handleEvent(payload)

	select {
	case <-stream:
		t.Fatal("events originating from this node must not be re-broadcast")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestAlertFeedAcceptsForeignEvents(t *testing.T) {
	feed := NewAlertFeedService(nil, "", nil, testLogger()).(*alertFeedService)

	stream, cleanup := feed.Subscribe(6)
	defer cleanup()

	event := alertEvent{
		Source: "another-node",
		Alert:  dto.HealthAlertResponse{ID: 10, UserID: 6, Message: "体温偏高: 38.5 °C"},
		SentAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	feed.handleEvent(payload)

	select {
	case received := <-stream:
		require.Equal(t, "体温偏高: 38.5 °C", received.Message)
	case <-time.After(time.Second):
		t.Fatal("expected relayed alert on subscriber channel")
	}
}
