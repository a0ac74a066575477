package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/learnhub-api/internal/dto"
)

type mailRecorder struct {
	mu       sync.Mutex
	to       []string
	subjects []string
	bodies   []string
	err      error
}

func (m *mailRecorder) Send(ctx context.Context, to []string, subject, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.to = append(m.to, to...)
	m.subjects = append(m.subjects, subject)
	m.bodies = append(m.bodies, html)
	return m.err
}

func sampleReviewEvent(userID string) dto.ReviewEvent {
	total := int64(120)
	return dto.ReviewEvent{
		SubmissionID:  "sub-1",
		UserID:        userID,
		UserEmail:     "linh@example.com",
		UserName:      "Linh",
		RelatedTitle:  "Week 1",
		Status:        "approved",
		PointsAwarded: 20,
		TeacherName:   "Ms. Hoa",
		NewTotal:      &total,
		ReviewedAt:    time.Now().UTC(),
	}
}

func TestReviewEventServiceDeliversToSubscriberAndMail(t *testing.T) {
	mailer := &mailRecorder{}
	svc := NewReviewEventService(nil, "", nil, mailer, testLogger())

	events, cancel := svc.Subscribe("user-1")
	defer cancel()
	others, cancelOthers := svc.Subscribe("user-2")
	defer cancelOthers()

	require.NoError(t, svc.Publish(context.Background(), sampleReviewEvent("user-1")))

	select {
	case event := <-events:
		require.Equal(t, "sub-1", event.SubmissionID)
		require.Equal(t, int64(120), *event.NewTotal)
	case <-time.After(time.Second):
		t.Fatal("expected review event")
	}

	select {
	case <-others:
		t.Fatal("event leaked to another user")
	default:
	}

	require.NoError(t, svc.Shutdown(context.Background()))
	require.Equal(t, []string{"linh@example.com"}, mailer.to)
	require.Equal(t, "Your submission was approved", mailer.subjects[0])
	require.Contains(t, mailer.bodies[0], "You earned 20 points.")
	require.Contains(t, mailer.bodies[0], "<strong>Week 1</strong>")
}

func TestReviewEventServiceMailFailureIsNotReturned(t *testing.T) {
	mailer := &mailRecorder{err: errors.New("smtp down")}
	svc := NewReviewEventService(nil, "", nil, mailer, testLogger())

	events, cancel := svc.Subscribe("user-1")
	defer cancel()

	require.NoError(t, svc.Publish(context.Background(), sampleReviewEvent("user-1")))
	require.Len(t, events, 1)

	require.NoError(t, svc.Shutdown(context.Background()))
	require.Len(t, mailer.subjects, 1)
}

type blockingMailer struct {
	release chan struct{}
	sent    chan string
}

func (m *blockingMailer) Send(ctx context.Context, to []string, subject, html string) error {
	<-m.release
	m.sent <- html
	return nil
}

func TestReviewEventServicePublishDoesNotWaitForMail(t *testing.T) {
	mailer := &blockingMailer{release: make(chan struct{}), sent: make(chan string, 1)}
	svc := NewReviewEventService(nil, "", nil, mailer, testLogger())

	event := sampleReviewEvent("user-1")
	event.TeacherComment = "Tom & Jerry's clip is blurry"

	done := make(chan error, 1)
	go func() { done <- svc.Publish(context.Background(), event) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("publish blocked on mail delivery")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, svc.Shutdown(ctx), context.DeadlineExceeded)

	close(mailer.release)
	require.NoError(t, svc.Shutdown(context.Background()))

	body := <-mailer.sent
	require.Contains(t, body, "Comment: Tom &amp; Jerry&#39;s clip is blurry")
	require.NotContains(t, body, "&amp;amp;")
}

func TestReviewEventServiceCancelClosesChannel(t *testing.T) {
	svc := NewReviewEventService(nil, "", nil, nil, testLogger())

	events, cancel := svc.Subscribe("user-1")
	cancel()
	cancel()

	_, open := <-events
	require.False(t, open)
	require.NoError(t, svc.Publish(context.Background(), sampleReviewEvent("user-1")))
}

func TestReviewEventServiceFansOutAcrossNodesViaRedis(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	clientA := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer clientA.Close()
	clientB := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer clientB.Close()

	nodeA := NewReviewEventService(clientA, "learnhub", nil, nil, testLogger())
	nodeB := NewReviewEventService(clientB, "learnhub", nil, nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	nodeB.Start(ctx)

	require.Eventually(t, func() bool {
		return server.PubSubNumSub("learnhub:submission-reviews")["learnhub:submission-reviews"] == 1
	}, 2*time.Second, 10*time.Millisecond)

	local, cancelLocal := nodeA.Subscribe("user-1")
	defer cancelLocal()
	remote, cancelRemote := nodeB.Subscribe("user-1")
	defer cancelRemote()

	require.NoError(t, nodeA.Publish(context.Background(), sampleReviewEvent("user-1")))

	for _, ch := range []<-chan dto.ReviewEvent{local, remote} {
		select {
		case event := <-ch:
			require.Equal(t, "sub-1", event.SubmissionID)
			require.Equal(t, "approved", event.Status)
		case <-time.After(2 * time.Second):
			t.Fatal("expected review event on both nodes")
		}
	}
}
