package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yeisme/dataroom/pkg/internal/events"
	"github.com/yeisme/dataroom/pkg/internal/storage/storagetest"
	"github.com/yeisme/dataroom/pkg/metrics"
	"github.com/yeisme/dataroom/pkg/queue"
)

func TestConsumerCountsEvents(t *testing.T) {
	ctx, mgr := storagetest.New(t, storagetest.Config(t))

	c, err := events.NewConsumer(mgr.GetMQClient(), queue.TopicFileUploaded)
	if err != nil {
		t.Fatal(err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)

	go func() { _ = c.Run(runCtx) }()

	select {
	case <-c.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not start")
	}

	counter := metrics.EventsConsumed.WithLabelValues(queue.TopicFileUploaded)
	before := testutil.ToFloat64(counter)

	payload := queue.FilePayload{FileID: 1, Name: "report.pdf", OwnerID: 1}
	if err := queue.Publish(ctx, mgr.GetMQClient(), queue.TopicFileUploaded, payload, queue.WithActor(1)); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for testutil.ToFloat64(counter) < before+1 {
		if time.Now().After(deadline) {
			t.Fatal("event was not consumed")
		}

		time.Sleep(10 * time.Millisecond)
	}
}
