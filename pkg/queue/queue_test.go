package queue_test

import (
	"context"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/yeisme/dataroom/pkg/queue"
)

type capture struct {
	topic string
	msgs  []*message.Message
}

func (c *capture) Publish(_ context.Context, topic string, msgs ...*message.Message) error {
	c.topic = topic
	c.msgs = append(c.msgs, msgs...)

	return nil
}

func TestPublishEnvelope(t *testing.T) {
	root := uint(7)
	pub := &capture{}

	payload := queue.FilePayload{
		FileID: 42, Name: "report.pdf", OwnerID: 1,
		At:   queue.Placement{DataRoomID: 1},
		From: &queue.Placement{DataRoomID: 1, FolderID: &root},
	}

	if err := queue.Publish(context.Background(), pub, queue.TopicFileMoved, payload, queue.WithActor(1)); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if pub.topic != queue.TopicFileMoved || len(pub.msgs) != 1 {
		t.Fatalf("published %d messages to %q", len(pub.msgs), pub.topic)
	}

	msg := pub.msgs[0]

	env, err := queue.ParseFileEvent(msg)
	if err != nil {
		t.Fatalf("ParseFileEvent: %v", err)
	}

	if env.Header.ID != msg.UUID {
		t.Errorf("header id %q != message uuid %q", env.Header.ID, msg.UUID)
	}

	if len(env.Header.ID) != 26 {
		t.Errorf("event id %q is not a ULID", env.Header.ID)
	}

	if env.Header.ActorID != 1 || env.Header.Producer == "" {
		t.Errorf("header = %+v", env.Header)
	}

	if env.Payload.At.FolderID != nil || env.Payload.From == nil || *env.Payload.From.FolderID != 7 {
		t.Errorf("payload placement = %+v from %+v", env.Payload.At, env.Payload.From)
	}

	hdr, err := queue.ParseHeader(msg)
	if err != nil || hdr.Topic != queue.TopicFileMoved {
		t.Errorf("ParseHeader = %+v, %v", hdr, err)
	}

	if msg.Metadata.Get("topic") != queue.TopicFileMoved {
		t.Errorf("metadata topic = %q", msg.Metadata.Get("topic"))
	}
}

func TestEventIDsAreOrdered(t *testing.T) {
	a := queue.NewEventHeader(queue.TopicFolderCreated)
	b := queue.NewEventHeader(queue.TopicFolderCreated)

	if a.ID == b.ID {
		t.Fatal("duplicate ids")
	}
}

func TestAllTopics(t *testing.T) {
	seen := map[string]bool{}
	for _, topic := range queue.AllTopics() {
		if seen[topic] {
			t.Errorf("duplicate topic %s", topic)
		}

		seen[topic] = true
	}

	if len(seen) != 12 {
		t.Errorf("got %d topics, want 12", len(seen))
	}
}
