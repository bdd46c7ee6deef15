package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}

		time.Sleep(10 * time.Millisecond)
	}

	t.Fatal("condition not met before deadline")
}

func TestSchedulerRecordsRuns(t *testing.T) {
	s, err := NewScheduler()
	if err != nil {
		t.Fatal(err)
	}

	s.Start()
	t.Cleanup(func() { _ = s.Stop() })

	ctx := context.Background()

	if err := s.AddInterval(ctx, "ok", time.Hour, func(context.Context) error { return nil }); err != nil {
		t.Fatal(err)
	}

	if err := s.AddInterval(ctx, "fails", time.Hour, func(context.Context) error { return errors.New("boom") }); err != nil {
		t.Fatal(err)
	}

	if err := s.AddInterval(ctx, "ok", time.Hour, func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected duplicate name error")
	}

	if err := s.RunNow("ok"); err != nil {
		t.Fatal(err)
	}

	if err := s.RunNow("fails"); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool {
		infos := s.GetJobInfos()
		return len(infos) == 2 && infos[0].Runs > 0 && infos[1].Runs > 0
	})

	infos := s.GetJobInfos()
	if infos[0].Name != "fails" || infos[0].Status != StatusError || infos[0].Error != "boom" {
		t.Fatalf("fails info = %+v", infos[0])
	}

	if infos[1].Name != "ok" || infos[1].Status != StatusScheduled || infos[1].LastSuccess.IsZero() {
		t.Fatalf("ok info = %+v", infos[1])
	}

	if err := s.RunNow("missing"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("RunNow(missing) = %v", err)
	}
}
