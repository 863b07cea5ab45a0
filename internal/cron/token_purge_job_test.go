package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/istmo-energy/portal-backend/pkg/logger"
)

type fakeTokenPurger struct {
	deleted int64
	called  int
	err     error
}

func (f *fakeTokenPurger) PurgeExpired(ctx context.Context) (int64, error) {
	f.called++
	if f.err != nil {
		return 0, f.err
	}
	return f.deleted, nil
}

func TestTokenPurgeJobRuns(t *testing.T) {
	purger := &fakeTokenPurger{deleted: 3}
	job, err := NewTokenPurgeJob(TokenPurgeJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Reschedule: purger,
	})
	if err != nil {
		t.Fatalf("NewTokenPurgeJob: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if purger.called != 1 {
		t.Fatalf("expected one purge call, got %d", purger.called)
	}
}

func TestTokenPurgeJobPropagatesError(t *testing.T) {
	job, err := NewTokenPurgeJob(TokenPurgeJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Reschedule: &fakeTokenPurger{err: errors.New("boom")},
	})
	if err != nil {
		t.Fatalf("NewTokenPurgeJob: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
