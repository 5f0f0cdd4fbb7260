package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/tillpoint/tillpoint-backend/pkg/logger"
)

type fakeSweeper struct {
	expired int
	err     error
	calls   int
}

func (f *fakeSweeper) ExpireOverdue(context.Context) (int, error) {
	f.calls++
	return f.expired, f.err
}

func TestSubscriptionExpiryJobRequiresDependencies(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})

	if _, err := NewSubscriptionExpiryJob(SubscriptionExpiryJobParams{Subscriptions: &fakeSweeper{}}); err == nil {
		t.Fatal("expected error without logger")
	}
	if _, err := NewSubscriptionExpiryJob(SubscriptionExpiryJobParams{Logger: logg}); err == nil {
		t.Fatal("expected error without subscription service")
	}
}

func TestSubscriptionExpiryJobSweeps(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	sweeper := &fakeSweeper{expired: 3}

	job, err := NewSubscriptionExpiryJob(SubscriptionExpiryJobParams{Logger: logg, Subscriptions: sweeper})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if job.Name() != "subscription-expiry" {
		t.Fatalf("unexpected job name %q", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run job: %v", err)
	}
	if sweeper.calls != 1 {
		t.Fatalf("expected one sweep, got %d", sweeper.calls)
	}
}

func TestSubscriptionExpiryJobPropagatesFailure(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	sweeper := &fakeSweeper{err: errors.New("db down")}

	job, err := NewSubscriptionExpiryJob(SubscriptionExpiryJobParams{Logger: logg, Subscriptions: sweeper})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected sweep failure to propagate")
	}
}
