package cron

import (
	"context"
	"fmt"

	"github.com/tillpoint/tillpoint-backend/pkg/logger"
)

type subscriptionSweeper interface {
	ExpireOverdue(ctx context.Context) (int, error)
}

// SubscriptionExpiryJobParams configures the subscription expiry sweep.
type SubscriptionExpiryJobParams struct {
	Logger        *logger.Logger
	Subscriptions subscriptionSweeper
}

// NewSubscriptionExpiryJob builds a job that marks trial and paid
// subscriptions expired once their period has lapsed. Limit enforcement
// reads subscription status at request time, so a sweep cycle only needs to
// keep the stored rows honest for reporting.
func NewSubscriptionExpiryJob(params SubscriptionExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscription service required")
	}
	return &subscriptionExpiryJob{
		logg: params.Logger,
		subs: params.Subscriptions,
	}, nil
}

type subscriptionExpiryJob struct {
	logg *logger.Logger
	subs subscriptionSweeper
}

func (j *subscriptionExpiryJob) Name() string { return "subscription-expiry" }

func (j *subscriptionExpiryJob) Run(ctx context.Context) error {
	logCtx := j.logg.WithField(ctx, "job", j.Name())
	expired, err := j.subs.ExpireOverdue(logCtx)
	if err != nil {
		return fmt.Errorf("expire overdue subscriptions: %w", err)
	}
	j.logg.Info(j.logg.WithField(logCtx, "expired", expired), "subscription expiry sweep complete")
	return nil
}
