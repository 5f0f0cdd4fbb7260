package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tillpoint/tillpoint-backend/pkg/config"
	"github.com/tillpoint/tillpoint-backend/pkg/db/models"
	"github.com/tillpoint/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/tillpoint/tillpoint-backend/pkg/errors"
)

// LimitResult is the structured outcome of a limit check. A denial is a
// normal result, not an error; callers map Allowed=false to a 403 with the
// upgrade payload.
type LimitResult struct {
	Allowed      bool   `json:"allowed"`
	Reason       string `json:"reason,omitempty"`
	CurrentCount int64  `json:"current_count"`
	Limit        *int   `json:"limit"`
	PlanName     string `json:"plan_name"`
}

type subscriptionRepository interface {
	GetByBusiness(ctx context.Context, businessID uuid.UUID) (*models.BusinessSubscription, error)
	Create(ctx context.Context, tx *gorm.DB, sub *models.BusinessSubscription) error
	Update(ctx context.Context, sub *models.BusinessSubscription) error
	CountBusinessesOwned(ctx context.Context, userID uuid.UUID) (int64, error)
	CountLocations(ctx context.Context, businessID uuid.UUID) (int64, error)
	CountActiveUsers(ctx context.Context, businessID uuid.UUID) (int64, error)
	TiersForOwner(ctx context.Context, userID uuid.UUID) ([]enums.PlanTier, error)
	ListOverdue(ctx context.Context, now time.Time) ([]models.BusinessSubscription, error)
}

// Service exposes subscription limit checks and lifecycle transitions.
type Service interface {
	CanCreateBusiness(ctx context.Context, userID uuid.UUID) (*LimitResult, error)
	CanCreateLocation(ctx context.Context, businessID uuid.UUID) (*LimitResult, error)
	CanAddUser(ctx context.Context, businessID uuid.UUID) (*LimitResult, error)
	CheckFeatureAccess(ctx context.Context, businessID uuid.UUID, feature string) (*LimitResult, error)

	StartTrial(ctx context.Context, tx *gorm.DB, businessID uuid.UUID) (*models.BusinessSubscription, error)
	Activate(ctx context.Context, businessID uuid.UUID, tier enums.PlanTier, cycle enums.BillingCycle) (*models.BusinessSubscription, error)
	Cancel(ctx context.Context, businessID uuid.UUID) error
	ExpireOverdue(ctx context.Context) (int, error)

	GetForBusiness(ctx context.Context, businessID uuid.UUID) (*models.BusinessSubscription, error)
}

type service struct {
	repo subscriptionRepository
	cfg  config.SubscriptionConfig
	now  func() time.Time
}

// NewService builds the subscription service.
func NewService(repo subscriptionRepository, cfg config.SubscriptionConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("subscription repository required")
	}
	return &service{repo: repo, cfg: cfg, now: time.Now}, nil
}

// effectivePlan resolves the plan a business is currently entitled to. Lapsed
// or missing subscriptions fall back to the Basic ceilings rather than
// unlimited.
func (s *service) effectivePlan(ctx context.Context, businessID uuid.UUID) (Plan, *models.BusinessSubscription, error) {
	sub, err := s.repo.GetByBusiness(ctx, businessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PlanFor(enums.PlanTierBasic), nil, nil
		}
		return Plan{}, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	switch sub.Status {
	case enums.SubscriptionStatusTrial, enums.SubscriptionStatusActive:
		return PlanFor(sub.PlanTier), sub, nil
	default:
		return PlanFor(enums.PlanTierBasic), sub, nil
	}
}

func allow(count int64, lim *int, planName string) *LimitResult {
	return &LimitResult{Allowed: true, CurrentCount: count, Limit: lim, PlanName: planName}
}

func deny(reason string, count int64, lim *int, planName string) *LimitResult {
	return &LimitResult{Allowed: false, Reason: reason, CurrentCount: count, Limit: lim, PlanName: planName}
}

func withinLimit(count int64, lim *int) bool {
	return lim == nil || count < int64(*lim)
}

func (s *service) CanCreateBusiness(ctx context.Context, userID uuid.UUID) (*LimitResult, error) {
	count, err := s.repo.CountBusinessesOwned(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count businesses")
	}

	// Bootstrap: the first business is always allowed, there is no
	// subscription to check yet.
	if count == 0 {
		return allow(0, nil, ""), nil
	}

	tiers, err := s.repo.TiersForOwner(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription tiers")
	}
	plan := PlanFor(HighestTier(tiers))

	if withinLimit(count, plan.MaxBusinesses) {
		return allow(count, plan.MaxBusinesses, plan.Name), nil
	}
	return deny(
		fmt.Sprintf("plan %s allows at most %d businesses", plan.Name, *plan.MaxBusinesses),
		count, plan.MaxBusinesses, plan.Name,
	), nil
}

func (s *service) CanCreateLocation(ctx context.Context, businessID uuid.UUID) (*LimitResult, error) {
	plan, _, err := s.effectivePlan(ctx, businessID)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.CountLocations(ctx, businessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count locations")
	}
	if withinLimit(count, plan.MaxLocationsPerBusiness) {
		return allow(count, plan.MaxLocationsPerBusiness, plan.Name), nil
	}
	return deny(
		fmt.Sprintf("plan %s allows at most %d locations per business", plan.Name, *plan.MaxLocationsPerBusiness),
		count, plan.MaxLocationsPerBusiness, plan.Name,
	), nil
}

func (s *service) CanAddUser(ctx context.Context, businessID uuid.UUID) (*LimitResult, error) {
	plan, _, err := s.effectivePlan(ctx, businessID)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.CountActiveUsers(ctx, businessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count members")
	}
	if withinLimit(count, plan.MaxUsersPerBusiness) {
		return allow(count, plan.MaxUsersPerBusiness, plan.Name), nil
	}
	return deny(
		fmt.Sprintf("plan %s allows at most %d users per business", plan.Name, *plan.MaxUsersPerBusiness),
		count, plan.MaxUsersPerBusiness, plan.Name,
	), nil
}

func (s *service) CheckFeatureAccess(ctx context.Context, businessID uuid.UUID, feature string) (*LimitResult, error) {
	plan, _, err := s.effectivePlan(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if plan.HasFeature(feature) {
		return allow(0, nil, plan.Name), nil
	}
	return deny(
		fmt.Sprintf("plan %s does not include %s", plan.Name, feature),
		0, nil, plan.Name,
	), nil
}

// StartTrial opens the trial subscription assigned at business creation. A
// non-nil tx joins the caller's transaction so a failed business create does
// not leave an orphaned subscription.
func (s *service) StartTrial(ctx context.Context, tx *gorm.DB, businessID uuid.UUID) (*models.BusinessSubscription, error) {
	now := s.now().UTC()
	trialEnd := now.Add(s.cfg.TrialPeriod())
	sub := &models.BusinessSubscription{
		ID:                 uuid.New(),
		BusinessID:         businessID,
		PlanTier:           enums.PlanTierProfessional,
		Status:             enums.SubscriptionStatusTrial,
		BillingCycle:       enums.BillingCycleMonthly,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   trialEnd,
		TrialEndsAt:        &trialEnd,
	}
	if err := s.repo.Create(ctx, tx, sub); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create trial subscription")
	}
	return sub, nil
}

func (s *service) Activate(ctx context.Context, businessID uuid.UUID, tier enums.PlanTier, cycle enums.BillingCycle) (*models.BusinessSubscription, error) {
	if !tier.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid plan tier")
	}
	if !cycle.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid billing cycle")
	}

	sub, err := s.repo.GetByBusiness(ctx, businessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	if !sub.Status.CanTransitionTo(enums.SubscriptionStatusActive) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("cannot activate a %s subscription", sub.Status))
	}

	now := s.now().UTC()
	periodEnd := now.AddDate(0, 1, 0)
	if cycle == enums.BillingCycleYearly {
		periodEnd = now.AddDate(1, 0, 0)
	}

	sub.PlanTier = tier
	sub.Status = enums.SubscriptionStatusActive
	sub.BillingCycle = cycle
	sub.CurrentPeriodStart = now
	sub.CurrentPeriodEnd = periodEnd
	sub.TrialEndsAt = nil
	sub.CancelledAt = nil

	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update subscription")
	}
	return sub, nil
}

func (s *service) Cancel(ctx context.Context, businessID uuid.UUID) error {
	sub, err := s.repo.GetByBusiness(ctx, businessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	if !sub.Status.CanTransitionTo(enums.SubscriptionStatusCancelled) {
		return pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("cannot cancel a %s subscription", sub.Status))
	}

	now := s.now().UTC()
	sub.Status = enums.SubscriptionStatusCancelled
	sub.CancelledAt = &now
	if err := s.repo.Update(ctx, sub); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update subscription")
	}
	return nil
}

// ExpireOverdue flips lapsed trial/active subscriptions to expired and
// reports how many it touched. Intended for a periodic sweep.
func (s *service) ExpireOverdue(ctx context.Context) (int, error) {
	overdue, err := s.repo.ListOverdue(ctx, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list overdue subscriptions")
	}

	expired := 0
	for i := range overdue {
		sub := &overdue[i]
		if !sub.Status.CanTransitionTo(enums.SubscriptionStatusExpired) {
			continue
		}
		sub.Status = enums.SubscriptionStatusExpired
		if err := s.repo.Update(ctx, sub); err != nil {
			return expired, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire subscription")
		}
		expired++
	}
	return expired, nil
}

func (s *service) GetForBusiness(ctx context.Context, businessID uuid.UUID) (*models.BusinessSubscription, error) {
	sub, err := s.repo.GetByBusiness(ctx, businessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	return sub, nil
}
