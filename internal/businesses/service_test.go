package businesses

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tillpoint/tillpoint-backend/internal/memberships"
	"github.com/tillpoint/tillpoint-backend/internal/subscriptions"
	"github.com/tillpoint/tillpoint-backend/pkg/config"
	"github.com/tillpoint/tillpoint-backend/pkg/db/models"
	"github.com/tillpoint/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/tillpoint/tillpoint-backend/pkg/errors"
)

func setupBusinessTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:businesses_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	for _, ddl := range []string{
		`CREATE TABLE users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  phone TEXT,
  role TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  is_verified INTEGER NOT NULL DEFAULT 0,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE businesses (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  type TEXT NOT NULL,
  status TEXT NOT NULL,
  owner_id TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  phone TEXT,
  email TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE business_users (
  id TEXT PRIMARY KEY,
  business_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  role TEXT NOT NULL,
  status TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  is_deleted INTEGER NOT NULL DEFAULT 0,
  added_by_user_id TEXT,
  joined_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (business_id, user_id)
);`,
		`CREATE TABLE business_subscriptions (
  id TEXT PRIMARY KEY,
  business_id TEXT NOT NULL UNIQUE,
  plan_tier TEXT NOT NULL,
  status TEXT NOT NULL,
  billing_cycle TEXT NOT NULL,
  current_period_start DATETIME NOT NULL,
  current_period_end DATETIME NOT NULL,
  trial_ends_at DATETIME,
  cancelled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE locations (
  id TEXT PRIMARY KEY,
  business_id TEXT NOT NULL,
  code TEXT NOT NULL,
  name TEXT NOT NULL,
  is_retail INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (business_id, code)
);`,
	} {
		if err := db.Exec(ddl).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}
	return db
}

type businessFixture struct {
	db  *gorm.DB
	svc Service
}

type testUserFinder struct {
	db *gorm.DB
}

func (f *testUserFinder) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := f.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func newBusinessFixture(t *testing.T) *businessFixture {
	t.Helper()

	db := setupBusinessTestDB(t)
	limits, err := subscriptions.NewService(
		subscriptions.NewRepository(db),
		config.SubscriptionConfig{TrialDays: 14},
	)
	if err != nil {
		t.Fatalf("subscription service: %v", err)
	}

	svc, err := NewService(db, NewRepository(db), memberships.NewRepository(db), &testUserFinder{db: db}, limits)
	if err != nil {
		t.Fatalf("business service: %v", err)
	}
	return &businessFixture{db: db, svc: svc}
}

func (f *businessFixture) seedUser(t *testing.T, email string) uuid.UUID {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: "x",
		Role:         enums.AccountRoleCustomer,
		IsActive:     true,
	}
	if err := f.db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user.ID
}

func TestCreateBusinessBootstrapsMembershipAndTrial(t *testing.T) {
	t.Parallel()

	f := newBusinessFixture(t)
	ownerID := f.seedUser(t, "owner@example.com")

	business, err := f.svc.Create(context.Background(), CreateBusinessDTO{
		Name:    "Adjei & Sons Trading",
		Type:    enums.BusinessTypeRetail,
		OwnerID: ownerID,
	})
	if err != nil {
		t.Fatalf("create business: %v", err)
	}
	if business.Slug != "adjei-sons-trading" {
		t.Fatalf("slug = %q", business.Slug)
	}

	var membership models.BusinessUser
	if err := f.db.Where("business_id = ? AND user_id = ?", business.ID, ownerID).First(&membership).Error; err != nil {
		t.Fatalf("owner membership missing: %v", err)
	}
	if membership.Role != enums.MemberRoleOwner {
		t.Fatalf("owner membership role = %s", membership.Role)
	}

	var sub models.BusinessSubscription
	if err := f.db.Where("business_id = ?", business.ID).First(&sub).Error; err != nil {
		t.Fatalf("trial subscription missing: %v", err)
	}
	if sub.Status != enums.SubscriptionStatusTrial {
		t.Fatalf("subscription status = %s, want trial", sub.Status)
	}
	if sub.PlanTier != enums.PlanTierProfessional {
		t.Fatalf("trial tier = %s, want professional", sub.PlanTier)
	}
}

func TestCreateBusinessSlugCollisionGetsSuffix(t *testing.T) {
	t.Parallel()

	f := newBusinessFixture(t)
	ownerA := f.seedUser(t, "a@example.com")
	ownerB := f.seedUser(t, "b@example.com")

	first, err := f.svc.Create(context.Background(), CreateBusinessDTO{
		Name: "Corner Shop", Type: enums.BusinessTypeRetail, OwnerID: ownerA,
	})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := f.svc.Create(context.Background(), CreateBusinessDTO{
		Name: "Corner Shop", Type: enums.BusinessTypeRetail, OwnerID: ownerB,
	})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if first.Slug != "corner-shop" || second.Slug != "corner-shop-2" {
		t.Fatalf("slugs = %q, %q", first.Slug, second.Slug)
	}
}

func TestCreateBusinessEnforcesPlanCeiling(t *testing.T) {
	t.Parallel()

	f := newBusinessFixture(t)
	ownerID := f.seedUser(t, "serial@example.com")
	ctx := context.Background()

	// The trial (professional) allows three businesses.
	for i, name := range []string{"Shop One", "Shop Two", "Shop Three"} {
		if _, err := f.svc.Create(ctx, CreateBusinessDTO{
			Name: name, Type: enums.BusinessTypeRetail, OwnerID: ownerID,
		}); err != nil {
			t.Fatalf("create business %d: %v", i+1, err)
		}
	}

	_, err := f.svc.Create(ctx, CreateBusinessDTO{
		Name: "Shop Four", Type: enums.BusinessTypeRetail, OwnerID: ownerID,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeLimitExceeded {
		t.Fatalf("expected limit error, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("details = %#v", typed.Details())
	}
	if details["upgrade_required"] != true {
		t.Fatal("expected upgrade_required detail")
	}
}

func TestAddMemberAndUserCeiling(t *testing.T) {
	t.Parallel()

	f := newBusinessFixture(t)
	ctx := context.Background()
	ownerID := f.seedUser(t, "boss@example.com")

	business, err := f.svc.Create(ctx, CreateBusinessDTO{
		Name: "Till Shop", Type: enums.BusinessTypeRetail, OwnerID: ownerID,
	})
	if err != nil {
		t.Fatalf("create business: %v", err)
	}

	cashierID := f.seedUser(t, "cashier@example.com")
	membership, err := f.svc.AddMember(ctx, business.ID, AddMemberInput{
		UserID: cashierID, Role: enums.MemberRoleCashier, AddedBy: ownerID,
	})
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
	if membership.Role != enums.MemberRoleCashier {
		t.Fatalf("role = %s", membership.Role)
	}

	// Duplicate invite conflicts.
	_, err = f.svc.AddMember(ctx, business.ID, AddMemberInput{
		UserID: cashierID, Role: enums.MemberRoleCashier, AddedBy: ownerID,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	// Lapse the subscription: the basic plan caps active users at two, and
	// owner plus cashier already fill it.
	if err := f.db.Model(&models.BusinessSubscription{}).
		Where("business_id = ?", business.ID).
		Update("status", enums.SubscriptionStatusExpired).Error; err != nil {
		t.Fatalf("expire subscription: %v", err)
	}

	thirdID := f.seedUser(t, "third@example.com")
	_, err = f.svc.AddMember(ctx, business.ID, AddMemberInput{
		UserID: thirdID, Role: enums.MemberRoleCashier, AddedBy: ownerID,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeLimitExceeded {
		t.Fatalf("expected limit error, got %v", err)
	}
}

func TestAddMemberRejectsOwnerRole(t *testing.T) {
	t.Parallel()

	f := newBusinessFixture(t)
	_, err := f.svc.AddMember(context.Background(), uuid.New(), AddMemberInput{
		UserID: uuid.New(), Role: enums.MemberRoleOwner, AddedBy: uuid.New(),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRemoveMemberProtectsOwner(t *testing.T) {
	t.Parallel()

	f := newBusinessFixture(t)
	ctx := context.Background()
	ownerID := f.seedUser(t, "keep@example.com")

	business, err := f.svc.Create(ctx, CreateBusinessDTO{
		Name: "Sole Shop", Type: enums.BusinessTypeRetail, OwnerID: ownerID,
	})
	if err != nil {
		t.Fatalf("create business: %v", err)
	}

	err = f.svc.RemoveMember(ctx, business.ID, ownerID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict for owner removal, got %v", err)
	}

	cashierID := f.seedUser(t, "leaver@example.com")
	if _, err := f.svc.AddMember(ctx, business.ID, AddMemberInput{
		UserID: cashierID, Role: enums.MemberRoleCashier, AddedBy: ownerID,
	}); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if err := f.svc.RemoveMember(ctx, business.ID, cashierID); err != nil {
		t.Fatalf("remove member: %v", err)
	}

	members, err := f.svc.ListMembers(ctx, business.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 1 {
		t.Fatalf("got %d members after removal, want 1", len(members))
	}

	// Re-inviting restores the old row rather than inserting a duplicate.
	if _, err := f.svc.AddMember(ctx, business.ID, AddMemberInput{
		UserID: cashierID, Role: enums.MemberRoleManager, AddedBy: ownerID,
	}); err != nil {
		t.Fatalf("re-invite: %v", err)
	}
	members, err = f.svc.ListMembers(ctx, business.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("got %d members after re-invite, want 2", len(members))
	}
}

func TestCreateLocationEnforcesPlanCeiling(t *testing.T) {
	t.Parallel()

	f := newBusinessFixture(t)
	ctx := context.Background()
	ownerID := f.seedUser(t, "multi@example.com")

	business, err := f.svc.Create(ctx, CreateBusinessDTO{
		Name: "Depot Chain", Type: enums.BusinessTypeWholesale, OwnerID: ownerID,
	})
	if err != nil {
		t.Fatalf("create business: %v", err)
	}

	loc, err := f.svc.CreateLocation(ctx, CreateLocationDTO{
		BusinessID: business.ID, Code: "main", Name: "Main Depot",
	})
	if err != nil {
		t.Fatalf("create location: %v", err)
	}
	if loc.Code != "MAIN" {
		t.Fatalf("code = %q, want normalized MAIN", loc.Code)
	}

	// Duplicate code conflicts.
	_, err = f.svc.CreateLocation(ctx, CreateLocationDTO{
		BusinessID: business.ID, Code: "MAIN", Name: "Main Again",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	// Lapse to basic: one location already exists, so the next is denied.
	if err := f.db.Model(&models.BusinessSubscription{}).
		Where("business_id = ?", business.ID).
		Update("status", enums.SubscriptionStatusExpired).Error; err != nil {
		t.Fatalf("expire subscription: %v", err)
	}
	_, err = f.svc.CreateLocation(ctx, CreateLocationDTO{
		BusinessID: business.ID, Code: "ANNEX", Name: "Annex",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeLimitExceeded {
		t.Fatalf("expected limit error, got %v", err)
	}
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in, want string
	}{
		{"Adjei & Sons Trading", "adjei-sons-trading"},
		{"  CORNER shop  ", "corner-shop"},
		{"A--B", "a-b"},
		{"!!!", ""},
	}
	for _, c := range cases {
		if got := Slugify(c.in); got != c.want {
			t.Fatalf("Slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
