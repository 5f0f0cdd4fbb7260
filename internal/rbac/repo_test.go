package rbac

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupRBACTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:rbac_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	for _, ddl := range []string{
		`CREATE TABLE businesses (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL,
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
  updated_at DATETIME
);`,
		`CREATE TABLE user_permissions (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  permission TEXT NOT NULL,
  business_id TEXT,
  granted INTEGER NOT NULL DEFAULT 1,
  expires_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	} {
		if err := db.Exec(ddl).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}
	return db
}

func TestRepositoryListActivePermissionsSkipsExpired(t *testing.T) {
	t.Parallel()

	db := setupRBACTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	now := time.Now().UTC()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	seed := []struct {
		permission string
		expires    *time.Time
	}{
		{"reports.view", nil},
		{"inventory.adjust", &future},
		{"pos.void", &past},
	}
	for _, row := range seed {
		err := db.Exec(
			`INSERT INTO user_permissions (id, user_id, permission, granted, expires_at) VALUES (?, ?, ?, 1, ?)`,
			uuid.NewString(), userID.String(), row.permission, row.expires,
		).Error
		if err != nil {
			t.Fatalf("seed permission: %v", err)
		}
	}

	rows, err := repo.ListActivePermissions(ctx, userID)
	if err != nil {
		t.Fatalf("list permissions: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 active rows, got %d", len(rows))
	}
	for _, row := range rows {
		if row.Permission == "pos.void" {
			t.Fatal("expired grant must be treated as absent")
		}
	}
}

func TestRepositoryUserBelongsToBusiness(t *testing.T) {
	t.Parallel()

	db := setupRBACTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	owner := uuid.New()
	member := uuid.New()
	deletedMember := uuid.New()
	outsider := uuid.New()
	businessID := uuid.New()

	err := db.Exec(
		`INSERT INTO businesses (id, name, slug, type, status, owner_id, is_active) VALUES (?, ?, ?, ?, ?, ?, 1)`,
		businessID.String(), "Corner Mart", "corner-mart", "retail", "active", owner.String(),
	).Error
	if err != nil {
		t.Fatalf("seed business: %v", err)
	}

	memberships := []struct {
		userID    uuid.UUID
		isActive  bool
		isDeleted bool
	}{
		{member, true, false},
		{deletedMember, true, true},
	}
	for _, m := range memberships {
		err := db.Exec(
			`INSERT INTO business_users (id, business_id, user_id, role, status, is_active, is_deleted) VALUES (?, ?, ?, 'cashier', 'active', ?, ?)`,
			uuid.NewString(), businessID.String(), m.userID.String(), m.isActive, m.isDeleted,
		).Error
		if err != nil {
			t.Fatalf("seed membership: %v", err)
		}
	}

	cases := []struct {
		name   string
		userID uuid.UUID
		want   bool
	}{
		{"owner", owner, true},
		{"active member", member, true},
		{"soft-deleted member", deletedMember, false},
		{"outsider", outsider, false},
	}
	for _, tc := range cases {
		got, err := repo.UserBelongsToBusiness(ctx, tc.userID, businessID)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
