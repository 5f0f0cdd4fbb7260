package businesses

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tillpoint/tillpoint-backend/internal/memberships"
	"github.com/tillpoint/tillpoint-backend/internal/subscriptions"
	"github.com/tillpoint/tillpoint-backend/pkg/db/models"
	"github.com/tillpoint/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/tillpoint/tillpoint-backend/pkg/errors"
)

const slugAttempts = 5

type businessRepository interface {
	WithTx(tx *gorm.DB) *Repository
	Create(ctx context.Context, business *models.Business) error
	FindByID(ctx context.Context, businessID uuid.UUID) (*models.Business, error)
	FindBySlug(ctx context.Context, slug string) (*models.Business, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Update(ctx context.Context, business *models.Business) error
	CreateLocation(ctx context.Context, location *models.Location) error
	FindLocation(ctx context.Context, businessID, locationID uuid.UUID) (*models.Location, error)
	ListLocations(ctx context.Context, businessID uuid.UUID) ([]models.Location, error)
}

type userFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// limitGate is the subscription surface the business lifecycle needs.
type limitGate interface {
	CanCreateBusiness(ctx context.Context, userID uuid.UUID) (*subscriptions.LimitResult, error)
	CanCreateLocation(ctx context.Context, businessID uuid.UUID) (*subscriptions.LimitResult, error)
	CanAddUser(ctx context.Context, businessID uuid.UUID) (*subscriptions.LimitResult, error)
	StartTrial(ctx context.Context, tx *gorm.DB, businessID uuid.UUID) (*models.BusinessSubscription, error)
}

// Service covers the business lifecycle: creation with its trial
// subscription, member management, and locations.
type Service interface {
	Create(ctx context.Context, dto CreateBusinessDTO) (*models.Business, error)
	GetByID(ctx context.Context, businessID uuid.UUID) (*models.Business, error)
	GetBySlug(ctx context.Context, slug string) (*models.Business, error)
	Update(ctx context.Context, businessID uuid.UUID, input UpdateBusinessInput) (*models.Business, error)

	AddMember(ctx context.Context, businessID uuid.UUID, input AddMemberInput) (*models.BusinessUser, error)
	UpdateMemberRole(ctx context.Context, businessID, userID uuid.UUID, role enums.MemberRole) error
	RemoveMember(ctx context.Context, businessID, userID uuid.UUID) error
	ListMembers(ctx context.Context, businessID uuid.UUID) ([]memberships.MemberDTO, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]memberships.BusinessSummaryDTO, error)

	CreateLocation(ctx context.Context, dto CreateLocationDTO) (*models.Location, error)
	ListLocations(ctx context.Context, businessID uuid.UUID) ([]models.Location, error)
}

type service struct {
	db      *gorm.DB
	repo    businessRepository
	members *memberships.Repository
	users   userFinder
	limits  limitGate
}

// NewService builds the businesses service.
func NewService(db *gorm.DB, repo businessRepository, members *memberships.Repository, users userFinder, limits limitGate) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle required")
	}
	if repo == nil {
		return nil, fmt.Errorf("business repository required")
	}
	if members == nil {
		return nil, fmt.Errorf("membership repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("user finder required")
	}
	if limits == nil {
		return nil, fmt.Errorf("subscription limits required")
	}
	return &service{db: db, repo: repo, members: members, users: users, limits: limits}, nil
}

func limitDenied(res *subscriptions.LimitResult) error {
	e := pkgerrors.New(pkgerrors.CodeLimitExceeded, res.Reason)
	e.WithDetails(map[string]any{
		"plan_name":        res.PlanName,
		"current_count":    res.CurrentCount,
		"limit":            res.Limit,
		"upgrade_required": true,
	})
	return e
}

// Create registers a business, its owner membership, and the trial
// subscription in one transaction.
func (s *service) Create(ctx context.Context, dto CreateBusinessDTO) (*models.Business, error) {
	dto.Name = strings.TrimSpace(dto.Name)
	if dto.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !dto.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("unknown business type %q", dto.Type))
	}

	res, err := s.limits.CanCreateBusiness(ctx, dto.OwnerID)
	if err != nil {
		return nil, err
	}
	if !res.Allowed {
		return nil, limitDenied(res)
	}

	slug, err := s.uniqueSlug(ctx, dto.Name)
	if err != nil {
		return nil, err
	}

	business := dto.ToModel()
	business.ID = uuid.New()
	business.Slug = slug

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, business); err != nil {
			if pkgerrors.IsUniqueViolation(err) {
				return pkgerrors.New(pkgerrors.CodeConflict, "business slug already taken")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create business")
		}
		if _, err := s.members.WithTx(tx).CreateMembership(ctx,
			business.ID, dto.OwnerID, enums.MemberRoleOwner, nil, enums.MembershipStatusActive); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create owner membership")
		}
		if _, err := s.limits.StartTrial(ctx, tx, business.ID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return business, nil
}

// uniqueSlug derives a slug from the name, suffixing a counter when taken.
func (s *service) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := Slugify(name)
	if base == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "name must contain letters or digits")
	}

	candidate := base
	for i := 2; i <= slugAttempts+1; i++ {
		taken, err := s.repo.SlugExists(ctx, candidate)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check slug")
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	// Past the counter window, fall back to a random suffix.
	return fmt.Sprintf("%s-%s", base, uuid.NewString()[:8]), nil
}

func (s *service) GetByID(ctx context.Context, businessID uuid.UUID) (*models.Business, error) {
	business, err := s.repo.FindByID(ctx, businessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "business not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load business")
	}
	return business, nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*models.Business, error) {
	business, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "business not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load business")
	}
	return business, nil
}

func (s *service) Update(ctx context.Context, businessID uuid.UUID, input UpdateBusinessInput) (*models.Business, error) {
	business, err := s.GetByID(ctx, businessID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		business.Name = name
	}
	if input.Phone != nil {
		business.Phone = input.Phone
	}
	if input.Email != nil {
		business.Email = input.Email
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("unknown business status %q", *input.Status))
		}
		business.Status = *input.Status
		business.IsActive = *input.Status == enums.BusinessStatusActive
	}

	if err := s.repo.Update(ctx, business); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update business")
	}
	return business, nil
}

// AddMember invites an existing user into the business, subject to the plan's
// user ceiling. A previously removed member is restored with the new role.
func (s *service) AddMember(ctx context.Context, businessID uuid.UUID, input AddMemberInput) (*models.BusinessUser, error) {
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("unknown member role %q", input.Role))
	}
	// Ownership comes from the business row, not an invited membership.
	if input.Role == enums.MemberRoleOwner {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner role cannot be assigned to invited members")
	}

	if _, err := s.users.FindByID(ctx, input.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	res, err := s.limits.CanAddUser(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if !res.Allowed {
		return nil, limitDenied(res)
	}

	existing, err := s.members.GetMembership(ctx, input.UserID, businessID)
	switch {
	case err == nil && !existing.IsDeleted:
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "user is already a member of this business")
	case err == nil:
		if err := s.members.Restore(ctx, existing, input.Role, enums.MembershipStatusActive); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore membership")
		}
		return existing, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load membership")
	}

	membership, err := s.members.CreateMembership(ctx,
		businessID, input.UserID, input.Role, &input.AddedBy, enums.MembershipStatusActive)
	if err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "user is already a member of this business")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create membership")
	}
	return membership, nil
}

func (s *service) UpdateMemberRole(ctx context.Context, businessID, userID uuid.UUID, role enums.MemberRole) error {
	if !role.IsValid() || role == enums.MemberRoleOwner {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("role %q cannot be assigned", role))
	}

	business, err := s.GetByID(ctx, businessID)
	if err != nil {
		return err
	}
	if business.OwnerID == userID {
		return pkgerrors.New(pkgerrors.CodeConflict, "the business owner's role cannot be changed")
	}

	ok, err := s.members.UpdateRole(ctx, businessID, userID, role)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update member role")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "membership not found")
	}
	return nil
}

// RemoveMember soft-deletes the membership. The owner cannot be removed.
func (s *service) RemoveMember(ctx context.Context, businessID, userID uuid.UUID) error {
	business, err := s.GetByID(ctx, businessID)
	if err != nil {
		return err
	}
	if business.OwnerID == userID {
		return pkgerrors.New(pkgerrors.CodeConflict, "the business owner cannot be removed")
	}

	ok, err := s.members.SoftDelete(ctx, businessID, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove member")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "membership not found")
	}
	return nil
}

func (s *service) ListMembers(ctx context.Context, businessID uuid.UUID) ([]memberships.MemberDTO, error) {
	members, err := s.members.ListMembers(ctx, businessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list members")
	}
	return members, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]memberships.BusinessSummaryDTO, error) {
	rows, err := s.members.ListUserBusinesses(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list businesses")
	}
	return rows, nil
}

// CreateLocation registers a location, subject to the plan's location
// ceiling.
func (s *service) CreateLocation(ctx context.Context, dto CreateLocationDTO) (*models.Location, error) {
	dto.Code = strings.TrimSpace(strings.ToUpper(dto.Code))
	dto.Name = strings.TrimSpace(dto.Name)
	if dto.Code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	if dto.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	res, err := s.limits.CanCreateLocation(ctx, dto.BusinessID)
	if err != nil {
		return nil, err
	}
	if !res.Allowed {
		return nil, limitDenied(res)
	}

	location := dto.ToModel()
	if err := s.repo.CreateLocation(ctx, location); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("location code %s already exists for this business", dto.Code))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create location")
	}
	return location, nil
}

func (s *service) ListLocations(ctx context.Context, businessID uuid.UUID) ([]models.Location, error) {
	locations, err := s.repo.ListLocations(ctx, businessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list locations")
	}
	return locations, nil
}
