package subscriptions

import (
	"github.com/shopspring/decimal"

	"github.com/tillpoint/tillpoint-backend/pkg/enums"
)

// Feature names gated by plan.
const (
	FeatureAdvancedReports = "advanced_reports"
	FeatureMultiLocation   = "multi_location"
	FeatureCreditSales     = "credit_sales"
	FeatureAPIAccess       = "api_access"
)

// Plan is one entry of the static plan catalog. Nil limits mean unlimited.
type Plan struct {
	Tier                    enums.PlanTier
	Name                    string
	MonthlyPrice            decimal.Decimal
	YearlyPrice             decimal.Decimal
	MaxBusinesses           *int
	MaxLocationsPerBusiness *int
	MaxUsersPerBusiness     *int
	Features                map[string]bool
}

// HasFeature reports whether the plan enables the named feature. Unknown
// names are disabled.
func (p Plan) HasFeature(name string) bool {
	return p.Features[name]
}

func limit(n int) *int { return &n }

var planCatalog = map[enums.PlanTier]Plan{
	enums.PlanTierBasic: {
		Tier:                    enums.PlanTierBasic,
		Name:                    "Basic",
		MonthlyPrice:            decimal.NewFromInt(29),
		YearlyPrice:             decimal.NewFromInt(290),
		MaxBusinesses:           limit(1),
		MaxLocationsPerBusiness: limit(1),
		MaxUsersPerBusiness:     limit(2),
		Features: map[string]bool{
			FeatureAdvancedReports: false,
			FeatureMultiLocation:   false,
			FeatureCreditSales:     false,
			FeatureAPIAccess:       false,
		},
	},
	enums.PlanTierProfessional: {
		Tier:                    enums.PlanTierProfessional,
		Name:                    "Professional",
		MonthlyPrice:            decimal.NewFromInt(79),
		YearlyPrice:             decimal.NewFromInt(790),
		MaxBusinesses:           limit(3),
		MaxLocationsPerBusiness: limit(5),
		MaxUsersPerBusiness:     limit(10),
		Features: map[string]bool{
			FeatureAdvancedReports: true,
			FeatureMultiLocation:   true,
			FeatureCreditSales:     true,
			FeatureAPIAccess:       false,
		},
	},
	enums.PlanTierEnterprise: {
		Tier:                    enums.PlanTierEnterprise,
		Name:                    "Enterprise",
		MonthlyPrice:            decimal.NewFromInt(199),
		YearlyPrice:             decimal.NewFromInt(1990),
		MaxBusinesses:           nil,
		MaxLocationsPerBusiness: nil,
		MaxUsersPerBusiness:     nil,
		Features: map[string]bool{
			FeatureAdvancedReports: true,
			FeatureMultiLocation:   true,
			FeatureCreditSales:     true,
			FeatureAPIAccess:       true,
		},
	},
}

// PlanFor returns the catalog entry for a tier, falling back to Basic for
// anything unrecognized.
func PlanFor(tier enums.PlanTier) Plan {
	if plan, ok := planCatalog[tier]; ok {
		return plan
	}
	return planCatalog[enums.PlanTierBasic]
}

// Plans returns the catalog in ascending tier order.
func Plans() []Plan {
	return []Plan{
		planCatalog[enums.PlanTierBasic],
		planCatalog[enums.PlanTierProfessional],
		planCatalog[enums.PlanTierEnterprise],
	}
}

var tierRank = map[enums.PlanTier]int{
	enums.PlanTierBasic:        0,
	enums.PlanTierProfessional: 1,
	enums.PlanTierEnterprise:   2,
}

// HighestTier returns the richest tier among the provided ones; Basic when
// the slice is empty.
func HighestTier(tiers []enums.PlanTier) enums.PlanTier {
	best := enums.PlanTierBasic
	for _, tier := range tiers {
		if tierRank[tier] > tierRank[best] {
			best = tier
		}
	}
	return best
}
