package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Role is the value of the profile role column.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleVendor   Role = "vendor"
	RoleCustomer Role = "customer"
)

// Identity is the authenticated caller as resolved by the identity collaborator.
type Identity struct {
	UserID         uuid.UUID
	Role           Role
	VendorID       *uuid.UUID
	VendorApproved bool
}

// CanPublish reports whether the caller may create catalog entries and offers.
func (i Identity) CanPublish() bool {
	switch i.Role {
	case RoleAdmin:
		return true
	case RoleVendor:
		return i.VendorApproved && i.VendorID != nil
	default:
		return false
	}
}

// OfferVendorID is the vendor id stamped on offers created by this caller;
// nil for admins.
func (i Identity) OfferVendorID() *uuid.UUID {
	if i.Role == RoleAdmin {
		return nil
	}
	return i.VendorID
}

// MatchSuggestion is a ranked candidate produced by the similarity matcher,
// optionally enriched with offer data.
type MatchSuggestion struct {
	CatalogID      uuid.UUID        `json:"catalogId"`
	Name           string           `json:"name"`
	Brand          *string          `json:"brand"`
	Model          *string          `json:"model"`
	CategoryName   string           `json:"categoryName"`
	Confidence     float64          `json:"confidence"`
	MatchReasons   []string         `json:"matchReasons"`
	BestPrice      *decimal.Decimal `json:"bestPrice"`
	VendorCount    int              `json:"vendorCount"`
	BestVendorName *string          `json:"bestVendorName"`
}

// Candidate is a catalog entry loaded for scoring along with its keyword set.
type Candidate struct {
	Entry        CatalogEntry   `json:"entry"`
	Keywords     []KeywordEntry `json:"keywords"`
	CategoryName string         `json:"categoryName"`
}

// ProductData carries the offer fields (and catalog defaults) of an auto-link request.
type ProductData struct {
	Price             decimal.Decimal   `json:"price"`
	ComparePrice      *decimal.Decimal  `json:"comparePrice"`
	Condition         string            `json:"condition"`
	Color             *string           `json:"color"`
	Size              *string           `json:"size"`
	Storage           *string           `json:"storage"`
	OtherVariants     datatypes.JSONMap `json:"otherVariants"`
	SKU               *string           `json:"sku"`
	InventoryQuantity *int              `json:"inventoryQuantity"`
	TrackInventory    *bool             `json:"trackInventory"`
	Title             *string           `json:"title"`
	Description       *string           `json:"description"`
	Images            []string          `json:"images"`
	IsFeatured        bool              `json:"isFeatured"`
	GTIN              *string           `json:"gtin"`
	MPN               *string           `json:"mpn"`
	Model             *string           `json:"model"`
	Specifications    datatypes.JSONMap `json:"specifications"`
}

// AutoLinkRequest is the input of the auto-link decision engine.
type AutoLinkRequest struct {
	ProductName     string      `json:"productName"`
	CategoryID      string      `json:"categoryId"`
	ForceNewCatalog bool        `json:"forceNewCatalog"`
	CatalogID       string      `json:"catalogId"`
	ProductData     ProductData `json:"productData"`
}

// Auto-link outcomes.
const (
	ActionLinked  = "linked"
	ActionCreated = "created"
)

// AutoLinkResult reports the outcome of one auto-link call.
type AutoLinkResult struct {
	Action     string        `json:"action"`
	CatalogID  uuid.UUID     `json:"catalogId"`
	OfferID    uuid.UUID     `json:"offerId"`
	Product    *ProductOffer `json:"product"`
	Confidence *float64      `json:"confidence,omitempty"`
}

// SuggestResult is the response of the suggestion service.
type SuggestResult struct {
	Suggestions []MatchSuggestion `json:"suggestions"`
	Query       string            `json:"query"`
	HasMatches  bool              `json:"hasMatches"`
}

// FeedbackInput is an explicit feedback submission.
type FeedbackInput struct {
	InputText          string     `json:"inputText"`
	SuggestedCatalogID *uuid.UUID `json:"suggestedCatalogId"`
	UserChoice         bool       `json:"userChoice"`
	ActualCatalogID    *uuid.UUID `json:"actualCatalogId"`
	ConfidenceScore    *float64   `json:"confidenceScore"`
	CategoryID         *uuid.UUID `json:"categoryId"`
}

// FeedbackBucket aggregates decisions within a confidence range [Min, Max).
type FeedbackBucket struct {
	Min            float64 `json:"min"`
	Max            float64 `json:"max"`
	Accepted       int     `json:"accepted"`
	Rejected       int     `json:"rejected"`
	AcceptanceRate float64 `json:"acceptanceRate"`
}

// FeedbackSummary is the acceptance profile of recorded feedback.
type FeedbackSummary struct {
	Since         time.Time        `json:"since"`
	Total         int              `json:"total"`
	Accepted      int              `json:"accepted"`
	Rejected      int              `json:"rejected"`
	WithoutScore  int              `json:"withoutScore"`
	Buckets       []FeedbackBucket `json:"buckets"`
	ImplicitLinks int              `json:"implicitLinks"`
}
