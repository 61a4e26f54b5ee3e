package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// CatalogEntry is a canonical physical product, independent of any vendor.
type CatalogEntry struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string            `gorm:"not null;column:name" json:"name"`
	Brand           *string           `gorm:"column:brand" json:"brand"`
	Model           *string           `gorm:"column:model" json:"model"`
	CategoryID      uuid.UUID         `gorm:"type:uuid;not null;index;column:category_id" json:"categoryId"`
	BaseDescription string            `gorm:"column:base_description" json:"baseDescription"`
	Specifications  datatypes.JSONMap `gorm:"column:specifications" json:"specifications"`
	Images          datatypes.JSON    `gorm:"column:images" json:"images"`
	GTIN            *string           `gorm:"column:gtin;index" json:"gtin"`
	MPN             *string           `gorm:"column:mpn" json:"mpn"`
	Slug            string            `gorm:"not null;index;column:slug" json:"slug"`
	CreatedBy       uuid.UUID         `gorm:"type:uuid;column:created_by" json:"createdBy"`
	IsActive        bool              `gorm:"not null;column:is_active" json:"isActive"`
	CreatedAt       time.Time         `gorm:"not null;index" json:"createdAt"`
	UpdatedAt       time.Time         `gorm:"not null" json:"updatedAt"`
}

func (CatalogEntry) TableName() string { return "catalog_entries" }

// KeywordEntry is one weighted retrieval keyword of a catalog entry.
type KeywordEntry struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	CatalogID uuid.UUID `gorm:"type:uuid;not null;index;column:catalog_id" json:"catalogId"`
	Keyword   string    `gorm:"not null;index;column:keyword" json:"keyword"`
	Weight    int       `gorm:"not null;column:weight" json:"weight"`
}

func (KeywordEntry) TableName() string { return "catalog_keywords" }

// ProductOffer is a vendor's (or the marketplace's own) sellable listing of a
// catalog entry. A nil VendorID marks an admin-owned offer.
type ProductOffer struct {
	ID                uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	CatalogID         uuid.UUID         `gorm:"type:uuid;not null;index;column:catalog_id" json:"catalogId"`
	VendorID          *uuid.UUID        `gorm:"type:uuid;index;column:vendor_id" json:"vendorId"`
	Price             decimal.Decimal   `gorm:"type:decimal(12,2);not null;column:price" json:"price"`
	ComparePrice      *decimal.Decimal  `gorm:"type:decimal(12,2);column:compare_price" json:"comparePrice"`
	Condition         string            `gorm:"not null;column:condition" json:"condition"`
	Color             *string           `gorm:"column:color" json:"color"`
	Size              *string           `gorm:"column:size" json:"size"`
	Storage           *string           `gorm:"column:storage" json:"storage"`
	OtherVariants     datatypes.JSONMap `gorm:"column:other_variants" json:"otherVariants"`
	SKU               *string           `gorm:"column:sku" json:"sku"`
	InventoryQuantity int               `gorm:"not null;column:inventory_quantity" json:"inventoryQuantity"`
	TrackInventory    bool              `gorm:"not null;column:track_inventory" json:"trackInventory"`
	Title             *string           `gorm:"column:title" json:"title"`
	Description       *string           `gorm:"column:description" json:"description"`
	Images            datatypes.JSON    `gorm:"column:images" json:"images"`
	IsActive          bool              `gorm:"not null;index;column:is_active" json:"isActive"`
	IsFeatured        bool              `gorm:"not null;column:is_featured" json:"isFeatured"`
	CreatedAt         time.Time         `gorm:"not null" json:"createdAt"`
	UpdatedAt         time.Time         `gorm:"not null" json:"updatedAt"`

	Catalog *CatalogEntry `gorm:"-" json:"catalog,omitempty"`
}

func (ProductOffer) TableName() string { return "product_offers" }

// Feedback sources.
const (
	FeedbackSourceExplicit = "explicit"
	FeedbackSourceAutoLink = "auto_link"
)

// MatchFeedback records one human (or implicit) matching decision. Rows are
// append-only.
type MatchFeedback struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	InputText          string     `gorm:"not null;column:input_text" json:"inputText"`
	SuggestedCatalogID *uuid.UUID `gorm:"type:uuid;column:suggested_catalog_id" json:"suggestedCatalogId"`
	UserChoice         bool       `gorm:"not null;column:user_choice" json:"userChoice"`
	ActualCatalogID    *uuid.UUID `gorm:"type:uuid;column:actual_catalog_id" json:"actualCatalogId"`
	ConfidenceScore    *float64   `gorm:"column:confidence_score" json:"confidenceScore"`
	UserID             uuid.UUID  `gorm:"type:uuid;not null;index;column:user_id" json:"userId"`
	CategoryID         *uuid.UUID `gorm:"type:uuid;column:category_id" json:"categoryId"`
	Source             string     `gorm:"not null;column:source" json:"source"`
	CreatedAt          time.Time  `gorm:"not null;index" json:"createdAt"`
}

func (MatchFeedback) TableName() string { return "match_feedback" }

// Category is owned by the category CRUD layer; the matcher only reads it.
type Category struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name string    `gorm:"not null;column:name" json:"name"`
	Slug string    `gorm:"column:slug" json:"slug"`
}

func (Category) TableName() string { return "categories" }

// Vendor statuses.
const (
	VendorStatusPending   = "pending"
	VendorStatusApproved  = "approved"
	VendorStatusSuspended = "suspended"
)

type Vendor struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex;column:user_id" json:"userId"`
	BusinessName string    `gorm:"not null;column:business_name" json:"businessName"`
	Status       string    `gorm:"not null;column:status" json:"status"`
	CreatedAt    time.Time `gorm:"not null" json:"createdAt"`
}

func (Vendor) TableName() string { return "vendors" }

// Profile carries the role column consulted for authorization.
type Profile struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey;column:user_id" json:"userId"`
	Role      Role      `gorm:"not null;column:role" json:"role"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

func (Profile) TableName() string { return "profiles" }

// Brand is one entry of the brand reference set.
type Brand struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"not null;uniqueIndex;column:name" json:"name"`
}

func (Brand) TableName() string { return "brands" }

// CatalogDetail is a catalog entry with its keyword index and offer summary.
type CatalogDetail struct {
	Entry        CatalogEntry   `json:"entry"`
	CategoryName string         `json:"categoryName"`
	Keywords     []KeywordEntry `json:"keywords"`
	BestOffer    *ProductOffer  `json:"bestOffer"`
	OfferCount   int            `json:"offerCount"`
}
