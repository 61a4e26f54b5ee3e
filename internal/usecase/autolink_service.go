package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/vendora/backend/internal/domain"
	"github.com/vendora/backend/internal/platform/logger"
	"github.com/vendora/backend/internal/platform/metrics"
)

// Persistence steps named in errors
const (
	StepCatalog  = "catalog"
	StepKeywords = "keywords"
	StepOffer    = "offer"
	StepCommit   = "commit"
)

// Auto-link triggers, for logs and metrics
const (
	triggerExplicit = "explicit"
	triggerForced   = "forced"
	triggerMatched  = "matched"
)

const defaultCondition = "new"

// AutoLinkConfig holds configuration for the auto-link engine
type AutoLinkConfig struct {
	Threshold float64
	// Transactional wraps catalog, keyword and offer writes in one
	// transaction. Otherwise they run in sequence and a failure after the
	// catalog insert is reported as a partial failure.
	Transactional bool
}

// AutoLinkService decides whether a new product links to an existing catalog
// entry or creates one, and persists the resulting offer.
type AutoLinkService struct {
	tx          domain.Transactor
	catalog     domain.CatalogRepository
	categories  domain.CategoryRepository
	offers      domain.OfferRepository
	indexer     *KeywordIndexer
	brands      *BrandExtractor
	matcher     SimilarityFinder
	feedback    *FeedbackService
	invalidator domain.CandidateInvalidator
	config      AutoLinkConfig
	log         *logger.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

// AutoLinkDeps groups the collaborators of the auto-link engine
type AutoLinkDeps struct {
	Transactor  domain.Transactor
	Catalog     domain.CatalogRepository
	Categories  domain.CategoryRepository
	Offers      domain.OfferRepository
	Indexer     *KeywordIndexer
	Brands      *BrandExtractor
	Matcher     SimilarityFinder
	Feedback    *FeedbackService
	Invalidator domain.CandidateInvalidator // optional
	Metrics     *metrics.Metrics            // optional
}

// NewAutoLinkService creates the auto-link engine
func NewAutoLinkService(deps AutoLinkDeps, log *logger.Logger, config AutoLinkConfig) *AutoLinkService {
	if config.Threshold <= 0 {
		config.Threshold = 0.95
	}
	return &AutoLinkService{
		tx:          deps.Transactor,
		catalog:     deps.Catalog,
		categories:  deps.Categories,
		offers:      deps.Offers,
		indexer:     deps.Indexer,
		brands:      deps.Brands,
		matcher:     deps.Matcher,
		feedback:    deps.Feedback,
		invalidator: deps.Invalidator,
		config:      config,
		log:         log.With("component", "autolink"),
		metrics:     deps.Metrics,
		now:         time.Now,
	}
}

// validatedRequest is an AutoLinkRequest with parsed ids
type validatedRequest struct {
	name       string
	categoryID uuid.UUID
	catalogID  *uuid.UUID
	force      bool
	data       domain.ProductData
}

// AutoLink resolves req to a catalog entry and attaches one new offer to it.
//
//	catalogId given, not forced -> link to it, no matching
//	forceNewCatalog             -> create
//	otherwise                   -> link if the best match scores >= threshold, else create
func (s *AutoLinkService) AutoLink(ctx context.Context, caller domain.Identity, req domain.AutoLinkRequest) (*domain.AutoLinkResult, error) {
	if !caller.CanPublish() {
		return nil, domain.ErrForbidden
	}

	vr, err := validateAutoLink(req)
	if err != nil {
		return nil, err
	}

	switch {
	case vr.catalogID != nil && !vr.force:
		return s.link(ctx, caller, vr, *vr.catalogID, nil, triggerExplicit)
	case vr.force:
		return s.create(ctx, caller, vr, triggerForced)
	}

	matches, err := s.matcher.FindSimilar(ctx, vr.name, &vr.categoryID, s.config.Threshold)
	if err != nil {
		return nil, fmt.Errorf("match %q: %w", vr.name, err)
	}
	if len(matches) == 0 {
		return s.create(ctx, caller, vr, triggerMatched)
	}

	top := matches[0]
	s.metrics.ObserveTopConfidence("autolink", top.Confidence)
	confidence := top.Confidence
	return s.link(ctx, caller, vr, top.CatalogID, &confidence, triggerMatched)
}

func validateAutoLink(req domain.AutoLinkRequest) (*validatedRequest, error) {
	name := strings.TrimSpace(req.ProductName)
	if name == "" {
		return nil, domain.NewValidationError("productName", "is required")
	}
	if strings.TrimSpace(req.CategoryID) == "" {
		return nil, domain.NewValidationError("categoryId", "is required")
	}
	categoryID, err := uuid.Parse(strings.TrimSpace(req.CategoryID))
	if err != nil {
		return nil, domain.NewValidationError("categoryId", "must be a UUID")
	}

	vr := &validatedRequest{
		name:       name,
		categoryID: categoryID,
		force:      req.ForceNewCatalog,
		data:       req.ProductData,
	}

	if id := strings.TrimSpace(req.CatalogID); id != "" {
		catalogID, err := uuid.Parse(id)
		if err != nil {
			return nil, domain.NewValidationError("catalogId", "must be a UUID")
		}
		vr.catalogID = &catalogID
	}

	if vr.data.Price.IsNegative() {
		return nil, domain.NewValidationError("productData.price", "must not be negative")
	}
	if vr.data.ComparePrice != nil && vr.data.ComparePrice.IsNegative() {
		return nil, domain.NewValidationError("productData.comparePrice", "must not be negative")
	}
	if vr.data.InventoryQuantity != nil && *vr.data.InventoryQuantity < 0 {
		return nil, domain.NewValidationError("productData.inventoryQuantity", "must not be negative")
	}
	return vr, nil
}

// link attaches a new offer to an existing entry. confidence is set only for
// automatic links, which also record implicit feedback.
func (s *AutoLinkService) link(
	ctx context.Context,
	caller domain.Identity,
	vr *validatedRequest,
	catalogID uuid.UUID,
	confidence *float64,
	trigger string,
) (*domain.AutoLinkResult, error) {
	entry, err := s.catalog.GetByID(ctx, catalogID)
	if err != nil {
		return nil, err
	}

	offer, err := s.buildOffer(caller, entry.ID, vr.data)
	if err != nil {
		return nil, err
	}
	if err := s.offers.Create(ctx, offer); err != nil {
		return nil, &domain.PersistenceError{Step: StepOffer, Err: err}
	}
	offer.Catalog = entry

	s.log.Info("offer linked",
		"trigger", trigger,
		"catalogId", entry.ID,
		"offerId", offer.ID,
		"userId", caller.UserID,
		"confidence", confidence,
	)
	s.metrics.ObserveAutoLink(domain.ActionLinked, trigger)

	if confidence != nil {
		suggested := entry.ID
		category := vr.categoryID
		s.feedback.RecordBestEffort(ctx, caller.UserID, domain.FeedbackInput{
			InputText:          vr.name,
			SuggestedCatalogID: &suggested,
			UserChoice:         true,
			ActualCatalogID:    &suggested,
			ConfidenceScore:    confidence,
			CategoryID:         &category,
		}, domain.FeedbackSourceAutoLink)
	}

	return &domain.AutoLinkResult{
		Action:     domain.ActionLinked,
		CatalogID:  entry.ID,
		OfferID:    offer.ID,
		Product:    offer,
		Confidence: confidence,
	}, nil
}

// create persists a new entry, its keywords and the first offer
func (s *AutoLinkService) create(
	ctx context.Context,
	caller domain.Identity,
	vr *validatedRequest,
	trigger string,
) (*domain.AutoLinkResult, error) {
	if _, err := s.categories.GetByID(ctx, vr.categoryID); err != nil {
		return nil, err
	}

	var brand *string
	if b, ok, err := s.brands.Extract(ctx, vr.name); err != nil {
		return nil, err
	} else if ok {
		brand = &b
	}

	entry, err := s.buildEntry(caller, vr, brand)
	if err != nil {
		return nil, err
	}
	offer, err := s.buildOffer(caller, entry.ID, vr.data)
	if err != nil {
		return nil, err
	}

	if s.config.Transactional {
		err = s.createInTx(ctx, entry, offer)
	} else {
		err = s.createSequential(ctx, entry, offer)
	}

	var partial *domain.PartialFailureError
	if err == nil || errors.As(err, &partial) {
		// the catalog entry exists either way
		s.invalidateCandidates(ctx)
	}
	if err != nil {
		s.log.Error("catalog creation failed", "trigger", trigger, "name", vr.name, "error", err)
		return nil, err
	}
	offer.Catalog = entry

	s.log.Info("catalog entry created",
		"trigger", trigger,
		"catalogId", entry.ID,
		"offerId", offer.ID,
		"brand", brand,
		"slug", entry.Slug,
		"userId", caller.UserID,
	)
	s.metrics.ObserveAutoLink(domain.ActionCreated, trigger)

	return &domain.AutoLinkResult{
		Action:    domain.ActionCreated,
		CatalogID: entry.ID,
		OfferID:   offer.ID,
		Product:   offer,
	}, nil
}

func (s *AutoLinkService) createInTx(ctx context.Context, entry *domain.CatalogEntry, offer *domain.ProductOffer) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.catalog.Create(ctx, entry); err != nil {
			return &domain.PersistenceError{Step: StepCatalog, Err: err}
		}
		if _, err := s.indexer.Index(ctx, entry.ID, entry.Name, entry.Brand); err != nil {
			return &domain.PersistenceError{Step: StepKeywords, Err: err}
		}
		if err := s.offers.Create(ctx, offer); err != nil {
			return &domain.PersistenceError{Step: StepOffer, Err: err}
		}
		return nil
	})
	if err == nil {
		return nil
	}
	var pe *domain.PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &domain.PersistenceError{Step: StepCommit, Err: err}
}

func (s *AutoLinkService) createSequential(ctx context.Context, entry *domain.CatalogEntry, offer *domain.ProductOffer) error {
	if err := s.catalog.Create(ctx, entry); err != nil {
		return &domain.PersistenceError{Step: StepCatalog, Err: err}
	}
	if _, err := s.indexer.Index(ctx, entry.ID, entry.Name, entry.Brand); err != nil {
		return &domain.PartialFailureError{Step: StepKeywords, CatalogID: entry.ID, Err: err}
	}
	if err := s.offers.Create(ctx, offer); err != nil {
		return &domain.PartialFailureError{Step: StepOffer, CatalogID: entry.ID, Err: err}
	}
	return nil
}

func (s *AutoLinkService) invalidateCandidates(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx); err != nil {
		s.log.Warn("candidate cache invalidation failed", "error", err)
	}
}

func (s *AutoLinkService) buildEntry(caller domain.Identity, vr *validatedRequest, brand *string) (*domain.CatalogEntry, error) {
	images, err := jsonList(vr.data.Images)
	if err != nil {
		return nil, domain.NewValidationError("productData.images", err.Error())
	}
	description := ""
	if vr.data.Description != nil {
		description = *vr.data.Description
	}
	now := s.now().UTC()
	return &domain.CatalogEntry{
		ID:              uuid.New(),
		Name:            vr.name,
		Brand:           brand,
		Model:           vr.data.Model,
		CategoryID:      vr.categoryID,
		BaseDescription: description,
		Specifications:  vr.data.Specifications,
		Images:          images,
		GTIN:            vr.data.GTIN,
		MPN:             vr.data.MPN,
		Slug:            Slugify(vr.name),
		CreatedBy:       caller.UserID,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func (s *AutoLinkService) buildOffer(caller domain.Identity, catalogID uuid.UUID, data domain.ProductData) (*domain.ProductOffer, error) {
	images, err := jsonList(data.Images)
	if err != nil {
		return nil, domain.NewValidationError("productData.images", err.Error())
	}

	condition := strings.TrimSpace(data.Condition)
	if condition == "" {
		condition = defaultCondition
	}
	quantity := 0
	if data.InventoryQuantity != nil {
		quantity = *data.InventoryQuantity
	}
	track := true
	if data.TrackInventory != nil {
		track = *data.TrackInventory
	}

	now := s.now().UTC()
	return &domain.ProductOffer{
		ID:                uuid.New(),
		CatalogID:         catalogID,
		VendorID:          caller.OfferVendorID(),
		Price:             data.Price,
		ComparePrice:      data.ComparePrice,
		Condition:         condition,
		Color:             data.Color,
		Size:              data.Size,
		Storage:           data.Storage,
		OtherVariants:     data.OtherVariants,
		SKU:               data.SKU,
		InventoryQuantity: quantity,
		TrackInventory:    track,
		Title:             data.Title,
		Description:       data.Description,
		Images:            images,
		IsActive:          true,
		IsFeatured:        data.IsFeatured,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

func jsonList(items []string) (datatypes.JSON, error) {
	if items == nil {
		items = []string{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
