package app

import (
	"gorm.io/gorm"

	"github.com/vendora/backend/internal/infrastructure/store"
	"github.com/vendora/backend/internal/platform/logger"
)

type Repos struct {
	Catalog    *store.CatalogRepo
	Keywords   *store.KeywordRepo
	Candidates *store.CandidateRepo
	Offers     *store.OfferRepo
	Feedback   *store.FeedbackRepo
	Brands     *store.BrandRepo
	Categories *store.CategoryRepo
	Vendors    *store.VendorRepo
	Profiles   *store.ProfileRepo
	Tx         *store.Transactor
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Catalog:    store.NewCatalogRepo(db, log),
		Keywords:   store.NewKeywordRepo(db, log),
		Candidates: store.NewCandidateRepo(db, log),
		Offers:     store.NewOfferRepo(db, log),
		Feedback:   store.NewFeedbackRepo(db, log),
		Brands:     store.NewBrandRepo(db, log),
		Categories: store.NewCategoryRepo(db, log),
		Vendors:    store.NewVendorRepo(db, log),
		Profiles:   store.NewProfileRepo(db, log),
		Tx:         store.NewTransactor(db),
	}
}
