package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vendora/backend/internal/domain"
	"github.com/vendora/backend/internal/platform/logger"
)

// IdentityResolver turns a verified user id into a domain.Identity using the
// profile role column and the vendor table.
type IdentityResolver struct {
	profiles domain.ProfileRepository
	vendors  domain.VendorRepository
	log      *logger.Logger
}

func NewIdentityResolver(profiles domain.ProfileRepository, vendors domain.VendorRepository, log *logger.Logger) *IdentityResolver {
	return &IdentityResolver{
		profiles: profiles,
		vendors:  vendors,
		log:      log.With("service", "IdentityResolver"),
	}
}

// Resolve treats a user without a profile row as a customer.
func (r *IdentityResolver) Resolve(ctx context.Context, userID uuid.UUID) (domain.Identity, error) {
	id := domain.Identity{UserID: userID, Role: domain.RoleCustomer}

	profile, err := r.profiles.GetByUserID(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return id, nil
	case err != nil:
		return id, fmt.Errorf("load profile: %w", err)
	}
	id.Role = profile.Role

	if id.Role != domain.RoleVendor {
		return id, nil
	}

	vendor, err := r.vendors.GetByUserID(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		r.log.Debug("vendor role without vendor record", "user_id", userID)
		return id, nil
	case err != nil:
		return id, fmt.Errorf("load vendor: %w", err)
	}
	vendorID := vendor.ID
	id.VendorID = &vendorID
	id.VendorApproved = vendor.Status == domain.VendorStatusApproved
	return id, nil
}

type identityKey struct{}

// WithIdentity stores the caller on ctx.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the caller stored on ctx, if any.
func IdentityFrom(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(domain.Identity)
	return id, ok
}
