// Package identity turns the authenticated account into a mentorship.Caller.
package identity

import (
	"context"
	"fmt"

	"github.com/mentorship-hub/mentorship-engine/internal/domain/mentorship"
	"github.com/mentorship-hub/mentorship-engine/internal/domain/shared"
)

// ErrNoAccount is returned when no authenticated account is present.
var ErrNoAccount = shared.NewDomainError("identity", "Resolve", shared.ErrUnauthorized, "no authenticated account")

// Resolver looks up the profile an account owns.
type Resolver struct {
	profiles mentorship.ProfileStore
}

// NewResolver creates a Resolver.
func NewResolver(profiles mentorship.ProfileStore) *Resolver {
	return &Resolver{profiles: profiles}
}

// Resolve builds the Caller for acc. A mentor or learner account without a
// profile resolves to a Caller with an empty ProfileID, which holds no
// capabilities beyond creating its own profile.
func (r *Resolver) Resolve(ctx context.Context, acc mentorship.Account) (mentorship.Caller, error) {
	if acc.ID == "" {
		return mentorship.Caller{}, ErrNoAccount
	}
	if !acc.Role.IsValid() {
		return mentorship.Caller{}, shared.NewDomainError("identity", "Resolve", shared.ErrUnauthorized,
			fmt.Sprintf("unknown account role %q", acc.Role))
	}

	caller := mentorship.Caller{Account: acc}

	role, ok := acc.Role.ProfileRole()
	if !ok {
		return caller, nil
	}

	p, err := r.profiles.FindProfileByOwnerAccount(ctx, acc.ID, role)
	switch {
	case err == nil:
		caller.ProfileID = p.ID
	case shared.IsNotFound(err):
	default:
		return mentorship.Caller{}, fmt.Errorf("resolve caller: %w", err)
	}
	return caller, nil
}

// Current resolves the caller of the request carried by ctx.
func (r *Resolver) Current(ctx context.Context, ic mentorship.IdentityContext) (mentorship.Caller, error) {
	acc, err := ic.CurrentAccount(ctx)
	if err != nil {
		return mentorship.Caller{}, err
	}
	return r.Resolve(ctx, acc)
}

// Static is an IdentityContext that always returns the same account.
type Static mentorship.Account

// CurrentAccount implements mentorship.IdentityContext.
func (s Static) CurrentAccount(context.Context) (mentorship.Account, error) {
	if s.ID == "" {
		return mentorship.Account{}, ErrNoAccount
	}
	return mentorship.Account(s), nil
}
