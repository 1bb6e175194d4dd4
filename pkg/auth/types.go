package auth

import (
	"github.com/google/uuid"
	"github.com/platinummonkey/tally/pkg/accounts"
	"github.com/platinummonkey/tally/pkg/plan"
	"github.com/platinummonkey/tally/pkg/render"
)

// AccountContext is the signed-in account as loaded for one request.
// It is rebuilt from storage on every request and never cached.
type AccountContext struct {
	Account   *accounts.Account
	SessionID uuid.UUID
}

// AccountID returns the ID of the signed-in account
func (ac *AccountContext) AccountID() uuid.UUID {
	return ac.Account.ID
}

// IsPro reports the account's current Pro flag
func (ac *AccountContext) IsPro() bool {
	return ac.Account.IsPro
}

// Tier returns the account's current plan tier
func (ac *AccountContext) Tier() plan.Tier {
	return plan.TierFor(ac.Account.IsPro)
}

// Profile returns the business details printed on documents, without the logo
func (ac *AccountContext) Profile() render.BusinessProfile {
	name := ac.Account.BusinessName
	if name == "" {
		name = ac.Account.Name
	}
	return render.BusinessProfile{
		Name:    name,
		Address: ac.Account.Address,
		Phone:   ac.Account.PhoneNumber,
	}
}
