package plan

import (
	"errors"
	"fmt"
)

// Tier represents subscription plan tiers
type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

// TierFor maps the stored Pro flag onto a tier
func TierFor(isPro bool) Tier {
	if isPro {
		return TierPro
	}
	return TierFree
}

// FreeInvoiceLimit is the number of invoices a free account may hold
const FreeInvoiceLimit = 3

// UpgradeMessage is shown when a free account hits a Pro-only feature
const UpgradeMessage = "Upgrade to Pro for unlimited invoices"

// LimitError reports that a free-tier limit blocks an action
type LimitError struct {
	Resource string
	Current  int64
	Limit    int64
}

func (e *LimitError) Error() string {
	if e.Limit == 0 {
		return fmt.Sprintf("%s requires a Pro plan", e.Resource)
	}
	return fmt.Sprintf("free plan limit reached for %s (%d of %d)", e.Resource, e.Current, e.Limit)
}

// IsLimitExceeded checks if an error is a LimitError
func IsLimitExceeded(err error) bool {
	var l *LimitError
	return errors.As(err, &l)
}

// CanCreateInvoice reports whether an account holding existingCount invoices
// may create another one.
func CanCreateInvoice(isPro bool, existingCount int) bool {
	return isPro || existingCount < FreeInvoiceLimit
}

// CanExportCSV reports whether the account may download CSV reports
func CanExportCSV(isPro bool) bool {
	return isPro
}

// CanUploadLogo reports whether the account may attach a logo to its documents
func CanUploadLogo(isPro bool) bool {
	return isPro
}

// CheckInvoiceQuota returns a LimitError when CanCreateInvoice is false
func CheckInvoiceQuota(isPro bool, existingCount int) error {
	if CanCreateInvoice(isPro, existingCount) {
		return nil
	}
	return &LimitError{Resource: "invoices", Current: int64(existingCount), Limit: FreeInvoiceLimit}
}

// CheckCSVExport returns a LimitError when the account may not export CSV
func CheckCSVExport(isPro bool) error {
	if CanExportCSV(isPro) {
		return nil
	}
	return &LimitError{Resource: "csv export"}
}

// CheckLogoUpload returns a LimitError when the account may not upload a logo
func CheckLogoUpload(isPro bool) error {
	if CanUploadLogo(isPro) {
		return nil
	}
	return &LimitError{Resource: "logo upload"}
}
