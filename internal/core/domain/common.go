package domain

import "time"

// AuditFields holds standard audit information for domain entities.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"` // Actor identity
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"` // Actor identity
}

// Touch records a modification by the given actor at the given time.
func (a *AuditFields) Touch(actor string, now time.Time) {
	a.LastUpdatedAt = now
	a.LastUpdatedBy = actor
}

// QuantityUnit identifies the unit a cargo quantity is expressed in.
type QuantityUnit string

const (
	UnitMT  QuantityUnit = "MT"  // metric tons
	UnitBBL QuantityUnit = "BBL" // barrels
)
