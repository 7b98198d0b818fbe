package domain

import "time"

// Currency enumerates the billing currencies / Énumère les devises de facturation
type Currency string

const (
	CurrencyTRY Currency = "TRY" // Turkish lira / Livre turque
	CurrencyUSD Currency = "USD" // US dollar / Dollar américain
	CurrencyEUR Currency = "EUR" // Euro
)

// IsValid checks if currency is supported / Vérifie si la devise est supportée
func (c Currency) IsValid() bool {
	return c == CurrencyTRY || c == CurrencyUSD || c == CurrencyEUR
}

// Work represents a billable piece of work done for a company / Représente un travail facturable effectué pour une entreprise
type Work struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"companyId"` // No referential integrity; cascade is application logic / Pas d'intégrité référentielle
	Amount      float64   `json:"amount"`    // Always positive / Toujours positif
	Currency    Currency  `json:"currency"`
	Date        time.Time `json:"date"` // When the work occurred, independent of createdAt / Date du travail
	Description string    `json:"description"`
	ImageURI    string    `json:"imageUri,omitempty"` // Opaque receipt reference, not interpreted / Référence opaque, non interprétée
	IsPaid      bool      `json:"isPaid"`
	IsDeleted   bool      `json:"isDeleted"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RecordID returns the merge identity / Retourne l'identité de fusion
func (w Work) RecordID() string {
	return w.ID
}

// ModifiedAt returns the last-write timestamp used by the merge resolver.
// Records persisted before updatedAt existed fall back to their creation time.
func (w Work) ModifiedAt() time.Time {
	if w.UpdatedAt.IsZero() {
		return w.CreatedAt
	}
	return w.UpdatedAt
}
