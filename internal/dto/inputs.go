package dto

import (
	"errors"
	"strings"
	"time"

	"github.com/ulasbyzdvr/is-takip/internal/domain"
)

// Validation errors for mutation inputs. Invalid input is rejected before a
// mutation is ever constructed and never reaches the sync engine.
var (
	ErrEmptyName        = errors.New("company name must not be empty")
	ErrEmptyDescription = errors.New("work description must not be empty")
	ErrMissingCompanyID = errors.New("work must reference a company")
	ErrNonPositive      = errors.New("work amount must be positive")
	ErrInvalidCurrency  = errors.New("unsupported currency")
	ErrMissingDate      = errors.New("work date is required")
)

// CompanyInput carries the user-editable fields of a company / Porte les champs modifiables d'une entreprise
type CompanyInput struct {
	Name string `json:"name"`
}

// Validate checks company input invariants / Vérifie les invariants de l'entrée entreprise
func (in CompanyInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// WorkInput carries the user-editable fields of a work / Porte les champs modifiables d'un travail
type WorkInput struct {
	CompanyID   string          `json:"companyId"`
	Amount      float64         `json:"amount"`
	Currency    domain.Currency `json:"currency"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	ImageURI    string          `json:"imageUri,omitempty"`
	IsPaid      bool            `json:"isPaid"`
}

// Validate checks work input invariants / Vérifie les invariants de l'entrée travail
func (in WorkInput) Validate() error {
	if strings.TrimSpace(in.CompanyID) == "" {
		return ErrMissingCompanyID
	}
	if in.Amount <= 0 {
		return ErrNonPositive
	}
	if !in.Currency.IsValid() {
		return ErrInvalidCurrency
	}
	if in.Date.IsZero() {
		return ErrMissingDate
	}
	if strings.TrimSpace(in.Description) == "" {
		return ErrEmptyDescription
	}
	return nil
}
