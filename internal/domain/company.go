package domain

import "time"

// Company represents a client company work is billed to / Représente une entreprise cliente facturée
type Company struct {
	ID        string    `json:"id"`        // Client-generated stable identifier / Identifiant stable généré par le client
	Name      string    `json:"name"`      // Display name, never empty / Nom affiché, jamais vide
	CreatedAt time.Time `json:"createdAt"` // Immutable after creation / Immuable après création
	UpdatedAt time.Time `json:"updatedAt"` // Bumped on every mutation / Incrémenté à chaque mutation
	IsDeleted bool      `json:"isDeleted"` // Soft-delete tombstone / Pierre tombale de suppression logique
}

// RecordID returns the merge identity / Retourne l'identité de fusion
func (c Company) RecordID() string {
	return c.ID
}

// ModifiedAt returns the last-write timestamp used by the merge resolver.
// Records persisted before updatedAt existed fall back to their creation time.
func (c Company) ModifiedAt() time.Time {
	if c.UpdatedAt.IsZero() {
		return c.CreatedAt
	}
	return c.UpdatedAt
}
