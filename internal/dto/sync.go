package dto

import (
	"errors"

	"github.com/ulasbyzdvr/is-takip/internal/domain"
)

// ActionUpload is the action value for push requests / Valeur d'action pour les requêtes de push
const ActionUpload = "upload"

// ActionDownload is the action value for pull requests / Valeur d'action pour les requêtes de pull
const ActionDownload = "download"

var (
	ErrInvalidAction = errors.New("invalid action")
	ErrMissingData   = errors.New("companies and works are required")
)

// APIResponse is the envelope every /api reply uses / Enveloppe utilisée par chaque réponse /api
type APIResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Data    *SnapshotData `json:"data,omitempty"`
}

// SnapshotData is the wire shape of a full snapshot / Forme réseau d'un instantané complet
type SnapshotData struct {
	Companies []domain.Company `json:"companies"`
	Works     []domain.Work    `json:"works"`
}

// NewSnapshotData converts a snapshot for the wire, guaranteeing non-nil
// collections so clients always see arrays.
func NewSnapshotData(snap domain.Snapshot) *SnapshotData {
	snap = snap.Normalize()
	return &SnapshotData{Companies: snap.Companies, Works: snap.Works}
}

// Snapshot converts wire data back to a domain snapshot / Convertit les données réseau en instantané du domaine
func (d *SnapshotData) Snapshot() domain.Snapshot {
	return domain.Snapshot{Companies: d.Companies, Works: d.Works}.Normalize()
}

// UploadRequest is the push request body. Companies and Works are pointers so
// a request that omits a collection entirely can be rejected, while an empty
// collection remains valid.
type UploadRequest struct {
	Action    string            `json:"action"`
	APIKey    string            `json:"api_key"`
	Companies *[]domain.Company `json:"companies"`
	Works     *[]domain.Work    `json:"works"`
}

// NewUploadRequest builds a push request from a snapshot / Construit une requête de push à partir d'un instantané
func NewUploadRequest(apiKey string, snap domain.Snapshot) UploadRequest {
	snap = snap.Normalize()
	return UploadRequest{
		Action:    ActionUpload,
		APIKey:    apiKey,
		Companies: &snap.Companies,
		Works:     &snap.Works,
	}
}

// Validate rejects malformed push requests / Rejette les requêtes de push malformées
func (r *UploadRequest) Validate() error {
	if r.Action != ActionUpload {
		return ErrInvalidAction
	}
	if r.Companies == nil || r.Works == nil {
		return ErrMissingData
	}
	return nil
}

// Snapshot converts the request payload to a domain snapshot / Convertit la charge utile en instantané du domaine
func (r *UploadRequest) Snapshot() domain.Snapshot {
	snap := domain.Snapshot{}
	if r.Companies != nil {
		snap.Companies = *r.Companies
	}
	if r.Works != nil {
		snap.Works = *r.Works
	}
	return snap.Normalize()
}
