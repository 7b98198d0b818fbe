package domain

// Snapshot is a complete copy of both collections at one instant / Copie complète des deux collections à un instant donné
//
// The sync engine always moves snapshots around whole: a push sends the full
// local state, a pull replaces it with the full remote state. Tombstoned
// records stay in the snapshot so deletions merge like any other edit.
type Snapshot struct {
	Companies []Company `json:"companies"`
	Works     []Work    `json:"works"`
}

// Clone returns a deep copy / Retourne une copie profonde
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Companies: make([]Company, len(s.Companies)),
		Works:     make([]Work, len(s.Works)),
	}
	copy(out.Companies, s.Companies)
	copy(out.Works, s.Works)
	return out
}

// Normalize replaces nil collections with empty ones / Remplace les collections nil par des collections vides
func (s Snapshot) Normalize() Snapshot {
	if s.Companies == nil {
		s.Companies = []Company{}
	}
	if s.Works == nil {
		s.Works = []Work{}
	}
	return s
}

// FindCompany resolves a company by id, tombstoned or not / Résout une entreprise par id, supprimée ou non
func (s Snapshot) FindCompany(id string) (Company, bool) {
	for _, c := range s.Companies {
		if c.ID == id {
			return c, true
		}
	}
	return Company{}, false
}

// FindWork resolves a work by id, tombstoned or not / Résout un travail par id, supprimé ou non
func (s Snapshot) FindWork(id string) (Work, bool) {
	for _, w := range s.Works {
		if w.ID == id {
			return w, true
		}
	}
	return Work{}, false
}

// ActiveCompanies returns companies without a tombstone / Retourne les entreprises sans pierre tombale
func (s Snapshot) ActiveCompanies() []Company {
	out := make([]Company, 0, len(s.Companies))
	for _, c := range s.Companies {
		if !c.IsDeleted {
			out = append(out, c)
		}
	}
	return out
}

// ActiveWorks returns works without a tombstone / Retourne les travaux sans pierre tombale
func (s Snapshot) ActiveWorks() []Work {
	out := make([]Work, 0, len(s.Works))
	for _, w := range s.Works {
		if !w.IsDeleted {
			out = append(out, w)
		}
	}
	return out
}

// WorksForCompany returns active works billed to one company / Retourne les travaux actifs facturés à une entreprise
func (s Snapshot) WorksForCompany(companyID string) []Work {
	out := make([]Work, 0)
	for _, w := range s.Works {
		if w.CompanyID == companyID && !w.IsDeleted {
			out = append(out, w)
		}
	}
	return out
}
