package domain

import "time"

// Project owns the support team that may work its tickets. SupportStaffIDs
// is ordered: the first entry is the project manager.
type Project struct {
	ID              string
	Name            string
	Description     string
	SupportStaffIDs []string
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ManagerID returns the PM, the first member of the support staff list.
func (p *Project) ManagerID() (string, bool) {
	if len(p.SupportStaffIDs) == 0 {
		return "", false
	}
	return p.SupportStaffIDs[0], true
}

// HasSupportStaff reports whether the given user works this project.
func (p *Project) HasSupportStaff(userID string) bool {
	for _, id := range p.SupportStaffIDs {
		if id == userID {
			return true
		}
	}
	return false
}
