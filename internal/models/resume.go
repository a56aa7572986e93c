package models

import (
	"time"

	"github.com/lib/pq"
)

// Resume is the lightweight projection of a candidate profile maintained by
// the external profile store. Private contact fields live on the same row but
// are only surfaced through an unlock grant snapshot.
type Resume struct {
	ID              string         `db:"id" json:"id"`
	FullName        string         `db:"full_name" json:"-"`
	DisplayName     string         `db:"display_name" json:"display_name"`
	Title           string         `db:"title" json:"title"`
	Country         string         `db:"country" json:"country"`
	City            string         `db:"city" json:"city"`
	Skills          pq.StringArray `db:"skills" json:"skills"`
	ExperienceYears int            `db:"experience_years" json:"experience_years"`
	Email           string         `db:"email" json:"-"`
	Phone           string         `db:"phone" json:"-"`
	ResumeURL       string         `db:"resume_url" json:"-"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// Revealed extracts the private fields snapshotted onto an unlock grant.
func (r *Resume) Revealed() RevealedData {
	return RevealedData{
		FullName:  r.FullName,
		Email:     r.Email,
		Phone:     r.Phone,
		ResumeURL: r.ResumeURL,
	}
}
