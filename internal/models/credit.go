package models

import "time"

// CreditAccount tracks a recruiter's unlock credit balance. credits_total is
// replenished by the external billing service; this service only decrements
// credits_remaining and maintains period usage.
type CreditAccount struct {
	OwnerID           string    `db:"owner_id" json:"owner_id"`
	CreditsTotal      int       `db:"credits_total" json:"credits_total"`
	CreditsRemaining  int       `db:"credits_remaining" json:"credits_remaining"`
	CreditsUsedPeriod int       `db:"credits_used_period" json:"credits_used_this_period"`
	PeriodStart       time.Time `db:"period_start" json:"period_start"`
	PeriodEnd         time.Time `db:"period_end" json:"period_end"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}
