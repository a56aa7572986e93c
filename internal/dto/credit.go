package dto

// RolloverResponse reports how many accounts had their period usage reset.
type RolloverResponse struct {
	AccountsRolled int `json:"accountsRolled"`
}
