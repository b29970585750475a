package domain

import "github.com/google/uuid"

// Account is the profile slice the core needs from the identity provider.
type Account struct {
	ID      uuid.UUID
	Email   string
	Company string
}

// DisplayName prefers the company name, falling back to the email.
func (a Account) DisplayName() string {
	if a.Company != "" {
		return a.Company
	}
	return a.Email
}
