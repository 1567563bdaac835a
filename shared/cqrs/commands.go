package cqrs

import "github.com/HossamJa/devops-capstone-project/shared/models"

// CreateAccountCommand carries a deserialized account without an id.
type CreateAccountCommand struct {
	Account models.Account
}

// UpdateAccountCommand overwrites the account stored under ID. Account.ID is
// ignored.
type UpdateAccountCommand struct {
	ID      int64
	Account models.Account
}

type DeleteAccountCommand struct {
	ID int64
}
