package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/HossamJa/devops-capstone-project/internal/repository"
	"github.com/HossamJa/devops-capstone-project/shared/apperror"
	"github.com/HossamJa/devops-capstone-project/shared/cqrs"
	"github.com/HossamJa/devops-capstone-project/shared/models"
)

type AccountFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Account, error)
}

type AccountQueryService struct {
	finder AccountFinder
}

func NewAccountQueryService(finder AccountFinder) *AccountQueryService {
	return &AccountQueryService{finder: finder}
}

// GetAccount returns a NotFound error when no account has the id.
func (s *AccountQueryService) GetAccount(ctx context.Context, q cqrs.GetAccountQuery) (*models.Account, error) {
	account, err := s.finder.FindByID(ctx, q.ID)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return nil, apperror.NotFound(fmt.Sprintf("Account with id '%d' was not found.", q.ID))
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}
