package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/HossamJa/devops-capstone-project/internal/repository"
	"github.com/HossamJa/devops-capstone-project/shared/apperror"
	"github.com/HossamJa/devops-capstone-project/shared/cqrs"
	"github.com/HossamJa/devops-capstone-project/shared/events"
	"github.com/HossamJa/devops-capstone-project/shared/models"
	"github.com/rs/zerolog/log"
)

// AccountStore is the write model.
type AccountStore interface {
	Create(ctx context.Context, account *models.Account) error
	Update(ctx context.Context, account *models.Account) error
	Delete(ctx context.Context, id int64) (bool, error)
}

// AccountCache is the read model kept in step after each write.
type AccountCache interface {
	CacheAccount(ctx context.Context, account *models.Account)
	InvalidateAccount(ctx context.Context, id int64)
}

type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// AccountCommandService writes account state and keeps the read model in sync.
type AccountCommandService struct {
	store     AccountStore
	cache     AccountCache
	publisher EventPublisher
}

func NewAccountCommandService(store AccountStore, cache AccountCache, publisher EventPublisher) *AccountCommandService {
	return &AccountCommandService{
		store:     store,
		cache:     cache,
		publisher: publisher,
	}
}

func (s *AccountCommandService) CreateAccount(ctx context.Context, cmd cqrs.CreateAccountCommand) (*models.Account, error) {
	account := cmd.Account
	account.ID = 0
	if err := s.store.Create(ctx, &account); err != nil {
		return nil, err
	}
	s.cache.CacheAccount(ctx, &account)
	s.publish(ctx, events.AccountCreated, events.AccountCreatedEvent{
		ID:    account.ID,
		Name:  account.Name,
		Email: account.Email,
	})
	return &account, nil
}

// UpdateAccount overwrites the row stored under cmd.ID. A row that vanished
// after the caller's existence check is NotFound, and its cached view is
// dropped so later reads agree.
func (s *AccountCommandService) UpdateAccount(ctx context.Context, cmd cqrs.UpdateAccountCommand) (*models.Account, error) {
	account := cmd.Account
	account.ID = cmd.ID
	if err := s.store.Update(ctx, &account); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			s.cache.InvalidateAccount(ctx, cmd.ID)
			return nil, apperror.NotFound(fmt.Sprintf("Account with id '%d' was not found.", cmd.ID))
		}
		return nil, err
	}
	s.cache.CacheAccount(ctx, &account)
	s.publish(ctx, events.AccountUpdated, events.AccountUpdatedEvent{
		ID:    account.ID,
		Name:  account.Name,
		Email: account.Email,
	})
	return &account, nil
}

// DeleteAccount is idempotent.
func (s *AccountCommandService) DeleteAccount(ctx context.Context, cmd cqrs.DeleteAccountCommand) error {
	deleted, err := s.store.Delete(ctx, cmd.ID)
	if err != nil {
		return err
	}
	s.cache.InvalidateAccount(ctx, cmd.ID)
	if deleted {
		s.publish(ctx, events.AccountDeleted, events.AccountDeletedEvent{ID: cmd.ID})
	}
	return nil
}

func (s *AccountCommandService) publish(ctx context.Context, eventType string, data any) {
	if err := s.publisher.Publish(ctx, events.AccountEventsStream, eventType, data); err != nil {
		log.Warn().Err(err).Str("event", eventType).Msg("Failed to publish account event")
	}
}
