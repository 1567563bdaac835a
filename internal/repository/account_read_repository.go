package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/HossamJa/devops-capstone-project/shared/models"
	sharedredis "github.com/HossamJa/devops-capstone-project/shared/redis"
	goredis "github.com/redis/go-redis/v9"
)

const accountViewKeyPrefix = "account:view:"

// AccountViewTTL bounds how long a cached account can outlive a concurrent
// delete that raced a cold read.
const AccountViewTTL = 10 * time.Minute

// AccountReadRepository serves reads from the Redis view cache when it can and
// falls back to PostgreSQL, warming the cache on every cold read. A nil Redis
// client disables the cache.
type AccountReadRepository struct {
	store *AccountWriteRepository
	cache *sharedredis.ViewCache[models.Account]
}

func NewAccountReadRepository(store *AccountWriteRepository, redisClient *goredis.Client) *AccountReadRepository {
	return &AccountReadRepository{
		store: store,
		cache: sharedredis.NewViewCache[models.Account](redisClient, AccountViewTTL),
	}
}

func accountViewKey(id int64) string {
	return accountViewKeyPrefix + strconv.FormatInt(id, 10)
}

// FindByID returns ErrAccountNotFound when the id is unknown.
func (r *AccountReadRepository) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	if account, ok := r.cache.Get(ctx, accountViewKey(id)); ok {
		return account, nil
	}

	account, err := r.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.CacheAccount(ctx, account)
	return account, nil
}

// CacheAccount stores or refreshes the cached copy after a write.
func (r *AccountReadRepository) CacheAccount(ctx context.Context, account *models.Account) {
	r.cache.Set(ctx, accountViewKey(account.ID), account)
}

func (r *AccountReadRepository) InvalidateAccount(ctx context.Context, id int64) {
	r.cache.Delete(ctx, accountViewKey(id))
}
