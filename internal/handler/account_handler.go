package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/HossamJa/devops-capstone-project/shared/apperror"
	"github.com/HossamJa/devops-capstone-project/shared/cqrs"
	"github.com/HossamJa/devops-capstone-project/shared/middleware"
	"github.com/HossamJa/devops-capstone-project/shared/models"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	ServiceName    = "Account REST API Service"
	ServiceVersion = "1.0"
)

// AccountCommander defines the write-side operations used by AccountHandler.
type AccountCommander interface {
	CreateAccount(context.Context, cqrs.CreateAccountCommand) (*models.Account, error)
	UpdateAccount(context.Context, cqrs.UpdateAccountCommand) (*models.Account, error)
	DeleteAccount(context.Context, cqrs.DeleteAccountCommand) error
}

// AccountQuerier defines the read-side operations used by AccountHandler.
type AccountQuerier interface {
	GetAccount(context.Context, cqrs.GetAccountQuery) (*models.Account, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	commands AccountCommander
	queries  AccountQuerier
}

type HealthResponse struct {
	Status string `json:"status"`
}

type IndexResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func NewAccountHandler(commands AccountCommander, queries AccountQuerier) *AccountHandler {
	return &AccountHandler{commands: commands, queries: queries}
}

// result is what every endpoint returns. A nil body with no error writes the
// status alone.
type result struct {
	status int
	body   any
}

type endpoint func(c *gin.Context) (result, error)

// respond is the single place where endpoint outcomes become HTTP responses.
func respond(fn endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := fn(c)
		if err != nil {
			middleware.RespondWithAppError(c, err)
			return
		}
		if res.body == nil {
			c.Status(res.status)
			return
		}
		c.JSON(res.status, res.body)
	}
}

func (h *AccountHandler) Health(c *gin.Context) (result, error) {
	return result{http.StatusOK, HealthResponse{Status: "OK"}}, nil
}

func (h *AccountHandler) Index(c *gin.Context) (result, error) {
	return result{http.StatusOK, IndexResponse{Name: ServiceName, Version: ServiceVersion}}, nil
}

func (h *AccountHandler) CreateAccount(c *gin.Context) (result, error) {
	log.Info().Msg("Request to create an Account")
	if err := middleware.CheckContentType(c, middleware.JSONMediaType); err != nil {
		return result{}, err
	}

	data, err := decodeObject(c)
	if err != nil {
		return result{}, err
	}
	var account models.Account
	if err := account.Deserialize(data); err != nil {
		return result{}, err
	}

	created, err := h.commands.CreateAccount(c.Request.Context(), cqrs.CreateAccountCommand{Account: account})
	if err != nil {
		return result{}, err
	}

	c.Header("Location", fmt.Sprintf("/accounts/%d", created.ID))
	log.Info().Int64("account_id", created.ID).Msg("Account created")
	return result{http.StatusCreated, created.Serialize()}, nil
}

func (h *AccountHandler) GetAccount(c *gin.Context) (result, error) {
	id, err := accountID(c)
	if err != nil {
		return result{}, err
	}
	log.Info().Int64("account_id", id).Msg("Request to read an Account")

	account, err := h.queries.GetAccount(c.Request.Context(), cqrs.GetAccountQuery{ID: id})
	if err != nil {
		return result{}, err
	}
	return result{http.StatusOK, account.Serialize()}, nil
}

// UpdateAccount overwrites an existing account. The id in the path wins over
// any id in the body.
func (h *AccountHandler) UpdateAccount(c *gin.Context) (result, error) {
	if err := middleware.CheckContentType(c, middleware.JSONMediaType); err != nil {
		return result{}, err
	}
	id, err := accountID(c)
	if err != nil {
		return result{}, err
	}
	log.Info().Int64("account_id", id).Msg("Request to update an Account")

	account, err := h.queries.GetAccount(c.Request.Context(), cqrs.GetAccountQuery{ID: id})
	if err != nil {
		return result{}, err
	}

	data, err := decodeObject(c)
	if err != nil {
		return result{}, err
	}
	if err := account.Deserialize(data); err != nil {
		return result{}, err
	}

	updated, err := h.commands.UpdateAccount(c.Request.Context(), cqrs.UpdateAccountCommand{ID: id, Account: *account})
	if err != nil {
		return result{}, err
	}
	return result{http.StatusOK, updated.Serialize()}, nil
}

func (h *AccountHandler) DeleteAccount(c *gin.Context) (result, error) {
	id, err := accountID(c)
	if errors.Is(err, strconv.ErrRange) {
		// No stored account has an id past int64.
		return result{status: http.StatusNoContent}, nil
	}
	if err != nil {
		return result{}, err
	}
	log.Info().Int64("account_id", id).Msg("Request to delete an Account")

	if err := h.commands.DeleteAccount(c.Request.Context(), cqrs.DeleteAccountCommand{ID: id}); err != nil {
		return result{}, err
	}
	return result{status: http.StatusNoContent}, nil
}

// accountID parses the :id path segment. A non-integer or out-of-range id
// names no account; the NotFound error wraps the strconv error.
func accountID(c *gin.Context) (int64, error) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &apperror.Error{
			Kind:    apperror.KindNotFound,
			Message: fmt.Sprintf("Account with id '%s' was not found.", raw),
			Err:     err,
		}
	}
	return id, nil
}

// decodeObject reads the body as a JSON object. JSON null decodes to a nil map,
// which Deserialize rejects.
func decodeObject(c *gin.Context) (map[string]any, error) {
	raw, err := c.GetRawData()
	if err != nil {
		return nil, apperror.Validation("Invalid Account: could not read request body")
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, apperror.Validation("Invalid Account: body of request contained bad or no data")
	}
	return data, nil
}
