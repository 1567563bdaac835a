package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/HossamJa/devops-capstone-project/shared/apperror"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Account is a customer record. It is the only entity of the service.
type Account struct {
	ID          int64  `json:"id"`
	Name        string `json:"name" validate:"required,max=64"`
	Email       string `json:"email" validate:"required,max=64"`
	Address     string `json:"address" validate:"required,max=256"`
	PhoneNumber string `json:"phone_number" validate:"max=32"`
	DateJoined  Date   `json:"date_joined"`
}

func (a Account) String() string {
	return fmt.Sprintf("<Account %s id=[%d]>", a.Name, a.ID)
}

// Serialize renders every field, including id, as a key-value map.
func (a Account) Serialize() map[string]any {
	return map[string]any{
		"id":           a.ID,
		"name":         a.Name,
		"email":        a.Email,
		"address":      a.Address,
		"phone_number": a.PhoneNumber,
		"date_joined":  a.DateJoined.String(),
	}
}

// Deserialize populates the account from a decoded JSON object. The id is
// never read from data. On error the account is left untouched.
func (a *Account) Deserialize(data map[string]any) error {
	if data == nil {
		return apperror.Validation("Invalid Account: body of request contained bad or no data")
	}

	var next Account
	var err error
	if next.Name, err = stringField(data, "name", true); err != nil {
		return err
	}
	if next.Email, err = stringField(data, "email", true); err != nil {
		return err
	}
	if next.Address, err = stringField(data, "address", true); err != nil {
		return err
	}
	if next.PhoneNumber, err = stringField(data, "phone_number", false); err != nil {
		return err
	}

	next.DateJoined = Today()
	if raw, ok := data["date_joined"]; ok && raw != nil {
		s, ok := raw.(string)
		if !ok {
			return apperror.Validation("Invalid Account: date_joined must be a string")
		}
		if s != "" {
			d, err := ParseDate(s)
			if err != nil {
				return apperror.Validation("Invalid Account: " + err.Error())
			}
			next.DateJoined = d
		}
	}

	if err := validate.Struct(next); err != nil {
		return validationFailure(err)
	}

	next.ID = a.ID
	*a = next
	return nil
}

func stringField(data map[string]any, key string, required bool) (string, error) {
	raw, ok := data[key]
	if !ok || raw == nil {
		if required {
			return "", apperror.Validation("Invalid Account: missing " + key)
		}
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", apperror.Validation(fmt.Sprintf("Invalid Account: %s must be a string", key))
	}
	return s, nil
}

func validationFailure(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperror.Validation("Invalid Account: " + err.Error())
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return apperror.Validation("Invalid Account: missing " + fe.Field())
	case "max":
		return apperror.Validation(fmt.Sprintf("Invalid Account: %s is longer than %s characters", fe.Field(), fe.Param()))
	default:
		return apperror.Validation("Invalid Account: invalid " + fe.Field())
	}
}
