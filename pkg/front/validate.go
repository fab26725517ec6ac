package front

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator returns the singleton validator instance.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report fields by their config key.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}

			return name
		})
	})

	return validate
}

// Validate checks field constraints and the credential rule: exactly one of
// APIKey or OAuth, and OAuth needs client credentials plus at least one token.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigRequired
	}

	err := getValidator().Struct(c)
	if err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validating config: %w", err)
		}

		messages := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			messages = append(messages, fe.Namespace()+": "+describeFieldError(fe))
		}

		return NewValidationError("invalid config: "+strings.Join(messages, "; "), nil)
	}

	return c.validateCredentials()
}

func (c *Config) validateCredentials() error {
	switch {
	case c.APIKey != "" && c.OAuth != nil:
		return ErrAmbiguousCredentials
	case c.APIKey == "" && c.OAuth == nil:
		return ErrCredentialsRequired
	case c.OAuth != nil && (c.OAuth.ClientID == "" || c.OAuth.ClientSecret == ""):
		return ErrOAuthClientRequired
	case c.OAuth != nil && c.OAuth.AccessToken == "" && c.OAuth.RefreshToken == "":
		return ErrOAuthTokenRequired
	}

	return nil
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "url":
		return "must be a valid URL"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}
