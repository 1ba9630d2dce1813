package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	contententity "github.com/vadim/neo-social/internal/domain/content/entity"
	postentity "github.com/vadim/neo-social/internal/domain/post/entity"
	"github.com/vadim/neo-social/internal/httpx/response"
)

// decodeJSON decodes the request body into dst and runs struct validation on it.
// The returned error is safe to show to the client.
func decodeJSON(r *http.Request, v *validator.Validate, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.New("invalid JSON")
	}
	if err := v.Struct(dst); err != nil {
		return validationMessage(err)
	}
	return nil
}

func validationMessage(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// newValidator uses json names in validation messages
// decodeOptionalJSON is decodeJSON for bodies that may be left out entirely.
// An empty body leaves dst untouched, whether or not Content-Length was sent.
func decodeOptionalJSON(r *http.Request, v *validator.Validate, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return errors.New("invalid JSON")
	}
	if err := v.Struct(dst); err != nil {
		return validationMessage(err)
	}
	return nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// parseTime parses an optional RFC3339 value
func parseTime(s *string, field string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s format, use RFC3339", field)
	}
	return &t, nil
}

func handleDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, postentity.ErrPostNotEditable):
		response.Conflict(w, err.Error())
	case errors.Is(err, postentity.ErrInvalidArgument):
		response.BadRequest(w, err.Error())
	case errors.Is(err, postentity.ErrNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, postentity.ErrUnauthorized):
		response.Forbidden(w, err.Error())
	case errors.Is(err, contententity.ErrEmptyPrompt),
		errors.Is(err, contententity.ErrPromptTooLong),
		errors.Is(err, contententity.ErrInvalidContentType),
		errors.Is(err, contententity.ErrInvalidImageOption):
		response.BadRequest(w, err.Error())
	case errors.Is(err, contententity.ErrGeneratorNotEnabled):
		response.ServiceUnavailable(w, err.Error())
	case errors.Is(err, contententity.ErrGenerationFailed):
		response.BadGateway(w, err.Error())
	default:
		logger.Error("request failed", "error", err)
		response.InternalError(w, "internal server error")
	}
}
