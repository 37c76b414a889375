package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rongwang/budget-server/internal/apperr"
	"github.com/rongwang/budget-server/internal/models"
	"github.com/sirupsen/logrus"
)

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, models.Response{
		Success: true,
		Data:    data,
	})
}

func respondMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: message,
	})
}

// respondError writes the failure envelope. Internal causes are logged and
// replaced by a generic message.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	kind := apperr.KindOf(err)
	field := apperr.FieldOf(err)

	entry := logger.WithFields(logrus.Fields{
		"path": c.Request.URL.Path,
		"kind": kind.String(),
	})
	if field != "" {
		entry = entry.WithField("field", field)
	}
	if identity, ok := currentIdentity(c); ok {
		entry = entry.WithField("userId", identity.UserID)
	}

	if kind == apperr.KindInternal {
		entry.WithError(err).Error("Internal error")
	} else {
		entry.Debug(apperr.PublicMessage(err))
	}

	c.JSON(kind.HTTPStatus(), models.Response{
		Success: false,
		Error:   apperr.PublicMessage(err),
		Field:   field,
	})
}

func abortWithError(c *gin.Context, logger *logrus.Logger, err error) {
	respondError(c, logger, err)
	c.Abort()
}

// bindingError turns a gin binding failure into a validation error. Decoder
// messages are not passed through since they name Go types.
func bindingError(err error) error {
	var validationErrors validator.ValidationErrors
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	var numErr *strconv.NumError

	switch {
	case errors.As(err, &validationErrors) && len(validationErrors) > 0:
		fieldErr := validationErrors[0]
		return apperr.InvalidField(fieldErr.Field(), describeFieldError(fieldErr))
	case errors.Is(err, models.ErrInvalidDate):
		return apperr.InvalidField("date", "date must be in YYYY-MM-DD format")
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return apperr.InvalidField(typeErr.Field, typeErr.Field+" has the wrong type")
	case errors.As(err, &typeErr):
		return apperr.Validation("request body has the wrong type")
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return apperr.Validation("request body is not valid JSON")
	case errors.Is(err, io.EOF):
		return apperr.Validation("request body is required")
	case errors.As(err, &numErr):
		return apperr.Validation("query parameter is not a valid number")
	default:
		return apperr.Validation("invalid request")
	}
}

func describeFieldError(fieldErr validator.FieldError) string {
	field := fieldErr.Field()
	switch fieldErr.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return field + " must be at least " + fieldErr.Param()
	case "max":
		return field + " must be at most " + fieldErr.Param()
	case "monthkey":
		return field + " must be in YYYY-MM format"
	case "hexcolor":
		return field + " must be a hex color"
	default:
		return field + " is invalid"
	}
}
