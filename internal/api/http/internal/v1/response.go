package v1

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type ErrorBody struct {
	Message    string            `json:"message"`
	StatusCode int               `json:"statusCode"`
	Errors     []ValidationError `json:"errors,omitempty"`
} // @name ErrorBody

type ErrorStruct struct {
	Error ErrorBody `json:"error"`
} // @name ErrorStruct

type ValidationError struct {
	FieldKey     string `json:"fieldKey"`
	ErrorMessage string `json:"errorMessage"`
}

func errorResponse(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, ErrorStruct{
		Error: ErrorBody{
			Message:    message,
			StatusCode: statusCode,
		},
	})
}

// serviceErrorResponse translates a service-layer error into its HTTP shape.
// Unmapped errors become an opaque 500; the detail only goes to the log.
func serviceErrorResponse(c *gin.Context, err error) {
	statusCode, message := mapServiceError(err)
	errorResponse(c, statusCode, message)
}

func validationErrorResponse(c *gin.Context, err error) {
	var verr validator.ValidationErrors
	if !errors.As(err, &verr) {
		errorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	out := make([]ValidationError, len(verr))
	for i, ferr := range verr {
		out[i] = ValidationError{ferr.Field(), msgForTag(ferr.Tag(), ferr.Param())}
	}

	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, ErrorStruct{
		Error: ErrorBody{
			Message:    "Validation error",
			StatusCode: http.StatusUnprocessableEntity,
			Errors:     out,
		},
	})
}

func msgForTag(tag string, value string) string {
	switch tag {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return fmt.Sprintf("Minimum length is %v", value)
	case "max":
		return fmt.Sprintf("Maximum length is %v", value)
	case "phonenumber":
		return "Phone number must contain 6 to 14 digits"
	case "countrycode":
		return "Country code must contain 1 to 4 digits"
	case "uuid":
		return "Must be a valid id"
	}
	return tag
}
