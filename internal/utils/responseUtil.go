package utils

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/llmgate/promptcoder/models"
	"github.com/llmgate/promptcoder/refine"
	"github.com/llmgate/promptcoder/retryclient"
)

const RequestIdKey = "requestId"

func ProcessGenericBadRequest(c *gin.Context) {
	ProcessBadRequest(c, "bad request")
}

func ProcessBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, errorResponse(c, message))
}

func ProcessGenericInternalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, errorResponse(c, "internal error"))
}

// ProcessRefineError writes the HTTP response for an error returned by the
// refine service. The messages of the known error types are user-facing and
// are passed through as-is.
func ProcessRefineError(c *gin.Context, err error) {
	status, message := StatusForError(err)

	var openErr *retryclient.CircuitOpenError
	if errors.As(err, &openErr) && openErr.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(openErr.RetryAfter.Seconds()))))
	}

	c.JSON(status, errorResponse(c, message))
}

func StatusForError(err error) (int, string) {
	var (
		validationErr *refine.ValidationError
		openErr       *retryclient.CircuitOpenError
		clientErr     *retryclient.ClientRequestError
		exhaustedErr  *retryclient.ExhaustedRetriesError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, validationErr.Error()
	case errors.As(err, &openErr):
		return http.StatusServiceUnavailable, openErr.Error()
	case errors.As(err, &clientErr):
		return http.StatusUnprocessableEntity, clientErr.Error()
	case errors.As(err, &exhaustedErr):
		return http.StatusBadGateway, exhaustedErr.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func errorResponse(c *gin.Context, message string) models.ErrorResponse {
	return models.ErrorResponse{Error: message, RequestId: c.GetString(RequestIdKey)}
}
