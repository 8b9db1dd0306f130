package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/charlesng35/scribekeys/pkg/errors"
	"github.com/charlesng35/scribekeys/pkg/response"
	"github.com/charlesng35/scribekeys/pkg/validator"
)

// bindAndValidate decodes the JSON body into dest and applies its validate tags.
// On failure it writes a 400 envelope and returns false.
func bindAndValidate[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return false
	}

	err := validator.ValidateStruct(dest)
	if err == nil {
		return true
	}
	message := "invalid request payload"
	var failures validator.FieldErrors
	if errors.As(err, &failures) && len(failures) > 0 {
		message = failures.Error()
	}
	response.Error(c, appErrors.NewBadRequest(message))
	return false
}

// queryInt reads a numeric query parameter, falling back when it is absent or malformed.
func queryInt(c *gin.Context, key string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil {
		return fallback
	}
	return parsed
}

// queryBool returns nil unless the parameter holds a boolean, so callers can tell
// "not filtered" apart from false.
func queryBool(c *gin.Context, key string) *bool {
	value, err := strconv.ParseBool(strings.TrimSpace(c.Query(key)))
	if err != nil {
		return nil
	}
	return &value
}
