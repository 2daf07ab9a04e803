package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"taskfigma/internal/apperr"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Status   bool        `json:"status"`
	Message  string      `json:"message"`
	Result   interface{} `json:"result"`
	Total    *int64      `json:"total,omitempty"`
	Page     int         `json:"page,omitempty"`
	PageSize int         `json:"pageSize,omitempty"`
}

func ok(c *gin.Context, message string, result interface{}) {
	c.JSON(http.StatusOK, Response{Status: true, Message: message, Result: result})
}

func statusFor(err error) int {
	switch {
	case apperr.IsValidation(err):
		return http.StatusBadRequest
	case apperr.IsNotFound(err):
		return http.StatusNotFound
	case apperr.IsConflict(err):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// fail logs err under tag and answers with the mapped status. Store failures are not echoed
// to the client.
func fail(c *gin.Context, tag string, err error) {
	code := statusFor(err)
	log.Printf("%s[err] status=%d: %v", tag, code, err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}
	c.JSON(code, Response{Status: false, Message: msg})
}

// queryInt reads an optional integer query parameter.
func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation(name, "must be an integer")
	}
	return n, nil
}

func bindError(err error) error {
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		return err
	}
	return apperr.Validation("", "invalid request body: "+err.Error())
}
