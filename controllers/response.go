package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tharun-raj/washtrack-api/services"
	"github.com/tharun-raj/washtrack-api/utils"
)

// Every endpoint answers with the same envelope:
// {success, data?, message?, errors?}. Validation failures carry a
// per-field errors map; conflicts carry the remaining capacity so the
// client can self-correct without re-querying.

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
	})
}

func respondBindingError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": "Invalid request data",
		"errors":  gin.H{"body": err.Error()},
	})
}

func respondError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	var notFoundErr *services.NotFoundError
	var conflictErr *services.ConflictError
	var txFailure *services.TransactionFailure
	var uploadErr *utils.FileUploadError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request data",
			"errors":  validationErr.Fields,
		})
	case errors.As(err, &uploadErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": uploadErr.Message,
			"errors":  gin.H{"file": uploadErr.Message},
		})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": notFoundErr.Error(),
		})
	case errors.As(err, &conflictErr):
		body := gin.H{
			"success": false,
			"message": conflictErr.Message,
		}
		if conflictErr.Remaining >= 0 {
			body["remaining"] = conflictErr.Remaining
		}
		c.JSON(http.StatusConflict, body)
	case errors.As(err, &txFailure):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"message": "The operation conflicted with concurrent updates, please retry",
		})
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Unexpected error")
		body := gin.H{
			"success": false,
			"message": "Internal server error",
		}
		// Error detail stays out of production responses
		if gin.Mode() != gin.ReleaseMode {
			body["errors"] = gin.H{"detail": err.Error()}
		}
		c.JSON(http.StatusInternalServerError, body)
	}
}

// parseIDParam parses a numeric path parameter, answering 400 itself when
// the value is malformed.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request data",
			"errors":  gin.H{name: "must be a positive integer"},
		})
		return 0, false
	}
	return uint(id), true
}
