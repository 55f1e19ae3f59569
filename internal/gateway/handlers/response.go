package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"servora-system/internal/apperr"
)

const dateLayout = "2006-01-02"

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    data,
	})
}

func fail(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{
		"success": false,
		"error":   message,
	})
}

func badRequest(c *gin.Context, err error) {
	fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
}

// handleError answers with the status matching the error kind. Internal
// failures are logged here with the request id; their cause never reaches
// the client.
func handleError(c *gin.Context, logger log.FieldLogger, err error) {
	code := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		code = http.StatusNotFound
	case apperr.KindInvalidInput:
		code = http.StatusBadRequest
	case apperr.KindConflict:
		code = http.StatusConflict
	case apperr.KindUnauthorized:
		code = http.StatusUnauthorized
	default:
		logger.WithError(err).WithFields(log.Fields{
			"request_id": c.GetString("request_id"),
			"path":       c.FullPath(),
		}).Error("request failed")
	}
	c.Error(err)
	fail(c, code, apperr.Message(err))
}

func parseIDParam(c *gin.Context, param string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err == nil && id <= 0 {
		err = strconv.ErrRange
	}
	return id, err
}

func parseIntQuery(c *gin.Context, param string, def int) int {
	str := c.Query(param)
	if str == "" {
		return def
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return def
	}
	return val
}

func parseInt64Query(c *gin.Context, param string) *int64 {
	str := c.Query(param)
	if str == "" {
		return nil
	}
	val, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return nil
	}
	return &val
}

func parseBoolQuery(c *gin.Context, param string) bool {
	val, _ := strconv.ParseBool(c.Query(param))
	return val
}

// parseTimeQuery accepts RFC 3339 timestamps or plain dates (midnight UTC).
func parseTimeQuery(c *gin.Context, param string) (*time.Time, error) {
	str := c.Query(param)
	if str == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, str); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateLayout, str)
	if err != nil {
		return nil, apperr.Invalid("invalid %s: expected YYYY-MM-DD or RFC 3339", param)
	}
	return &t, nil
}
