package handlers

import (
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"servora-system/internal/auth"
	"servora-system/internal/gateway/middleware"
)

type UserHTTPHandler struct {
	auth *auth.Service
	log  log.FieldLogger
}

func NewUserHTTPHandler(authService *auth.Service, logger log.FieldLogger) *UserHTTPHandler {
	return &UserHTTPHandler{auth: authService, log: logger}
}

func (h *UserHTTPHandler) Register(c *gin.Context) {
	var req auth.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	session, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	created(c, session)
}

func (h *UserHTTPHandler) Login(c *gin.Context) {
	var req auth.LoginInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	session, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	success(c, session)
}

func (h *UserHTTPHandler) Me(c *gin.Context) {
	user, err := h.auth.Me(c.Request.Context(), middleware.RestaurantID(c), middleware.UserID(c))
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	success(c, user)
}
