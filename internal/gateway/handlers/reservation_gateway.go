package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"servora-system/internal/database/models"
	"servora-system/internal/gateway/middleware"
	"servora-system/internal/reservations"
)

type ReservationHTTPHandler struct {
	reservations *reservations.Service
	log          log.FieldLogger
}

func NewReservationHTTPHandler(service *reservations.Service, logger log.FieldLogger) *ReservationHTTPHandler {
	return &ReservationHTTPHandler{reservations: service, log: logger}
}

func (h *ReservationHTTPHandler) List(c *gin.Context) {
	from, err := parseTimeQuery(c, "from")
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	list, err := h.reservations.List(c.Request.Context(), middleware.RestaurantID(c), reservations.ListFilter{
		Status: models.ReservationStatus(c.Query("status")),
		From:   from,
		To:     to,
	})
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	success(c, list)
}

func (h *ReservationHTTPHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid reservation ID")
		return
	}

	r, err := h.reservations.Get(c.Request.Context(), middleware.RestaurantID(c), id)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	success(c, r)
}

func (h *ReservationHTTPHandler) Create(c *gin.Context) {
	var req reservations.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	r, err := h.reservations.Create(c.Request.Context(), middleware.RestaurantID(c), req)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	created(c, r)
}

func (h *ReservationHTTPHandler) Update(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid reservation ID")
		return
	}

	var req reservations.UpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	r, err := h.reservations.Update(c.Request.Context(), middleware.RestaurantID(c), id, req)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	success(c, r)
}

type reservationStatusRequest struct {
	Status models.ReservationStatus `json:"status" binding:"required"`
}

func (h *ReservationHTTPHandler) UpdateStatus(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid reservation ID")
		return
	}

	var req reservationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	r, err := h.reservations.UpdateStatus(c.Request.Context(), middleware.RestaurantID(c), id, req.Status)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	success(c, r)
}

func (h *ReservationHTTPHandler) Delete(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid reservation ID")
		return
	}

	if err := h.reservations.Delete(c.Request.Context(), middleware.RestaurantID(c), id); err != nil {
		handleError(c, h.log, err)
		return
	}
	success(c, gin.H{"id": id})
}
