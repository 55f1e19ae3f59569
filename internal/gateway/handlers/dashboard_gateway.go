package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"servora-system/internal/apperr"
	"servora-system/internal/dashboard"
	"servora-system/internal/gateway/middleware"
	"servora-system/internal/orders"
	"servora-system/internal/reports"
)

const defaultSalesWindow = 30 * 24 * time.Hour

type DashboardHTTPHandler struct {
	stats  *dashboard.Service
	orders *orders.Service
	log    log.FieldLogger
}

func NewDashboardHTTPHandler(stats *dashboard.Service, orderService *orders.Service, logger log.FieldLogger) *DashboardHTTPHandler {
	return &DashboardHTTPHandler{stats: stats, orders: orderService, log: logger}
}

func (h *DashboardHTTPHandler) Stats(c *gin.Context) {
	stats, err := h.stats.Stats(c.Request.Context(), middleware.RestaurantID(c))
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	success(c, stats)
}

// ExportSales downloads the orders created in [from, to) as an xlsx workbook.
// Dates default to the last 30 days; a plain "to" date includes that whole day.
func (h *DashboardHTTPHandler) ExportSales(c *gin.Context) {
	rid := middleware.RestaurantID(c)

	to, err := parseTimeQuery(c, "to")
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	from, err := parseTimeQuery(c, "from")
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	end := time.Now().UTC()
	if to != nil {
		end = *to
		if len(c.Query("to")) == len(dateLayout) {
			end = end.AddDate(0, 0, 1)
		}
	}
	start := end.Add(-defaultSalesWindow)
	if from != nil {
		start = *from
	}

	list, err := h.orders.Between(c.Request.Context(), rid, start, end)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	code, err := h.stats.Currency(c.Request.Context(), rid)
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	f, err := reports.SalesWorkbook(list, code, start, end)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	writeWorkbook(c, h.log, f, fmt.Sprintf("sales-%s-%s.xlsx", start.Format(dateLayout), end.Format(dateLayout)))
}

// writeWorkbook buffers the whole file first so a write error can still be
// answered with a JSON envelope.
func writeWorkbook(c *gin.Context, logger log.FieldLogger, f *excelize.File, filename string) {
	var buf bytes.Buffer
	if err := reports.Write(&buf, f); err != nil {
		handleError(c, logger, apperr.Internal(err, "failed to build workbook"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
