package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/riskengine/internal/application/dto"
	"github.com/turtacn/riskengine/internal/application/service"
	"github.com/turtacn/riskengine/pkg/logger"
)

// AlertHandler 告警 HTTP 处理器
type AlertHandler struct {
	alerts service.AlertLifecycleService
	logger logger.Logger
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(alerts service.AlertLifecycleService, log logger.Logger) *AlertHandler {
	return &AlertHandler{
		alerts: alerts,
		logger: log.WithComponent("alert_handler"),
	}
}

// ListAlerts 查询告警列表
// GET /api/v1/alerts
func (h *AlertHandler) ListAlerts(c *gin.Context) {
	var query dto.AlertListQuery
	if err := bindQuery(c, &query); err != nil {
		respondError(c, h.logger, err, "list_alerts")
		return
	}
	list, err := h.alerts.ListAlerts(c.Request.Context(), query.ToFilter())
	if err != nil {
		respondError(c, h.logger, err, "list_alerts")
		return
	}
	respond(c, http.StatusOK, dto.ListResponse{
		Items:  list,
		Count:  len(list),
		Limit:  query.Limit,
		Offset: query.Offset,
	})
}

// Statistics 告警统计
// GET /api/v1/alerts/stats
func (h *AlertHandler) Statistics(c *gin.Context) {
	var query dto.AlertListQuery
	if err := bindQuery(c, &query); err != nil {
		respondError(c, h.logger, err, "alert_stats")
		return
	}
	stats, err := h.alerts.GetAlertStatistics(c.Request.Context(), query.ToFilter())
	if err != nil {
		respondError(c, h.logger, err, "alert_stats")
		return
	}
	respond(c, http.StatusOK, stats)
}

// GetAlert 获取单个告警
// GET /api/v1/alerts/:id
func (h *AlertHandler) GetAlert(c *gin.Context) {
	alert, err := h.alerts.GetAlert(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "get_alert")
		return
	}
	respond(c, http.StatusOK, alert)
}

// Acknowledge 确认告警
// POST /api/v1/alerts/:id/acknowledge
func (h *AlertHandler) Acknowledge(c *gin.Context) {
	var req dto.AcknowledgeAlertRequest
	if err := bindJSON(c, &req, false); err != nil {
		respondError(c, h.logger, err, "acknowledge_alert")
		return
	}
	alert, err := h.alerts.AcknowledgeAlert(c.Request.Context(), c.Param("id"), req.UserID, req.Notes)
	if err != nil {
		respondError(c, h.logger, err, "acknowledge_alert")
		return
	}
	respond(c, http.StatusOK, alert)
}

// Resolve 解决告警
// POST /api/v1/alerts/:id/resolve
func (h *AlertHandler) Resolve(c *gin.Context) {
	var req dto.ResolveAlertRequest
	if err := bindJSON(c, &req, false); err != nil {
		respondError(c, h.logger, err, "resolve_alert")
		return
	}
	alert, err := h.alerts.ResolveAlert(c.Request.Context(), c.Param("id"), req.UserID, req.Resolution)
	if err != nil {
		respondError(c, h.logger, err, "resolve_alert")
		return
	}
	respond(c, http.StatusOK, alert)
}

// Escalate 升级告警
// POST /api/v1/alerts/:id/escalate
func (h *AlertHandler) Escalate(c *gin.Context) {
	result, err := h.alerts.EscalateAlert(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "escalate_alert")
		return
	}
	respond(c, http.StatusOK, result)
}

// ProcessQueue 手动触发告警巡检
// POST /api/v1/alerts/process
func (h *AlertHandler) ProcessQueue(c *gin.Context) {
	result, err := h.alerts.ProcessAlertQueue(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "process_alert_queue")
		return
	}
	status := http.StatusOK
	if result.Skipped {
		status = http.StatusAccepted
	}
	respond(c, status, result)
}
