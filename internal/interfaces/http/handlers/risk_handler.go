package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/riskengine/internal/application/dto"
	"github.com/turtacn/riskengine/internal/application/service"
	"github.com/turtacn/riskengine/internal/domain/models"
	"github.com/turtacn/riskengine/pkg/logger"
)

// RiskHandler 风险评估 HTTP 处理器
type RiskHandler struct {
	assessments service.AssessmentAppService
	logger      logger.Logger
}

// NewRiskHandler creates a new RiskHandler.
func NewRiskHandler(assessments service.AssessmentAppService, log logger.Logger) *RiskHandler {
	return &RiskHandler{
		assessments: assessments,
		logger:      log.WithComponent("risk_handler"),
	}
}

// Assess 评估单个实体
// POST /api/v1/risks/assess
func (h *RiskHandler) Assess(c *gin.Context) {
	var req dto.AssessRequest
	if err := bindJSON(c, &req, false); err != nil {
		respondError(c, h.logger, err, "assess")
		return
	}

	a, err := h.assessments.Assess(c.Request.Context(),
		models.EntityType(req.EntityType), req.EntityID, models.AssessmentType(req.AssessmentType))
	if err != nil {
		respondError(c, h.logger, err, "assess")
		return
	}
	respond(c, http.StatusCreated, dto.NewAssessmentResponse(a))
}

// AssessPortfolio 评估整个组合
// POST /api/v1/risks/portfolio/assess
func (h *RiskHandler) AssessPortfolio(c *gin.Context) {
	var req dto.PortfolioAssessRequest
	if err := bindJSON(c, &req, true); err != nil {
		respondError(c, h.logger, err, "assess_portfolio")
		return
	}

	a, err := h.assessments.AssessPortfolio(c.Request.Context(), models.AssessmentType(req.AssessmentType))
	if err != nil {
		respondError(c, h.logger, err, "assess_portfolio")
		return
	}
	respond(c, http.StatusCreated, dto.NewAssessmentResponse(a))
}

// GetAssessment 获取评估结果
// GET /api/v1/risks/assessments/:id
func (h *RiskHandler) GetAssessment(c *gin.Context) {
	a, err := h.assessments.GetAssessment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "get_assessment")
		return
	}
	respond(c, http.StatusOK, dto.NewAssessmentResponse(a))
}

// ListEntityAssessments 获取实体评估历史
// GET /api/v1/risks/:entity_type/:entity_id/assessments
func (h *RiskHandler) ListEntityAssessments(c *gin.Context) {
	var path dto.EntityPath
	if err := bindURI(c, &path); err != nil {
		respondError(c, h.logger, err, "list_assessments")
		return
	}
	var query dto.HistoryQuery
	if err := bindQuery(c, &query); err != nil {
		respondError(c, h.logger, err, "list_assessments")
		return
	}

	opts := query.ToQueryOptions()
	list, err := h.assessments.GetEntityRiskAssessments(c.Request.Context(),
		models.EntityType(path.EntityType), path.EntityID, opts)
	if err != nil {
		respondError(c, h.logger, err, "list_assessments")
		return
	}
	respond(c, http.StatusOK, dto.ListResponse{
		Items:  dto.NewAssessmentResponses(list),
		Count:  len(list),
		Limit:  opts.Limit,
		Offset: opts.Offset,
	})
}

// GetTrends 获取实体风险趋势
// GET /api/v1/risks/:entity_type/:entity_id/trends
func (h *RiskHandler) GetTrends(c *gin.Context) {
	var path dto.EntityPath
	if err := bindURI(c, &path); err != nil {
		respondError(c, h.logger, err, "get_trends")
		return
	}
	var query dto.HistoryQuery
	if err := bindQuery(c, &query); err != nil {
		respondError(c, h.logger, err, "get_trends")
		return
	}

	trend, err := h.assessments.GetRiskTrends(c.Request.Context(),
		models.EntityType(path.EntityType), path.EntityID, query.ToQueryOptions())
	if err != nil {
		respondError(c, h.logger, err, "get_trends")
		return
	}
	respond(c, http.StatusOK, trend)
}
