package dto

import (
	"github.com/turtacn/riskengine/internal/domain/models"
	"github.com/turtacn/riskengine/internal/domain/service"
)

// AssessRequest triggers a single entity assessment.
type AssessRequest struct {
	EntityType     string `json:"entity_type" validate:"required,oneof=property tenant"`
	EntityID       string `json:"entity_id" validate:"required,entity_id"`
	AssessmentType string `json:"assessment_type,omitempty" validate:"omitempty,oneof=comprehensive maintenance churn market financial operational compliance portfolio"`
}

// PortfolioAssessRequest triggers a portfolio roll-up. The body is optional.
type PortfolioAssessRequest struct {
	AssessmentType string `json:"assessment_type,omitempty" validate:"omitempty,oneof=comprehensive maintenance churn market financial operational compliance portfolio"`
}

// EntityPath binds the entity segments of history and trend routes.
type EntityPath struct {
	EntityType string `uri:"entity_type" validate:"required,oneof=property tenant portfolio"`
	EntityID   string `uri:"entity_id" validate:"required,entity_id"`
}

// HistoryQuery pages an entity's assessment history.
type HistoryQuery struct {
	Limit          int    `form:"limit" validate:"omitempty,min=1,max=100"`
	Offset         int    `form:"offset" validate:"omitempty,min=0"`
	AssessmentType string `form:"assessment_type" validate:"omitempty,oneof=comprehensive maintenance churn market financial operational compliance portfolio"`
}

// ToQueryOptions converts the query into repository options.
func (q HistoryQuery) ToQueryOptions() models.QueryOptions {
	return models.QueryOptions{
		Limit:          q.Limit,
		Offset:         q.Offset,
		AssessmentType: models.AssessmentType(q.AssessmentType),
	}
}

// FactorView is a risk factor with display names for its attributes.
type FactorView struct {
	models.RiskFactor
	Attributes []AttributeView `json:"attributes"`
}

// AttributeView names one contributing attribute.
type AttributeView struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// AssessmentResponse is a risk assessment as returned by the API.
type AssessmentResponse struct {
	*models.RiskAssessment
	FactorDetails map[models.Category]FactorView `json:"factor_details"`
}

// NewAssessmentResponse decorates a with attribute display names.
func NewAssessmentResponse(a *models.RiskAssessment) *AssessmentResponse {
	details := make(map[models.Category]FactorView, len(a.Factors))
	for c, f := range a.Factors {
		view := FactorView{RiskFactor: f, Attributes: make([]AttributeView, 0, len(f.ContributingAttributes))}
		for _, key := range f.ContributingAttributes {
			view.Attributes = append(view.Attributes, AttributeView{
				Key:         key,
				Name:        service.AttributeDisplayName(key),
				Description: service.AttributeDescription(key),
			})
		}
		details[c] = view
	}
	return &AssessmentResponse{RiskAssessment: a, FactorDetails: details}
}

// NewAssessmentResponses decorates a list of assessments.
func NewAssessmentResponses(list []*models.RiskAssessment) []*AssessmentResponse {
	out := make([]*AssessmentResponse, 0, len(list))
	for _, a := range list {
		out = append(out, NewAssessmentResponse(a))
	}
	return out
}
