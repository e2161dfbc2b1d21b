package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/riskengine/internal/config"
	"github.com/turtacn/riskengine/internal/domain/models"
	"github.com/turtacn/riskengine/internal/domain/repository"
	domainService "github.com/turtacn/riskengine/internal/domain/service"
	"github.com/turtacn/riskengine/pkg/constants"
	"github.com/turtacn/riskengine/pkg/errors"
	"github.com/turtacn/riskengine/pkg/logger"
	"github.com/turtacn/riskengine/pkg/utils"
)

const portfolioEntityName = "Portfolio"

// AssessmentAppService defines the application service for risk assessments.
type AssessmentAppService interface {
	// Assess scores one property or tenant and persists the result.
	Assess(ctx context.Context, entityType models.EntityType, entityID string, assessmentType models.AssessmentType) (*models.RiskAssessment, error)

	// AssessPortfolio assesses every property and tenant and rolls the results up.
	// Per-entity failures are reported in the summary, never returned.
	AssessPortfolio(ctx context.Context, assessmentType models.AssessmentType) (*models.RiskAssessment, error)

	// GetAssessment returns one persisted assessment.
	GetAssessment(ctx context.Context, id string) (*models.RiskAssessment, error)

	// GetEntityRiskAssessments returns an entity's assessment history, newest first.
	GetEntityRiskAssessments(ctx context.Context, entityType models.EntityType, entityID string, opts models.QueryOptions) ([]*models.RiskAssessment, error)

	// GetRiskTrends analyzes the entity's recent assessment history.
	GetRiskTrends(ctx context.Context, entityType models.EntityType, entityID string, opts models.QueryOptions) (*models.TrendResult, error)
}

// AssessmentSettings tunes assessment runs.
type AssessmentSettings struct {
	EntityTimeout          time.Duration
	PortfolioConcurrency   int
	NextAssessmentInterval time.Duration
}

// AssessmentSettingsFromConfig reads the assessment section of cfg.
func AssessmentSettingsFromConfig(cfg config.AssessmentConfig) AssessmentSettings {
	return AssessmentSettings{
		EntityTimeout:          cfg.EntityTimeout,
		PortfolioConcurrency:   cfg.PortfolioConcurrency,
		NextAssessmentInterval: cfg.NextAssessmentInterval,
	}
}

type assessmentAppServiceImpl struct {
	snapshots    domainService.SnapshotProvider
	assessments  repository.AssessmentRepository
	scoring      *ScoringRegistry
	mitigation   *domainService.MitigationGenerator
	orchestrator *AlertOrchestrator
	settings     AssessmentSettings
	metrics      domainService.Metrics
	logger       logger.Logger
	clock        func() time.Time
	newID        func() string
}

// NewAssessmentAppService creates a new AssessmentAppService. orchestrator may
// be nil, in which case no alerts are raised.
func NewAssessmentAppService(
	snapshots domainService.SnapshotProvider,
	assessments repository.AssessmentRepository,
	scoring *ScoringRegistry,
	orchestrator *AlertOrchestrator,
	settings AssessmentSettings,
	metrics domainService.Metrics,
	log logger.Logger,
) AssessmentAppService {
	if settings.EntityTimeout <= 0 {
		settings.EntityTimeout = constants.DefaultEntityAssessmentTimeout
	}
	if settings.PortfolioConcurrency <= 0 {
		settings.PortfolioConcurrency = constants.DefaultPortfolioConcurrency
	}
	if settings.NextAssessmentInterval <= 0 {
		settings.NextAssessmentInterval = constants.DefaultNextAssessmentInterval
	}
	if metrics == nil {
		metrics = domainService.NoopMetrics{}
	}
	return &assessmentAppServiceImpl{
		snapshots:    snapshots,
		assessments:  assessments,
		scoring:      scoring,
		mitigation:   domainService.NewMitigationGenerator(),
		orchestrator: orchestrator,
		settings:     settings,
		metrics:      metrics,
		logger:       log.WithComponent("assessment_service"),
		clock:        time.Now,
		newID:        uuid.NewString,
	}
}

func normalizeAssessmentType(t, fallback models.AssessmentType) (models.AssessmentType, error) {
	if t == "" {
		return fallback, nil
	}
	if !t.Valid() {
		return "", errors.ErrValidation(fmt.Sprintf("unknown assessment type %q", t))
	}
	return t, nil
}

func validateEntity(entityType models.EntityType, entityID string) error {
	if entityType != models.EntityTypeProperty && entityType != models.EntityTypeTenant {
		return errors.ErrValidation(fmt.Sprintf("entity type must be property or tenant, got %q", entityType))
	}
	if !utils.ValidateEntityID(entityID) {
		return errors.ErrValidation("malformed entity id").WithMetadata("entity_id", entityID)
	}
	return nil
}

func (s *assessmentAppServiceImpl) Assess(ctx context.Context, entityType models.EntityType, entityID string, assessmentType models.AssessmentType) (*models.RiskAssessment, error) {
	ctx, span := otel.Tracer(constants.ServiceName).Start(ctx, "AssessmentService.Assess")
	defer span.End()
	span.SetAttributes(
		attribute.String("entity.type", string(entityType)),
		attribute.String("entity.id", entityID),
	)

	assessment, err := s.assess(ctx, entityType, entityID, assessmentType)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Float64("risk.score", assessment.OverallScore),
		attribute.String("risk.level", string(assessment.RiskLevel)),
	)
	return assessment, nil
}

func (s *assessmentAppServiceImpl) assess(ctx context.Context, entityType models.EntityType, entityID string, assessmentType models.AssessmentType) (*models.RiskAssessment, error) {
	start := s.clock()
	if err := validateEntity(entityType, entityID); err != nil {
		return nil, err
	}
	assessmentType, err := normalizeAssessmentType(assessmentType, models.AssessmentTypeComprehensive)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.snapshots.GetEntitySnapshot(ctx, entityType, entityID)
	if err != nil {
		return nil, s.wrapDependencyError(err, "failed to read entity snapshot")
	}

	state := s.scoring.Current()
	weights := state.Weights.For(assessmentType)
	factors, err := state.Calculator.CalculateAll(ctx, snapshot, weights)
	if err != nil {
		return nil, err
	}
	agg := domainService.NewScoreAggregator(weights).Aggregate(factors)
	if agg.NeedsReview {
		// Not returned: the assessment is still stored, flagged for review.
		reviewErr := errors.ErrAggregation("no risk factor produced a score").
			WithMetadata("entity_id", entityID)
		s.logger.Warn(ctx, "Assessment produced no scored factors and needs review",
			logger.String("entity_type", string(entityType)),
			logger.String("entity_id", entityID),
			logger.String("error_code", string(reviewErr.Code())),
			logger.Error(reviewErr),
		)
	}

	now := s.clock().UTC()
	assessment := &models.RiskAssessment{
		ID:                   s.newID(),
		EntityType:           entityType,
		EntityID:             entityID,
		EntityName:           snapshot.DisplayName(),
		AssessmentType:       assessmentType,
		OverallScore:         agg.OverallScore,
		RiskLevel:            agg.RiskLevel,
		Confidence:           agg.Confidence,
		Factors:              factors,
		MitigationStrategies: s.mitigation.Generate(factors),
		AssessmentDate:       now,
		NextAssessmentDate:   now.Add(s.settings.NextAssessmentInterval),
		DataQuality:          agg.DataQuality,
		NeedsReview:          agg.NeedsReview,
		PreviousScore:        s.previousScore(ctx, entityType, entityID),
	}

	if err := s.persist(ctx, assessment); err != nil {
		return nil, err
	}
	s.metrics.RecordAssessment(string(entityType), string(assessment.RiskLevel), assessment.NeedsReview, s.clock().Sub(start))
	return assessment, nil
}

func (s *assessmentAppServiceImpl) AssessPortfolio(ctx context.Context, assessmentType models.AssessmentType) (*models.RiskAssessment, error) {
	ctx, span := otel.Tracer(constants.ServiceName).Start(ctx, "AssessmentService.AssessPortfolio")
	defer span.End()

	start := s.clock()
	assessmentType, err := normalizeAssessmentType(assessmentType, models.AssessmentTypePortfolio)
	if err != nil {
		return nil, err
	}

	var refs []models.EntityRef
	summary := &models.PortfolioSummary{}
	for _, t := range []models.EntityType{models.EntityTypeProperty, models.EntityTypeTenant} {
		list, err := s.snapshots.ListEntities(ctx, t)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, s.wrapDependencyError(err, "failed to enumerate portfolio entities")
		}
		if t == models.EntityTypeProperty {
			summary.TotalProperties = len(list)
		} else {
			summary.TotalTenants = len(list)
		}
		refs = append(refs, list...)
	}

	summaries, failed := s.assessEntities(ctx, refs)

	for _, es := range summaries {
		if es.EntityType == models.EntityTypeProperty {
			summary.AssessedProperties++
		} else {
			summary.AssessedTenants++
		}
	}
	for _, f := range failed {
		s.metrics.RecordPortfolioFailure(string(f.EntityType))
		summary.Failed = append(summary.Failed, fmt.Sprintf("%s:%s", f.EntityType, f.EntityID))
	}
	sort.Strings(summary.Failed)

	state := s.scoring.Current()
	result := domainService.NewPortfolioAggregator(state.Policy, state.Weights.For(assessmentType)).Aggregate(summaries)
	summary.CriticalRisks = result.CriticalCount
	summary.HighRisks = result.HighCount

	now := s.clock().UTC()
	assessment := &models.RiskAssessment{
		ID:                   s.newID(),
		EntityType:           models.EntityTypePortfolio,
		EntityID:             constants.PortfolioEntityID,
		EntityName:           portfolioEntityName,
		AssessmentType:       assessmentType,
		OverallScore:         result.OverallScore,
		RiskLevel:            result.RiskLevel,
		Confidence:           result.Confidence,
		Factors:              result.Factors,
		MitigationStrategies: result.Strategies,
		AssessmentDate:       now,
		NextAssessmentDate:   now.Add(s.settings.NextAssessmentInterval),
		DataQuality:          result.DataQuality,
		NeedsReview:          result.Total == 0,
		PreviousScore:        s.previousScore(ctx, models.EntityTypePortfolio, constants.PortfolioEntityID),
		Portfolio:            summary,
	}
	if result.Total == 0 {
		assessment.DataQuality = 0
	}

	// The roll-up is persisted even when the caller went away mid-run.
	if err := s.persist(context.WithoutCancel(ctx), assessment); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("portfolio.entities", len(refs)),
		attribute.Int("portfolio.failed", len(failed)),
		attribute.Float64("risk.score", assessment.OverallScore),
	)
	s.metrics.RecordAssessment(string(models.EntityTypePortfolio), string(assessment.RiskLevel), assessment.NeedsReview, s.clock().Sub(start))
	s.logger.Info(ctx, "Portfolio assessment completed",
		logger.String("assessment_id", assessment.ID),
		logger.Int("entities", len(refs)),
		logger.Int("failed", len(failed)),
		logger.Float64("overall_score", assessment.OverallScore),
		logger.Duration("elapsed", s.clock().Sub(start)),
	)
	return assessment, nil
}

// assessEntities fans entity assessments out with bounded concurrency. Each
// task gets its own timeout and outlives caller cancellation; once ctx is done
// no further tasks start and the remaining entities count as failed.
func (s *assessmentAppServiceImpl) assessEntities(ctx context.Context, refs []models.EntityRef) ([]models.EntityRiskSummary, []models.EntityRef) {
	var mu sync.Mutex
	var failed []models.EntityRef
	skipped := 0
	summaries := make([]models.EntityRiskSummary, 0, len(refs))

	var g errgroup.Group
	g.SetLimit(s.settings.PortfolioConcurrency)

	for i, ref := range refs {
		if ctx.Err() != nil {
			mu.Lock()
			failed = append(failed, refs[i:]...)
			skipped += len(refs) - i
			mu.Unlock()
			break
		}

		ref := ref
		g.Go(func() error {
			// g.Go may have waited for a free slot past cancellation.
			if ctx.Err() != nil {
				mu.Lock()
				failed = append(failed, ref)
				skipped++
				mu.Unlock()
				return nil
			}

			taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.settings.EntityTimeout)
			defer cancel()

			a, err := s.assess(taskCtx, ref.EntityType, ref.EntityID, models.AssessmentTypePortfolio)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Warn(ctx, "Entity assessment failed in portfolio run",
					logger.String("entity_type", string(ref.EntityType)),
					logger.String("entity_id", ref.EntityID),
					logger.Error(err),
				)
				failed = append(failed, ref)
				return nil
			}
			summaries = append(summaries, models.EntityRiskSummary{
				EntityType: a.EntityType,
				EntityID:   a.EntityID,
				EntityName: a.EntityName,
				RiskScore:  a.OverallScore,
				RiskLevel:  a.RiskLevel,
			})
			return nil
		})
	}
	_ = g.Wait()

	if skipped > 0 {
		s.logger.Warn(ctx, "Portfolio assessment cancelled, skipped remaining entities",
			logger.Int("skipped", skipped),
		)
	}
	return summaries, failed
}

func (s *assessmentAppServiceImpl) persist(ctx context.Context, assessment *models.RiskAssessment) error {
	if err := s.assessments.Save(ctx, assessment); err != nil {
		s.logger.Error(ctx, "Failed to save assessment", err,
			logger.String("entity_type", string(assessment.EntityType)),
			logger.String("entity_id", assessment.EntityID),
		)
		return s.wrapDependencyError(err, "failed to save assessment")
	}

	if s.orchestrator != nil {
		if _, err := s.orchestrator.Process(ctx, assessment); err != nil {
			s.logger.Warn(ctx, "Alerts not raised for assessment",
				logger.String("assessment_id", assessment.ID),
				logger.Error(err),
			)
		}
	}
	return nil
}

func (s *assessmentAppServiceImpl) previousScore(ctx context.Context, entityType models.EntityType, entityID string) *float64 {
	prev, err := s.assessments.LatestByEntity(ctx, entityType, entityID)
	if err != nil {
		s.logger.Warn(ctx, "Previous assessment unavailable",
			logger.String("entity_type", string(entityType)),
			logger.String("entity_id", entityID),
			logger.Error(err),
		)
		return nil
	}
	if prev == nil {
		return nil
	}
	score := prev.OverallScore
	return &score
}

func (s *assessmentAppServiceImpl) wrapDependencyError(err error, msg string) error {
	if _, ok := errors.AsAppError(err); ok {
		return err
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return errors.ErrUnavailable(msg).WithCause(err)
	}
	return errors.ErrInternal(msg).WithCause(err)
}

func (s *assessmentAppServiceImpl) GetAssessment(ctx context.Context, id string) (*models.RiskAssessment, error) {
	if !utils.ValidateNotEmpty(id) {
		return nil, errors.ErrValidation("assessment id is required")
	}
	return s.assessments.FindByID(ctx, id)
}

func validateHistoryQuery(entityType models.EntityType, entityID string) error {
	if !entityType.Valid() {
		return errors.ErrValidation(fmt.Sprintf("unknown entity type %q", entityType))
	}
	if !utils.ValidateEntityID(entityID) {
		return errors.ErrValidation("malformed entity id").WithMetadata("entity_id", entityID)
	}
	return nil
}

func (s *assessmentAppServiceImpl) GetEntityRiskAssessments(ctx context.Context, entityType models.EntityType, entityID string, opts models.QueryOptions) ([]*models.RiskAssessment, error) {
	if err := validateHistoryQuery(entityType, entityID); err != nil {
		return nil, err
	}
	if opts.AssessmentType != "" && !opts.AssessmentType.Valid() {
		return nil, errors.ErrValidation(fmt.Sprintf("unknown assessment type %q", opts.AssessmentType))
	}
	if opts.Limit <= 0 {
		opts.Limit = constants.DefaultHistoryLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	return s.assessments.ListByEntity(ctx, entityType, entityID, opts)
}

func (s *assessmentAppServiceImpl) GetRiskTrends(ctx context.Context, entityType models.EntityType, entityID string, opts models.QueryOptions) (*models.TrendResult, error) {
	if err := validateHistoryQuery(entityType, entityID); err != nil {
		return nil, err
	}
	opts.Limit = constants.TrendHistoryLimit
	opts.Offset = 0

	history, err := s.assessments.ListByEntity(ctx, entityType, entityID, opts)
	if err != nil {
		return nil, err
	}

	// History is newest first; the analyzer wants oldest first.
	points := make([]domainService.TrendPoint, len(history))
	for i, a := range history {
		points[len(history)-1-i] = domainService.TrendPoint{Score: a.OverallScore, Date: a.AssessmentDate}
	}
	result := domainService.AnalyzeTrend(points)
	return &result, nil
}
