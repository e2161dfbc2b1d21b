package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/turtacn/riskengine/internal/app"
	"github.com/turtacn/riskengine/internal/domain/models"
)

func newAssessCommand(opts *options) *cobra.Command {
	var entityType, entityID, assessmentType string
	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Assess a single property or tenant",
		Example: `  riskctl assess --type property --id prop-1
  riskctl assess --type tenant --id ten-7 --assessment-type churn`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, opts, func(ctx context.Context, c *app.Container) error {
				a, err := c.Assessments.Assess(ctx, models.EntityType(entityType), entityID, models.AssessmentType(assessmentType))
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), a)
			})
		},
	}
	cmd.Flags().StringVar(&entityType, "type", "", "entity type (property or tenant)")
	cmd.Flags().StringVar(&entityID, "id", "", "entity id")
	cmd.Flags().StringVar(&assessmentType, "assessment-type", "", "assessment type (default comprehensive)")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newPortfolioCommand(opts *options) *cobra.Command {
	var assessmentType string
	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Assess every entity and roll the results up",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, opts, func(ctx context.Context, c *app.Container) error {
				a, err := c.Assessments.AssessPortfolio(ctx, models.AssessmentType(assessmentType))
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), a)
			})
		},
	}
	cmd.Flags().StringVar(&assessmentType, "assessment-type", "", "assessment type (default portfolio)")
	return cmd
}

func newTrendCommand(opts *options) *cobra.Command {
	var entityType, entityID string
	var limit int
	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Show the risk trend of an entity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, opts, func(ctx context.Context, c *app.Container) error {
				trend, err := c.Assessments.GetRiskTrends(ctx, models.EntityType(entityType), entityID,
					models.QueryOptions{Limit: limit})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), trend)
			})
		},
	}
	cmd.Flags().StringVar(&entityType, "type", "", "entity type (property, tenant or portfolio)")
	cmd.Flags().StringVar(&entityID, "id", "", "entity id")
	cmd.Flags().IntVar(&limit, "limit", 0, "number of assessments to analyze")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
