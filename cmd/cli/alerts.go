package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/turtacn/riskengine/internal/app"
	"github.com/turtacn/riskengine/internal/domain/models"
)

func newSweepCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one escalation and reminder pass over active alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, opts, func(ctx context.Context, c *app.Container) error {
				res, err := c.Alerts.ProcessAlertQueue(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
}

// newAlertCommand groups the alert lifecycle operations.
func newAlertCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alert",
		Short: "Inspect and act on alerts",
	}

	var filter struct {
		entityType, entityID, status string
		limit                        int
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, opts, func(ctx context.Context, c *app.Container) error {
				alerts, err := c.Alerts.ListAlerts(ctx, models.AlertFilter{
					EntityType: models.EntityType(filter.entityType),
					EntityID:   filter.entityID,
					Status:     models.AlertStatus(filter.status),
					Limit:      filter.limit,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), alerts)
			})
		},
	}
	list.Flags().StringVar(&filter.entityType, "type", "", "filter by entity type")
	list.Flags().StringVar(&filter.entityID, "id", "", "filter by entity id")
	list.Flags().StringVar(&filter.status, "status", "", "filter by status (active, acknowledged, resolved)")
	list.Flags().IntVar(&filter.limit, "limit", 0, "maximum number of alerts")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Summarize alerts by status, priority and category",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, opts, func(ctx context.Context, c *app.Container) error {
				s, err := c.Alerts.GetAlertStatistics(ctx, models.AlertFilter{})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), s)
			})
		},
	}

	var user, notes string
	ack := &cobra.Command{
		Use:   "ack ALERT_ID",
		Short: "Acknowledge an active alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, opts, func(ctx context.Context, c *app.Container) error {
				a, err := c.Alerts.AcknowledgeAlert(ctx, args[0], user, notes)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), a)
			})
		},
	}
	ack.Flags().StringVar(&user, "user", "", "acting user id")
	ack.Flags().StringVar(&notes, "notes", "", "acknowledgment notes")
	_ = ack.MarkFlagRequired("user")

	var resolution string
	resolve := &cobra.Command{
		Use:   "resolve ALERT_ID",
		Short: "Resolve an alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, opts, func(ctx context.Context, c *app.Container) error {
				a, err := c.Alerts.ResolveAlert(ctx, args[0], user, resolution)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), a)
			})
		},
	}
	resolve.Flags().StringVar(&user, "user", "", "acting user id")
	resolve.Flags().StringVar(&resolution, "resolution", "", "how the alert was resolved")
	_ = resolve.MarkFlagRequired("user")
	_ = resolve.MarkFlagRequired("resolution")

	escalate := &cobra.Command{
		Use:   "escalate ALERT_ID",
		Short: "Escalate an overdue alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, opts, func(ctx context.Context, c *app.Container) error {
				res, err := c.Alerts.EscalateAlert(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}

	cmd.AddCommand(list, stats, ack, resolve, escalate)
	return cmd
}
