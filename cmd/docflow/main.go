// Command docflow is the operator CLI: schema migrations, token minting,
// retention policy seeding and retention reports.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/docflow/internal/auth"
	"github.com/dharsanguruparan/docflow/internal/config"
	"github.com/dharsanguruparan/docflow/internal/database"
	"github.com/dharsanguruparan/docflow/internal/logger"
	"github.com/dharsanguruparan/docflow/internal/model"
	"github.com/dharsanguruparan/docflow/internal/repository"
	"github.com/dharsanguruparan/docflow/internal/service"
)

// operator is the actor recorded in the audit log for CLI writes.
var operator = model.Actor{ID: "docflow-cli", Role: model.RoleHRAdmin}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "docflow: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docflow",
		Short: "DocFlow operator CLI",
		Long: `DocFlow CLI runs maintenance tasks against the configured database: schema
migrations, retention policy seeding and retention reports. It reads the same
configuration as the server (CONFIG_PATH, then environment variables).`,
		SilenceUsage: true,
	}
	cmd.AddCommand(
		newMigrateCmd(),
		newTokenCmd(),
		newPolicyCmd(),
		newRetentionCmd(),
	)
	return cmd
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending migration",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				version, err := database.Migrate(cmd.Context(), cfg.Database.DSN)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
				return nil
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				return database.MigrateDown(cmd.Context(), cfg.Database.DSN)
			},
		},
	)
	return cmd
}

func newTokenCmd() *cobra.Command {
	var subject, role string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token signed with AUTH_JWT_SECRET",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			tok, exp, err := auth.NewManager(cfg.Auth).Issue(model.Actor{ID: subject, Role: model.Role(role)})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", exp.UTC().Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "sub", "", "Actor id (employee id for the employee role)")
	cmd.Flags().StringVar(&role, "role", string(model.RoleHRReviewer), "employee, hr_reviewer or hr_admin")
	_ = cmd.MarkFlagRequired("sub")
	return cmd
}

func newPolicyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Manage retention policies",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Insert the default retention policies that are missing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := openServices(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			n, err := svc.Policies.Seed(model.WithActor(cmd.Context(), operator), service.DefaultPolicies())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %d of %d default policies\n", n, len(service.DefaultPolicies()))
			return nil
		},
	})
	return cmd
}

func newRetentionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retention",
		Short: "Retention reports",
	}
	var employeeID string
	check := &cobra.Command{
		Use:   "check",
		Short: "List approved documents that are past retention and not held",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := openServices(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			return reportEligible(model.WithActor(cmd.Context(), operator), cmd, svc, employeeID)
		},
	}
	check.Flags().StringVar(&employeeID, "employee", "", "Only check this employee's documents")
	cmd.AddCommand(check)
	return cmd
}

func reportEligible(ctx context.Context, cmd *cobra.Command, svc *service.Services, employeeID string) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DOCUMENT\tEMPLOYEE\tTYPE\tELIGIBLE AT")
	found := 0
	f := model.DocumentFilter{EmployeeID: employeeID, Status: model.StatusApproved, Limit: model.MaxListLimit}
	for {
		page, err := svc.Documents.List(ctx, f)
		if err != nil {
			return err
		}
		for _, d := range page.Items {
			if !d.DeletionEligible {
				continue
			}
			found++
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.ID, d.EmployeeID, d.DocumentType, d.RetentionEligibleAt.Format(time.DateOnly))
		}
		if f.Offset+len(page.Items) >= page.Total || len(page.Items) == 0 {
			break
		}
		f.Offset += f.Limit
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%d document(s) eligible for deletion\n", found)
	return nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.Database.DSN == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	return cfg, nil
}

func openServices(ctx context.Context) (*service.Services, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	svc := service.New(service.Deps{
		Stores: repository.NewStores(pool),
		Log:    log.With(zap.String("cmd", "docflow")),
	})
	return svc, pool.Close, nil
}
