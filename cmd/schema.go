package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linkshare/linkshare/backend/session-store/internal/config"
	"github.com/linkshare/linkshare/backend/session-store/internal/database"
	"github.com/linkshare/linkshare/backend/session-store/internal/schema"
)

// schemaRunner is implemented by *schema.Provisioner.
type schemaRunner interface {
	Apply(ctx context.Context) (*schema.Report, error)
	Verify(ctx context.Context) (*schema.Report, error)
}

func newProvisionCommand() *cli.Command {
	return &cli.Command{
		Name:  "provision",
		Usage: "Create the session collections and indexes; safe to re-run",
		Action: func(c *cli.Context) error {
			client, prov, err := openProvisioner(c.Context, configFrom(c))
			if err != nil {
				return cli.Exit(color.RedString("%s", err), ExitFailure)
			}
			defer func() { _ = client.Disconnect(context.Background()) }()
			return runProvision(c.Context, prov, c.App.Writer)
		},
	}
}

func newVerifyCommand() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "Compare the database with the declared layout without changing it",
		Action: func(c *cli.Context) error {
			client, prov, err := openProvisioner(c.Context, configFrom(c))
			if err != nil {
				return cli.Exit(color.RedString("%s", err), ExitFailure)
			}
			defer func() { _ = client.Disconnect(context.Background()) }()
			return runVerify(c.Context, prov, c.App.Writer)
		},
	}
}

func openProvisioner(ctx context.Context, cfg *config.Config) (*mongo.Client, *schema.Provisioner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, cfg.MongoDB.ConnectAttempts)
	if err != nil {
		return nil, nil, err
	}
	db := client.Database(cfg.MongoDB.Database)
	prov, err := schema.NewProvisioner(schema.NewMongoAdmin(db), schema.Default().WithDatabase(cfg.MongoDB.Database))
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}
	return client, prov, nil
}

func runProvision(ctx context.Context, r schemaRunner, w io.Writer) error {
	report, err := r.Apply(ctx)
	if report != nil {
		printReport(w, report)
	}
	if err != nil {
		return cli.Exit(color.RedString("provisioning failed: %s", err), ExitFailure)
	}
	color.New(color.FgGreen).Fprintf(w, "database %s provisioned, %d change(s)\n", report.Database, report.Changed())
	return nil
}

func runVerify(ctx context.Context, r schemaRunner, w io.Writer) error {
	report, err := r.Verify(ctx)
	if err != nil {
		return cli.Exit(color.RedString("verify failed: %s", err), ExitFailure)
	}
	printReport(w, report)
	if !report.OK() {
		return cli.Exit(color.YellowString("database %s does not match the declared layout", report.Database), ExitDrift)
	}
	color.New(color.FgGreen).Fprintf(w, "database %s matches the declared layout\n", report.Database)
	return nil
}

func printReport(w io.Writer, r *schema.Report) {
	fmt.Fprintf(w, "database %s\n", r.Database)
	for _, e := range r.Entries {
		c := color.New(color.Reset)
		switch e.Action {
		case schema.ActionCreated, schema.ActionUpdated:
			c = color.New(color.FgGreen)
		case schema.ActionMissing:
			c = color.New(color.FgYellow)
		case schema.ActionDrifted:
			c = color.New(color.FgRed)
		}
		c.Fprintf(w, "  %s\n", e)
	}
}
