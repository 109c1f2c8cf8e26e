package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "clinic",
		Short:         "Clinic portal API: appointments, medical records and patient education",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(seedCmd())
	root.AddCommand(notifyWorkerCmd())
	root.AddCommand(remindCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := bootstrap(cmd.Context(), "migrate")
			if err != nil {
				return err
			}
			defer app.close()
			return app.migrate()
		},
	}
}

func seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo users, doctor profiles and articles",
		Long:  "Load fixtures from a YAML file, or the built-in demo set when --file is omitted. Records that already exist are skipped.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd.Context(), file)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "path to a fixtures YAML file")
	return cmd
}

func notifyWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notify-worker",
		Short: "Consume appointment notices from Kafka and send email",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runNotifyWorker(cmd.Context())
		},
	}
}

func remindCmd() *cobra.Command {
	var loop bool
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Send reminders for upcoming appointments",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReminders(cmd.Context(), loop)
		},
	}
	cmd.Flags().BoolVar(&loop, "loop", false, "keep running every REMINDER_INTERVAL instead of a single pass")
	return cmd
}
