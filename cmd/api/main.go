package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/app"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/config"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/db"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/logging"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := newServeCmd()
	root := &cobra.Command{
		Use:           "api",
		Short:         "Student freelance marketplace API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.Flags().AddFlagSet(serve.Flags())
	root.AddCommand(serve, newMigrateCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var opts app.Options
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and websocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app.New(opts)
			if err := a.Err(); err != nil {
				return err
			}
			a.Run()
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.AutoMigrate, "auto-migrate", true, "migrate the schema before serving")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			log, err := logging.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer log.Sync()

			gdb, err := db.Connect(cfg.DBDSN, log)
			if err != nil {
				return err
			}
			if err := db.Migrate(gdb); err != nil {
				return err
			}
			log.Info("schema migrated")
			return nil
		},
	}
}
