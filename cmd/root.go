package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"dynai/internal/app"
	"dynai/internal/config"
)

var cfgFile string

// openApp is the instance created by PersistentPreRunE, closed after Execute.
var openApp *app.App

var rootCmd = &cobra.Command{
	Use:   "dynai",
	Short: "Dynai similarity client",
	Long: `Dynai talks to a remote message-similarity service. It submits messages,
teaches the service categories through feedback, queries similar messages and
predicts categories, keeping a local view of the session that survives between
invocations.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		// If no subcommand is given, print help.
		cmd.Help()
	},
	// PersistentPreRunE runs before any subcommand's RunE
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" || cmd == cmd.Root() {
			return nil
		}

		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}

		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := setupLogging(cfg); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		appInstance, err := app.NewApp(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize app: %w", err)
		}
		openApp = appInstance

		// Store the app instance in the command's context
		ctx := context.WithValue(cmd.Context(), appKey, appInstance)
		cmd.SetContext(ctx)
		return nil
	},
}

func setupLogging(cfg *config.Config) error {
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("invalid log.level %q: %w", cfg.Log.Level, err)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)
	if strings.EqualFold(cfg.Log.Format, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// run executes the root command with args and releases the app afterwards.
// Session state is saved even when the command failed, since an operation
// may have changed local state before its remote call did.
func run(ctx context.Context, args []string) error {
	defer closeApp()
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	if openApp != nil {
		if perr := openApp.Persist(ctx); perr != nil {
			return errors.Join(err, fmt.Errorf("failed to save session state: %w", perr))
		}
	}
	return err
}

func closeApp() {
	if openApp != nil {
		openApp.Close()
		openApp = nil
	}
}

func Execute() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Define a custom type for the context key to avoid collisions.
type contextKey string

const appKey contextKey = "app"

// Helper function to retrieve the app instance from context
func GetAppFromContext(ctx context.Context) (*app.App, error) {
	appInstance, ok := ctx.Value(appKey).(*app.App)
	if !ok || appInstance == nil {
		// This should not happen if PersistentPreRunE ran successfully
		return nil, fmt.Errorf("application instance not found in context")
	}
	return appInstance, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./config.yaml or $HOME/.dynai/config.yaml)")

	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check state store connectivity and service readiness",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		appInstance, err := GetAppFromContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to get app instance: %w", err)
		}

		fmt.Fprintf(out, "Checking %s state store...\n", appInstance.Config.State.Driver)
		if err := appInstance.StateStore.Ping(ctx); err != nil {
			return fmt.Errorf("state store ping failed: %w", err)
		}
		fmt.Fprintln(out, "State store connection successful.")

		fmt.Fprintf(out, "Checking predictor at %s...\n", appInstance.Config.Predictor.Endpoint)
		session, err := appInstance.Session(ctx)
		if err != nil {
			return err
		}
		ready, err := session.IsReady(ctx)
		if err != nil {
			return fmt.Errorf("predictor check failed: %w", err)
		}
		fmt.Fprintf(out, "Predictor ready: %s\n", verdict(ready))
		return nil
	},
}
