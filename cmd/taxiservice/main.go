package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/saltyorg/taxiservice/internal/auth"
	"github.com/saltyorg/taxiservice/internal/config"
	"github.com/saltyorg/taxiservice/internal/database"
	"github.com/saltyorg/taxiservice/internal/forms"
	"github.com/saltyorg/taxiservice/internal/logging"
	"github.com/saltyorg/taxiservice/internal/maintenance"
	"github.com/saltyorg/taxiservice/internal/web"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// CLI flags
var (
	port        int
	bind        string
	allowSubnet string
	dbPath      string
	verbosity   int
	dev         bool

	timeouts config.ServerTimeouts
)

// createsuperuser flags
var (
	suUsername  string
	suPassword  string
	suFirstName string
	suLastName  string
)

func main() {
	env := config.LoadEnv()
	timeouts = config.DefaultServerTimeouts()

	rootCmd := &cobra.Command{
		Use:   "taxiservice",
		Short: "Taxi Service - manufacturers, cars and drivers",
		Long:  `Taxi Service is a web application for managing car manufacturers, cars and the drivers assigned to them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(env)
		},
	}

	// Flags default to the environment so flags > env > defaults
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", env.DBPath, "SQLite database path (or set DB_PATH env var)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v debug, -vv trace)")

	rootCmd.Flags().IntVarP(&port, "port", "p", env.Port, "HTTP server port (or set PORT env var)")
	rootCmd.Flags().StringVarP(&bind, "bind", "b", env.Bind, "IP address to bind to (e.g., 127.0.0.1, 0.0.0.0)")
	rootCmd.Flags().StringVarP(&allowSubnet, "allow-subnet", "a", env.AllowSubnet, "CIDR subnet allowed to connect (e.g., 192.168.1.0/24)")
	rootCmd.Flags().BoolVar(&dev, "dev", env.Dev, "Development mode, cookies are not marked Secure")

	// Advanced timeout flags
	rootCmd.Flags().DurationVar(&timeouts.Read, "read-timeout", timeouts.Read, "Timeout for reading a request")
	rootCmd.Flags().DurationVar(&timeouts.Write, "write-timeout", timeouts.Write, "Timeout for writing a response")
	rootCmd.Flags().DurationVar(&timeouts.Idle, "idle-timeout", timeouts.Idle, "Keep-alive idle timeout")
	rootCmd.Flags().DurationVar(&timeouts.Request, "request-timeout", timeouts.Request, "Timeout for handling a request")
	rootCmd.Flags().DurationVar(&timeouts.Shutdown, "shutdown-timeout", timeouts.Shutdown, "Grace period for in-flight requests on shutdown")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(env)
		},
	})

	createSuperuserCmd := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create a staff account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return createSuperuser(env)
		},
	}
	createSuperuserCmd.Flags().StringVar(&suUsername, "username", "", "Username (required)")
	createSuperuserCmd.Flags().StringVar(&suPassword, "password", "", "Password (required)")
	createSuperuserCmd.Flags().StringVar(&suFirstName, "first-name", "", "First name")
	createSuperuserCmd.Flags().StringVar(&suLastName, "last-name", "", "Last name")
	_ = createSuperuserCmd.MarkFlagRequired("username")
	_ = createSuperuserCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(createSuperuserCmd)

	// Version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("taxiservice %s (commit: %s, built: %s)\n", version, commit, date)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openDB opens and migrates the database
func openDB(ctx context.Context) (*database.DB, error) {
	db, err := database.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		return nil, multierr.Append(fmt.Errorf("failed to run database migrations: %w", err), db.Close())
	}
	return db, nil
}

func migrate(env config.Env) (err error) {
	logging.ApplyConsole(logging.LevelForVerbosity(verbosity, env.LogLevel))
	ctx := context.Background()

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, db.Close()) }()

	v, err := db.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	log.Info().Int64("version", v).Str("database", dbPath).Msg("Database is up to date")
	return nil
}

func createSuperuser(env config.Env) (err error) {
	logging.ApplyConsole(logging.LevelForVerbosity(verbosity, env.LogLevel))
	ctx := context.Background()

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, db.Close()) }()

	form := forms.ParseDriverCreationForm(url.Values{
		"username":   {suUsername},
		"password1":  {suPassword},
		"password2":  {suPassword},
		"first_name": {suFirstName},
		"last_name":  {suLastName},
	}).LicenseOptional()
	ok, err := form.Validate(ctx, db)
	if err != nil {
		return err
	}
	if !ok {
		return formError(form.Errors)
	}

	driver := form.Driver()
	driver.IsStaff = true
	if err := auth.NewAuthService(db, 0).CreateDriver(ctx, driver, form.Password1); err != nil {
		return err
	}
	if err := db.InitializeDefaults(ctx); err != nil {
		return err
	}

	log.Info().Str("username", driver.Username).Msg("Staff account created")
	return nil
}

// formError flattens validation messages into one error
func formError(errs forms.Errors) error {
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var msgs []string
	for _, field := range fields {
		for _, msg := range errs[field] {
			msgs = append(msgs, fmt.Sprintf("%s: %s", field, msg))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

func run(env config.Env) (err error) {
	// Validate port
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port: %d", port)
	}

	// Validate bind address if provided
	if bind != "" {
		if ip := net.ParseIP(bind); ip == nil {
			return fmt.Errorf("invalid bind address: %s", bind)
		}
	}

	// Validate and parse allow-subnet if provided
	var allowedNet *net.IPNet
	if allowSubnet != "" {
		_, parsedNet, err := net.ParseCIDR(allowSubnet)
		if err != nil {
			return fmt.Errorf("invalid allow-subnet CIDR: %s", allowSubnet)
		}
		allowedNet = parsedNet
	}

	level := logging.LevelForVerbosity(verbosity, env.LogLevel)
	logging.ApplyConsole(level)

	// Warn if binding to all interfaces without an allow list
	if (bind == "" || bind == "0.0.0.0" || bind == "::") && allowSubnet == "" {
		log.Warn().Msg("Server is accessible from all interfaces without subnet restrictions. Consider using --bind or --allow-subnet for security.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, db.Close()) }()

	if err := db.InitializeDefaults(ctx); err != nil {
		return err
	}
	settings, err := db.GetAllSettings(ctx)
	if err != nil {
		return err
	}
	loader := config.NewLoader(settings)

	logFile := env.LogFile
	if logFile == "" {
		logFile = logging.FilePathForDB(dbPath)
	}
	logging.Apply(level, loader, logFile)

	log.Info().
		Str("version", version).
		Int("port", port).
		Str("bind", bind).
		Str("allow_subnet", allowSubnet).
		Str("database", dbPath).
		Msg("Starting Taxi Service")

	server, err := web.NewServer(db, web.Options{
		Port:            port,
		Bind:            bind,
		AllowedNet:      allowedNet,
		Timeouts:        timeouts,
		Dev:             dev,
		Version:         version,
		SessionDuration: loader.DurationHours(forms.SettingSessionDurationHours, int(auth.DefaultSessionDuration.Hours())),
	})
	if err != nil {
		return err
	}

	maint := maintenance.NewManager(db, maintenance.ConfigFromSettings(loader))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gctx)
	})
	g.Go(func() error {
		return maint.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info().Msg("Taxi Service stopped")
	return nil
}
