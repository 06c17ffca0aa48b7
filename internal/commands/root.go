package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/balkashynov/punch/internal/api"
	"github.com/balkashynov/punch/internal/config"
	"github.com/balkashynov/punch/internal/db"
	"github.com/balkashynov/punch/internal/logging"
	"github.com/balkashynov/punch/internal/timesheet"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configPath   string
	employeeFlag string
	remoteFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "punch",
	Short: "Attendance clock and timesheet",
	Long: `punch records check-ins and check-outs and turns them into worked time.
Run it against a local database or a remote attendance API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// errReported means the command already printed what went wrong
var errReported = errors.New("command failed")

// app is everything a command needs, opened from the config
type app struct {
	cfg    *config.Config
	logger *log.Logger
	loc    *time.Location

	// local is nil in remote mode
	local  *db.Store
	remote *api.Client
	svc    *timesheet.Service
}

func openApp() (*app, error) {
	path := configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if employeeFlag != "" {
		cfg.EmployeeID = employeeFlag
	}
	if remoteFlag {
		cfg.Store.Mode = config.ModeRemote
	}

	logger := logging.New(cfg.LogLevel, nil)
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	validator, err := newValidator(cfg, loc)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, loc: loc}
	var store timesheet.EventStore
	if cfg.Remote() {
		timeout, err := cfg.APITimeout()
		if err != nil {
			return nil, err
		}
		a.remote = api.NewClient(cfg.API.BaseURL, loc, timeout, logger)
		store = a.remote
		logger.Debug("using remote store", "url", cfg.API.BaseURL)
	} else {
		dsn, err := cfg.DatabasePath()
		if err != nil {
			return nil, err
		}
		a.local, err = db.Open(cfg.Database.Driver, dsn, loc)
		if err != nil {
			return nil, err
		}
		store = a.local
		logger.Debug("using local store", "driver", cfg.Database.Driver)
	}

	a.svc = timesheet.NewService(store,
		timesheet.WithLogger(logger),
		timesheet.WithValidator(validator),
	)
	return a, nil
}

func newValidator(cfg *config.Config, loc *time.Location) (timesheet.Validator, error) {
	v := timesheet.DefaultValidator(loc)
	var err error
	if v.MinSession, err = cfg.MinSession(); err != nil {
		return v, err
	}
	if v.MaxSession, err = cfg.MaxSession(); err != nil {
		return v, err
	}
	return v, nil
}

func (a *app) Close() {
	if a.local != nil {
		if err := a.local.Close(); err != nil {
			a.logger.Warn("closing database", "err", err)
		}
	}
}

// employee resolves who the command acts for. Local stores accept a name or
// id; remote stores take the configured id as is.
func (a *app) employee(ctx context.Context) (id, name string, err error) {
	key := a.cfg.EmployeeID
	if key == "" {
		return "", "", fmt.Errorf("%w: set employee_id in the config, PUNCH_EMPLOYEE_ID or --employee", timesheet.ErrNoEmployee)
	}
	if a.local == nil {
		return key, key, nil
	}
	e, err := a.local.ResolveEmployee(ctx, key)
	if err != nil {
		return "", "", err
	}
	return e.ID, e.Name, nil
}

// requireLocal is for commands that manage the database directly
func (a *app) requireLocal() (*db.Store, error) {
	if a.local == nil {
		return nil, errors.New("this command needs the local store (store.mode = \"local\")")
	}
	return a.local, nil
}

// withApp opens the app around fn, like withDB does for plain database commands
func withApp(fn func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return report(fn(cmd, args, a))
	}
}

// report prints rule violations one per line
func report(err error) error {
	var verr *timesheet.ValidationError
	if errors.As(err, &verr) {
		fmt.Println("❌ Entry rejected:")
		for _, msg := range verr.Messages() {
			fmt.Printf("   • %s\n", msg)
		}
		return errReported
	}
	return err
}

// SetVersion sets the version information
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the root command; ctx is cancelled on SIGINT/SIGTERM
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if errors.Is(err, errReported) {
		return fmt.Errorf("entry rejected")
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.punch/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&employeeFlag, "employee", "e", "", "employee id or name to act for")
	rootCmd.PersistentFlags().BoolVar(&remoteFlag, "remote", false, "use the remote attendance API")

	rootCmd.AddCommand(inCmd)
	rootCmd.AddCommand(outCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(dayCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(weekCmd)
	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(employeeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.SetHelpCommand(helpCmd)
	rootCmd.AddCommand(versionCmd)
}
