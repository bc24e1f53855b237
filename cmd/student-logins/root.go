package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/padhaiwithai/student-logins/internal/config"
	constants "github.com/padhaiwithai/student-logins/internal/constants"
	"github.com/padhaiwithai/student-logins/internal/logger"
	"github.com/padhaiwithai/student-logins/pkg/logins"
	"github.com/padhaiwithai/student-logins/pkg/storage"
	"github.com/padhaiwithai/student-logins/pkg/storage/postgres"
	"github.com/padhaiwithai/student-logins/pkg/storage/sqlite"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath    string
	driver        string
	dsn           string
	hashPasswords bool
	logLevel      string

	cfg   *config.Config
	store storage.Store
	svc   *logins.Service
}

func newRootCmd() (*cobra.Command, *rootOptions) {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "student-logins",
		Short: "Provision student login credentials",
		Long: `student-logins assigns default passwords (roll_number@123) to students
that have none, creates students, and reports who can log in.

Students that already have a password are never changed.

Run without a subcommand to print the status report and then set default
passwords for every student without a login.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.svc.Run(cmd.Context())
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "student-logins.yaml", "path to a YAML config file")
	flags.StringVar(&opts.driver, "driver", "", "storage driver: postgres or sqlite")
	flags.StringVar(&opts.dsn, "dsn", "", "postgres connection URL or sqlite file path")
	flags.BoolVar(&opts.hashPasswords, "hash-passwords", false, "store bcrypt hashes instead of plain passwords")
	flags.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")

	cmd.AddCommand(
		newRunCmd(opts),
		newStatusCmd(opts),
		newSetAllCmd(opts),
		newSetSchoolCmd(opts),
		newCreateCmd(opts),
		newBulkCreateCmd(opts),
	)
	return cmd, opts
}

// runRoot executes cmd and closes the store opened by setup, including when
// the command fails.
func runRoot(ctx context.Context, cmd *cobra.Command, opts *rootOptions) (err error) {
	defer func() {
		err = errors.Join(err, opts.teardown())
	}()
	return cmd.ExecuteContext(ctx)
}

func (o *rootOptions) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("driver") {
		cfg.Database.Driver = o.driver
	}
	if flags.Changed("dsn") {
		if cfg.Database.Driver == constants.DriverSQLite {
			cfg.Database.Path = o.dsn
		} else {
			cfg.Database.URL = o.dsn
		}
	}
	if flags.Changed("hash-passwords") {
		cfg.Logins.HashPasswords = o.hashPasswords
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = o.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := logger.Configure(logger.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: cmd.ErrOrStderr()}); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	o.cfg = cfg
	o.store = store
	o.svc = logins.NewService(store,
		logins.WithOutput(cmd.OutOrStdout()),
		logins.WithEncoder(newEncoder(cfg)),
	)
	return nil
}

func (o *rootOptions) teardown() error {
	if o.store == nil {
		return nil
	}
	err := o.store.Close()
	o.store = nil
	return err
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Database.Driver {
	case constants.DriverSQLite:
		return sqlite.Open(ctx, cfg.Database.Path)
	case constants.DriverPostgres:
		return postgres.Open(ctx, cfg.Database.URL)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

func newEncoder(cfg *config.Config) logins.PasswordEncoder {
	if cfg.Logins.HashPasswords {
		return logins.Bcrypt{Cost: cfg.Logins.BcryptCost}
	}
	return logins.Plain{}
}
