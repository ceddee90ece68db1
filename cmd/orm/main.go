package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/alqosama35/orm"
	"github.com/alqosama35/orm/internal/config"
	"github.com/alqosama35/orm/internal/logging"
	"github.com/alqosama35/orm/qb"
)

var (
	version = "dev"
	commit  = "none"
)

var (
	cfgFile  string
	logLevel string
	logFile  string
	wheres   []string
	likes    []string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "orm",
		Short:         "Inspect a database through the orm connection manager",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Apply(logLevel, logFile)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "YAML config file")
	pf.StringVar(&logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	pf.StringVar(&logFile, "log-file", "", "Also write logs to this rotating file")
	pf.String("driver", orm.DefaultDriver, "Database driver (mysql, sqlite, postgres)")
	pf.String("host", orm.DefaultHost, "Database host")
	pf.Int("port", 0, "Database port (driver default when 0)")
	pf.String("user", orm.DefaultUser, "Database user")
	pf.String("password", "", "Database password")
	pf.String("database", orm.DefaultDatabase, "Database name, or file path for sqlite")
	pf.String("charset", orm.DefaultCharset, "Connection charset")
	pf.Duration("retry-delay", orm.DefaultRetryDelay, "Delay between connection attempts")
	pf.Duration("connect-timeout", orm.DefaultConnectTimeout, "Timeout of each connection attempt")
	pf.Duration("statement-timeout", 0, "Timeout of each statement (0 disables)")

	countCmd := &cobra.Command{
		Use:   "count <table>",
		Short: "Count the rows of a table",
		Args:  cobra.ExactArgs(1),
		RunE:  runCount,
	}
	countCmd.Flags().StringArrayVarP(&wheres, "where", "w", nil, "Filter as column=value (repeatable)")
	countCmd.Flags().StringArrayVar(&likes, "like", nil, "Filter as column=text, matching text anywhere in the column (repeatable)")

	sumCmd := &cobra.Command{
		Use:   "sum <table> <column>",
		Short: "Sum a numeric column",
		Args:  cobra.ExactArgs(2),
		RunE:  runSum,
	}
	sumCmd.Flags().StringArrayVarP(&wheres, "where", "w", nil, "Filter as column=value (repeatable)")
	sumCmd.Flags().StringArrayVar(&likes, "like", nil, "Filter as column=text, matching text anywhere in the column (repeatable)")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "ping",
			Short: "Connect (with retry) and ping the database",
			Args:  cobra.NoArgs,
			RunE:  runPing,
		},
		countCmd,
		sumCmd,
		&cobra.Command{
			Use:   "escape <value>",
			Short: "Print value escaped for a quoted literal in the configured dialect",
			Args:  cobra.ExactArgs(1),
			RunE:  runEscape,
		},
		&cobra.Command{
			Use:   "version",
			Short: "Show version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("orm %s (commit: %s)\n", version, commit)
			},
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func connect(cmd *cobra.Command) (*orm.Manager, error) {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	return orm.Connect(cmd.Context(), cfg)
}

func runPing(cmd *cobra.Command, args []string) error {
	m, err := connect(cmd)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Ping(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "ok (%s)\n", m.Dialect())
	return nil
}

func runCount(cmd *cobra.Command, args []string) error {
	m, err := connect(cmd)
	if err != nil {
		return err
	}
	defer m.Close()

	q, err := filtered(m, args[0])
	if err != nil {
		return err
	}

	n, err := q.Count(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), n)
	return nil
}

func runSum(cmd *cobra.Command, args []string) error {
	m, err := connect(cmd)
	if err != nil {
		return err
	}
	defer m.Close()

	q, err := filtered(m, args[0])
	if err != nil {
		return err
	}

	total, err := q.Sum(cmd.Context(), args[1])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), total)
	return nil
}

func runEscape(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	d, err := orm.DialectFor(cfg.Driver)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), d.Escape(args[0]))
	return nil
}

// filtered starts a query on table with the --where and --like filters
// applied. Values are bound as strings.
func filtered(m *orm.Manager, table string) (*orm.Builder, error) {
	var preds []qb.Predicate
	for _, w := range wheres {
		col, val, ok := strings.Cut(w, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --where %q, expected column=value", w)
		}
		preds = append(preds, qb.Eq(strings.TrimSpace(col), val))
	}
	for _, l := range likes {
		col, text, ok := strings.Cut(l, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --like %q, expected column=text", l)
		}
		preds = append(preds, qb.Like(strings.TrimSpace(col), text))
	}

	q := orm.NewModel(m, orm.NewSchema(table)).Query().WhereExpr(preds...)
	return q, q.Err()
}
