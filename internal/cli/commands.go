package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vnpy/datamanager/internal/bootstrap"
	"github.com/vnpy/datamanager/internal/csvcodec"
	"github.com/vnpy/datamanager/internal/usecase/manager"
	"github.com/vnpy/datamanager/pkg/config"
	"github.com/vnpy/datamanager/pkg/logger"
	"github.com/vnpy/datamanager/pkg/migration"
	"github.com/vnpy/datamanager/pkg/postgresql"
	"github.com/vnpy/datamanager/pkg/util"
)

// app holds the wired components for one CLI invocation.
type app struct {
	cfg    *config.Config
	logger logger.Interface
	boot   bootstrap.Bootstrap

	pgClient postgresql.PostgreSQLClient
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "datamanager",
		Short: "Bar data overview and CSV import/export",
		Long: `datamanager maintains an overview of stored candlestick (bar) series and
moves bar data between CSV files and storage. Imports merge into existing
series with imported rows taking precedence on timestamp collisions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	rootCmd.AddCommand(newOverviewCmd(a))
	rootCmd.AddCommand(newImportCmd(a))
	rootCmd.AddCommand(newExportCmd(a))
	rootCmd.AddCommand(newDeleteCmd(a))
	rootCmd.AddCommand(newDownloadCmd(a))
	rootCmd.AddCommand(newMigrateCmd(a))

	return rootCmd
}

// init loads config and wires storage, index and manager. Every invocation
// gets a fresh request id so its log lines correlate.
func (a *app) init(cmd *cobra.Command) error {
	cmd.SetContext(util.WithRequestID(cmd.Context(), ""))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg

	log, err := logger.NewLogger(logger.Level(cfg.App.LogLevel))
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = log

	if cfg.App.StorageDriver == bootstrap.DriverPostgres {
		client, err := postgresql.NewClient(cmd.Context(), cfg.Postgres)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		a.pgClient = client
	}

	boot, err := (&bootstrap.Bootstrap{}).Init(bootstrap.BootstrapConfig{
		Config:   cfg,
		Logger:   a.logger,
		Postgres: a.pgClient,
	})
	if err != nil {
		return err
	}
	a.boot = boot

	return nil
}

func (a *app) close() {
	if a.pgClient != nil {
		a.pgClient.Close()
	}
	if a.logger != nil {
		a.logger.Sync()
	}
}

func newOverviewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "List stored bar series",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := a.boot.Manager.ListOverviews(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("no bar data stored")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SYMBOL\tEXCHANGE\tINTERVAL\tCOUNT\tSTART\tEND")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
					e.Key.Symbol, e.Key.Exchange, e.Key.Interval, e.Count,
					e.Start.Format(csvcodec.DefaultLayout), e.End.Format(csvcodec.DefaultLayout))
			}
			return w.Flush()
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	var mapping csvcodec.ColumnMapping
	var datetimeFormat, timezone string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import bar data from a CSV file",
		Long: `Import bar data from a CSV file into one series.
Example: datamanager import bars.csv --symbol IBM --exchange NYSE --interval 1m`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := keyFromFlags(cmd)
			if err != nil {
				return err
			}
			loc, err := loadLocation(timezone, a.cfg.CSV.Timezone)
			if err != nil {
				return err
			}
			layout := datetimeFormat
			if layout == "" {
				layout = a.cfg.CSV.DatetimeFormat
			}

			summary, err := a.boot.Manager.ImportCSV(cmd.Context(), manager.ImportRequest{
				Path:           args[0],
				Key:            key,
				Mapping:        mapping,
				DatetimeLayout: layout,
				Timezone:       loc,
				Overwrite:      overwrite,
			})
			if err != nil {
				return err
			}

			printImportSummary(summary)
			return nil
		},
	}

	addKeyFlags(cmd)
	cmd.Flags().StringVar(&mapping.Datetime, "datetime-col", "datetime", "CSV column holding the bar datetime")
	cmd.Flags().StringVar(&mapping.Open, "open-col", "open", "CSV column holding the open price")
	cmd.Flags().StringVar(&mapping.High, "high-col", "high", "CSV column holding the high price")
	cmd.Flags().StringVar(&mapping.Low, "low-col", "low", "CSV column holding the low price")
	cmd.Flags().StringVar(&mapping.Close, "close-col", "close", "CSV column holding the close price")
	cmd.Flags().StringVar(&mapping.Volume, "volume-col", "volume", "CSV column holding the volume")
	cmd.Flags().StringVar(&mapping.Turnover, "turnover-col", "turnover", "CSV column holding the turnover (optional in file)")
	cmd.Flags().StringVar(&mapping.OpenInterest, "open-interest-col", "open_interest", "CSV column holding the open interest (optional in file)")
	cmd.Flags().StringVar(&datetimeFormat, "datetime-format", "", "Go time layout of the datetime column")
	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA timezone of naive datetimes")
	cmd.Flags().BoolVar(&overwrite, "overwrite", true, "Imported bars replace stored bars on timestamp collisions")

	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var startStr, endStr string

	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Export one bar series to a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := keyFromFlags(cmd)
			if err != nil {
				return err
			}
			start, end, err := parseRangeFlags(startStr, endStr)
			if err != nil {
				return err
			}

			count, err := a.boot.Manager.ExportCSV(cmd.Context(), manager.ExportRequest{
				Key:   key,
				Start: start,
				End:   end,
				Path:  args[0],
			})
			if err != nil {
				return err
			}

			fmt.Printf("exported %d bars of %s to %s\n", count, key.String(), args[0])
			return nil
		},
	}

	addKeyFlags(cmd)
	cmd.Flags().StringVar(&startStr, "start", "", "Range start (YYYY-MM-DD or YYYY-MM-DD HH:MM:SS, defaults to first bar)")
	cmd.Flags().StringVar(&endStr, "end", "", "Range end (defaults to last bar)")

	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	var startStr, endStr string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete bars of one series",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := keyFromFlags(cmd)
			if err != nil {
				return err
			}
			start, end, err := parseRangeFlags(startStr, endStr)
			if err != nil {
				return err
			}

			deleted, err := a.boot.Manager.DeleteRange(cmd.Context(), key, start, end)
			if err != nil {
				return err
			}

			fmt.Printf("deleted %d bars of %s\n", deleted, key.String())
			return nil
		},
	}

	addKeyFlags(cmd)
	cmd.Flags().StringVar(&startStr, "start", "", "Range start (defaults to first bar)")
	cmd.Flags().StringVar(&endStr, "end", "", "Range end (defaults to last bar)")

	return cmd
}

func newDownloadCmd(a *app) *cobra.Command {
	var startStr string

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download bar history from the configured datafeed",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := keyFromFlags(cmd)
			if err != nil {
				return err
			}
			start, err := parseTimeFlag(startStr)
			if err != nil {
				return err
			}

			count, err := a.boot.Manager.DownloadBars(cmd.Context(), key, start)
			if err != nil {
				return err
			}

			fmt.Printf("downloaded %d bars of %s\n", count, key.String())
			return nil
		},
	}

	addKeyFlags(cmd)
	cmd.Flags().StringVar(&startStr, "start", "", "History start (YYYY-MM-DD or YYYY-MM-DD HH:MM:SS)")
	cmd.MarkFlagRequired("start")

	return cmd
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.pgClient == nil {
				return fmt.Errorf("migrate requires the postgres storage driver")
			}

			runner := migration.NewRunner(a.pgClient, migration.Config{
				MigrationDir: a.cfg.App.MigrationDir,
			})
			return runner.MigrateUp(cmd.Context())
		},
	}
}

func printImportSummary(summary *manager.ImportSummary) {
	fmt.Printf("inserted %d bars, overwrote %d bars\n", summary.Inserted, summary.Overwritten)
	if summary.Count > 0 {
		fmt.Printf("series now holds %d bars from %s to %s\n", summary.Count,
			summary.Start.Format(csvcodec.DefaultLayout), summary.End.Format(csvcodec.DefaultLayout))
	}
	for _, detail := range summary.RowErrors {
		fmt.Printf("skipped %s\n", detail.String())
	}
}

func loadLocation(flag, fallback string) (*time.Location, error) {
	name := flag
	if name == "" {
		name = fallback
	}
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}
