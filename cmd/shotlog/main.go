// Command shotlog is the offline companion to the server: it runs the advice
// engine from the terminal and reads the server's database.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"shotlog/internal/advisor"
	"shotlog/internal/config"
	"shotlog/internal/database"
	"shotlog/internal/database/boltstore"
	"shotlog/internal/database/sqlitestore"
	"shotlog/internal/models"
	"shotlog/internal/shots"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "shotlog",
		Short:        "Espresso shot log and extraction advice",
		SilenceUsage: true,
	}
	root.AddCommand(newAdviseCmd(), newDoseCmd(), newBeansCmd(), newExportCmd())
	return root
}

const adviseExample = `  shotlog advise --dose 18 --yield 36 --time 27
  shotlog advise --type single --yield 20 --time 24 --lang da`

type adviseFlags struct {
	dose, yield, time, ratio string
	shotType                 string
	lang                     string
	asJSON                   bool
}

func newAdviseCmd() *cobra.Command {
	var f adviseFlags
	cmd := &cobra.Command{
		Use:     "advise",
		Short:   "Diagnose a shot from dose, yield and time",
		Example: adviseExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdvise(cmd.OutOrStdout(), f)
		},
	}
	cmd.Flags().StringVar(&f.dose, "dose", "", "dry dose in grams")
	cmd.Flags().StringVar(&f.yield, "yield", "", "beverage weight in grams")
	cmd.Flags().StringVar(&f.time, "time", "", "shot time in seconds")
	cmd.Flags().StringVar(&f.ratio, "ratio", "", "target brew ratio (default 2.0)")
	cmd.Flags().StringVar(&f.shotType, "type", string(advisor.Double), "Single or Double")
	cmd.Flags().StringVar(&f.lang, "lang", "en", "advice language: en or da")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "print the result as JSON")
	return cmd
}

func runAdvise(w io.Writer, f adviseFlags) error {
	req := &models.CreateShotRequest{
		ShotType:    advisor.ShotType(f.shotType),
		Dose:        advisor.Parse(f.dose),
		Yield:       advisor.Parse(f.yield),
		Time:        advisor.Parse(f.time),
		TargetRatio: advisor.Parse(f.ratio),
	}
	req.Normalize(nil, time.Now())
	if err := req.Validate(); err != nil {
		return err
	}

	res := advisor.ForLanguage(f.lang).DeriveAndClassify(req.Input())
	if f.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	ratio := "–"
	if r, ok := res.ActualRatio.Get(); ok {
		ratio = fmt.Sprintf("%.2f", r)
	}
	targetYield := "–"
	if ty, ok := res.TargetYield.Get(); ok {
		targetYield = fmt.Sprintf("%d g", advisor.RoundGrams(ty))
	}
	fmt.Fprintf(w, "Target yield: %s\nActual ratio: %s\n%s\n", targetYield, ratio, res.AdviceText)
	return nil
}

func newDoseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dose [Single|Double]",
		Short: "Print the recommended dry dose",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := advisor.Double
			if len(args) == 1 {
				parsed, ok := advisor.ParseShotType(args[0])
				if !ok {
					return models.ErrInvalidShotType
				}
				st = parsed
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s g\n", st, advisor.RecommendedDose(st))
			return nil
		},
	}
}

// dbFlags select a record store and the alias whose records are read. The
// driver and path default to the server's configuration.
type dbFlags struct {
	path   string
	driver string
	user   string
}

func (f *dbFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.path, "db", "", "database file (default: server data directory)")
	cmd.Flags().StringVar(&f.driver, "driver", "", "store driver: bolt or sqlite (default: server config)")
	cmd.Flags().StringVarP(&f.user, "user", "u", "", "login alias")
	_ = cmd.MarkFlagRequired("user")
}

func (f *dbFlags) open() (*shots.Service, func() error, string, error) {
	alias, err := models.NormalizeAlias(f.user)
	if err != nil {
		return nil, nil, "", err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, "", err
	}
	if f.driver != "" {
		cfg.StoreDriver = strings.ToLower(strings.TrimSpace(f.driver))
	}
	if f.path != "" {
		cfg.DBPath = f.path
	}
	path, err := cfg.ResolveDBPath()
	if err != nil {
		return nil, nil, "", err
	}

	store, err := openStore(cfg.StoreDriver, path)
	if err != nil {
		return nil, nil, "", err
	}
	return shots.NewService(store, nil), store.Close, alias, nil
}

// openStore opens an existing database without taking the writer lock, so a
// running server keeps working.
func openStore(driver, path string) (database.Store, error) {
	switch driver {
	case config.DriverBolt:
		store, err := boltstore.Open(boltstore.Options{Path: path, ReadOnly: true, Timeout: time.Second})
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverSQLite:
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		store, err := sqlitestore.Open(path)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", config.ErrInvalidConfig, driver)
	}
}

func newBeansCmd() *cobra.Command {
	var f dbFlags
	cmd := &cobra.Command{
		Use:   "beans",
		Short: "List a user's beans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, user, err := f.open()
			if err != nil {
				return err
			}
			defer closeFn()

			beans, err := svc.Beans(cmd.Context(), user)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, b := range beans {
				fmt.Fprintf(out, "%s\t%s\t%s\t1:%s\n", b.ID, b.Label(), b.DisplayProcess(),
					advisor.Some(b.TargetRatio))
			}
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newExportCmd() *cobra.Command {
	var (
		f      dbFlags
		beanID string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a user's shot log as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, user, err := f.open()
			if err != nil {
				return err
			}
			defer closeFn()

			w := cmd.OutOrStdout()
			if output != "" {
				if output == "." {
					output = shots.ExportFilename(time.Now())
				}
				file, err := os.Create(output)
				if err != nil {
					return err
				}
				defer file.Close()
				w = file
			}
			return svc.ExportCSV(cmd.Context(), w, user, beanID)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&beanID, "bean", "", "only export this bean")
	cmd.Flags().StringVarP(&output, "output", "o", "", `output file ("." for the dated default name)`)
	return cmd
}
