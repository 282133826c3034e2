package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"microgrid-dispatch/internal/analysis"
	"microgrid-dispatch/internal/config"
	"microgrid-dispatch/internal/logger"
	"microgrid-dispatch/internal/model"
	"microgrid-dispatch/internal/sim"
	"microgrid-dispatch/internal/strategy"
)

var (
	cfgPath     string
	weather     string
	loadProfile string
	samplesPath string
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:          "microgrid",
	Short:        "Simulate a solar + battery + grid + diesel microgrid over one day",
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgPath, "config", "c", "", "YAML or JSON config (defaults and MG_ env when empty)")
	pf.StringVar(&weather, "weather", "", "override profile.weather (sunny, partly_cloudy, cloudy, rainy)")
	pf.StringVar(&loadProfile, "load-profile", "", "override profile.load_profile")
	pf.StringVar(&samplesPath, "samples", "", "recorded day JSON, replaces the synthetic profile")
	pf.StringVar(&logLevel, "log-level", "", "override logging.level")

	rootCmd.AddCommand(compareCmd(), dayCmd(), rankCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the config, applies flag overrides and builds the day's inputs.
func setup() (*config.Config, sim.Config, model.DayInputs, *sim.Engine, error) {
	cfg, err := config.LoadUnchecked(cfgPath)
	if err != nil {
		return nil, sim.Config{}, nil, nil, fmt.Errorf("load config: %w", err)
	}
	if weather != "" {
		cfg.Profile.Weather = weather
	}
	if loadProfile != "" {
		cfg.Profile.LoadProfile = loadProfile
		cfg.Profile.LoadKw = nil
	}
	if samplesPath != "" {
		cfg.Profile.SamplesFile = samplesPath
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, sim.Config{}, nil, nil, err
	}
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, sim.Config{}, nil, nil, err
	}

	sc, err := cfg.ToSim()
	if err != nil {
		return nil, sim.Config{}, nil, nil, err
	}
	inputs, err := cfg.Inputs(sc.Tariff)
	if err != nil {
		return nil, sim.Config{}, nil, nil, err
	}
	engine := sim.New(logger.NewWithWriter("cli", os.Stderr))
	return cfg, sc, inputs, engine, nil
}

func compareCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Run baseline and smart over the same day and print the difference",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, sc, inputs, engine, err := setup()
			if err != nil {
				return err
			}
			cmp, err := engine.Compare(inputs, sc)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "battery %s (%.1f kWh), weather %s, load %s\n\n",
				cfg.Battery.Name, cfg.Battery.CapacityKwh, cfg.Profile.Weather, cfg.Profile.LoadProfile)
			fmt.Fprintf(out, "%-10s %10s %10s %10s %10s %10s %8s\n", "policy", "cost", "co2_kg", "grid_kwh", "diesel", "unmet", "soc_end")
			for _, run := range []*sim.DaySimulation{cmp.Baseline, cmp.Smart} {
				t := run.Totals
				fmt.Fprintf(out, "%-10s %10.2f %10.2f %10.2f %10.2f %10.2f %8.2f\n",
					run.Policy, t.Cost, t.Co2Kg, t.GridKwh, t.DieselKwh, t.UnmetKwh, t.FinalSocKwh)
			}

			s := analysis.SummarizeComparison(cmp, cfg.Battery.CapacityKwh)
			fmt.Fprintf(out, "\nsavings: cost %.2f (%.1f%%), co2 %.2f kg (%.1f%%), diesel avoided %.2f kWh\n",
				s.CostSavings, s.CostSavingsPct, s.Co2SavingsKg, s.Co2SavingsPct, s.DieselAvoidedKwh)

			if outDir == "" {
				return nil
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			for _, run := range []*sim.DaySimulation{cmp.Baseline, cmp.Smart} {
				path := filepath.Join(outDir, run.Policy.String()+".csv")
				if err := sim.WriteHourlyCSV(path, run.Hourly); err != nil {
					return err
				}
				fmt.Fprintf(out, "Wrote %d rows to %s\n", len(run.Hourly), path)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "directory for baseline.csv and smart.csv")
	return cmd
}

func dayCmd() *cobra.Command {
	var (
		policy  string
		outPath string
	)
	cmd := &cobra.Command{
		Use:   "day",
		Short: "Print one policy's hourly dispatch",
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := strategy.ParseKind(policy)
			if err != nil {
				return err
			}
			_, sc, inputs, engine, err := setup()
			if err != nil {
				return err
			}
			cmp, err := engine.Compare(inputs, sc)
			if err != nil {
				return err
			}
			run, err := cmp.Run(kind)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-4s %-5s %6s %6s %6s %6s %6s %6s %6s %6s %-11s %7s %8s\n",
				"hour", "peak", "solar", "load", "s>load", "s>batt", "b>load", "g>load", "g>batt", "diesel", "action", "soc%", "cost")
			for _, f := range run.Hourly {
				fmt.Fprintf(out, "%-4d %-5t %6.2f %6.2f %6.2f %6.2f %6.2f %6.2f %6.2f %6.2f %-11s %7.1f %8.2f\n",
					f.Hour, f.IsPeak, f.SolarGenKw, f.LoadKw, f.SolarToLoadKw, f.SolarToBattKw, f.BattToLoadKw,
					f.GridToLoadKw, f.GridToBattKw, f.DieselToLoadKw, f.Action, f.SocPct, f.Cost)
			}
			fmt.Fprintf(out, "\ntotal cost %.2f, co2 %.2f kg\n", run.Totals.Cost, run.Totals.Co2Kg)

			if outPath == "" {
				return nil
			}
			if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
				return err
			}
			if err := sim.WriteHourlyCSV(outPath, run.Hourly); err != nil {
				return err
			}
			fmt.Fprintf(out, "Wrote %d rows to %s\n", len(run.Hourly), outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&policy, "policy", "p", "smart", "baseline or smart")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "optional CSV path")
	return cmd
}

func rankCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank battery presets by smart-over-baseline savings on the configured day",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, sc, inputs, engine, err := setup()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.BatteryDir()
			}
			batteries, err := config.LoadBatteryDir(dir)
			if err != nil {
				return err
			}
			presets := make([]analysis.Preset, len(batteries))
			for i, b := range batteries {
				presets[i] = analysis.Preset{Name: b.Name, Battery: b.ToModel()}
			}
			ranked, err := analysis.RankPresets(engine, inputs, sc, presets)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-4s %-18s %8s %10s %10s %10s %8s\n", "rank", "preset", "kwh", "savings", "savings%", "co2_kg", "cycles")
			for i, r := range ranked {
				fmt.Fprintf(out, "%-4d %-18s %8.1f %10.2f %10.1f %10.2f %8.2f\n",
					i+1, r.Name, r.Battery.CapacityKwh, r.CostSavings, r.CostSavingsPct, r.Co2SavingsKg, r.Smart.EquivalentCycles)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "preset directory (defaults to api.battery_dir)")
	return cmd
}
