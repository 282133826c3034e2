package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"microgrid-dispatch/internal/config"
	"microgrid-dispatch/internal/logger"
	"microgrid-dispatch/internal/model"
	"microgrid-dispatch/internal/sim"
	"microgrid-dispatch/internal/strategy"
)

// Demo:
// - Load the config (or defaults) and build one synthetic or recorded day
// - Compare baseline and smart once
// - Replay the chosen policy hour by hour, like a live dashboard would
func main() {
	var (
		cfgPath  string
		policy   string
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:          "demo",
		Short:        "Replay a simulated day in the terminal",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := strategy.ParseKind(policy)
			if err != nil {
				return err
			}
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			sc, err := cfg.ToSim()
			if err != nil {
				return err
			}
			inputs, err := cfg.Inputs(sc.Tariff)
			if err != nil {
				return err
			}
			cmp, err := sim.New(logger.NewWithWriter("demo", os.Stderr)).Compare(inputs, sc)
			if err != nil {
				return err
			}
			stepper, err := sim.NewLiveStepper(cmp, kind)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return replay(ctx, stepper, cfg.Battery.CapacityKwh, interval)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "YAML or JSON config (optional)")
	cmd.Flags().StringVarP(&policy, "policy", "p", "smart", "baseline or smart")
	cmd.Flags().DurationVar(&interval, "interval", 250*time.Millisecond, "delay between hours")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func replay(ctx context.Context, s *sim.LiveStepper, capacityKwh float64, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fmt.Printf("replaying %s policy\n", s.Mode())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		f, ok := s.Next()
		if !ok {
			break
		}
		fmt.Printf("%02d:00 %s  solar %4.1f  load %4.1f  grid %4.1f  diesel %4.1f  %-11s [%-20s] %5.1f%%  cost %6.2f\n",
			f.Hour, peakMark(f), f.SolarGenKw, f.LoadKw, f.GridImportKw, f.DieselToLoadKw,
			f.Action, socBar(f.SocKwh, capacityKwh, 20), f.SocPct, f.Cost)
	}

	t := s.Totals()
	fmt.Printf("\nday total: cost %.2f, co2 %.2f kg, grid %.2f kWh, diesel %.2f kWh, curtailed %.2f kWh\n",
		t.Cost, t.Co2Kg, t.GridKwh, t.DieselKwh, t.CurtailedKwh)
	return nil
}

func peakMark(f model.HourFlows) string {
	if f.IsPeak {
		return "PEAK"
	}
	return "    "
}

func socBar(socKwh, capacityKwh float64, width int) string {
	if capacityKwh <= 0 {
		return ""
	}
	n := int(socKwh / capacityKwh * float64(width))
	n = max(0, min(width, n))
	return strings.Repeat("#", n)
}
