package sim

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"microgrid-dispatch/internal/model"
)

var hourlyHeader = []string{
	"hour",
	"tariff",
	"is_peak",
	"solar_gen_kw",
	"load_kw",
	"solar_to_load_kw",
	"solar_to_batt_kw",
	"batt_to_load_kw",
	"grid_to_load_kw",
	"grid_to_batt_kw",
	"diesel_to_load_kw",
	"curtailed_kw",
	"grid_import_kw",
	"unmet_load_kw",
	"action",
	"soc_kwh",
	"soc_pct",
	"cost",
	"cum_cost",
	"co2_kg",
}

// WriteHourlyCSV writes rows to a new file at path.
func WriteHourlyCSV(path string, rows []model.HourFlows) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteHourly(f, rows)
}

// WriteHourly writes rows as CSV with a header line. cum_cost is the running
// sum of the rows written, so the last row equals the day total.
func WriteHourly(out io.Writer, rows []model.HourFlows) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	if err := w.Write(hourlyHeader); err != nil {
		return err
	}

	cum := 0.0
	for _, r := range rows {
		cum += r.Cost
		row := []string{
			strconv.Itoa(r.Hour),
			fmtFloat(r.Tariff),
			strconv.FormatBool(r.IsPeak),
			fmtFloat(r.SolarGenKw),
			fmtFloat(r.LoadKw),
			fmtFloat(r.SolarToLoadKw),
			fmtFloat(r.SolarToBattKw),
			fmtFloat(r.BattToLoadKw),
			fmtFloat(r.GridToLoadKw),
			fmtFloat(r.GridToBattKw),
			fmtFloat(r.DieselToLoadKw),
			fmtFloat(r.CurtailedKw),
			fmtFloat(r.GridImportKw),
			fmtFloat(r.UnmetLoadKw),
			string(r.Action),
			fmtFloat(r.SocKwh),
			fmtFloat(r.SocPct),
			fmtFloat(r.Cost),
			fmtFloat(cum),
			fmtFloat(r.Co2Kg),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
