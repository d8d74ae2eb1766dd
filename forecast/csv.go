package forecast

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/sartorproj/salesforecast/timeseries"
)

// WriteCSV writes the forecast as ds,yhat,yhat_lower,yhat_upper,trend,in_sample rows.
func WriteCSV(w io.Writer, fc *Forecast) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"ds", "yhat", "yhat_lower", "yhat_upper", "trend", "in_sample"}); err != nil {
		return err
	}
	for _, p := range fc.Points {
		row := []string{
			timeseries.FormatTimestamp(p.Timestamp),
			formatFloat(p.Value),
			formatFloat(p.Lower),
			formatFloat(p.Upper),
			formatFloat(p.Trend),
			strconv.FormatBool(p.InSample),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
