package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/lucasvieira/agendou/services/booking-service/internal/model"
)

// Header of the appointment export, in display order.
var Header = []string{"customer", "phone", "service", "price", "date", "time", "status"}

// WriteCSV renders appointments as comma-delimited CSV with one header
// row. Date and time are formatted in loc, the organization's timezone.
func WriteCSV(w io.Writer, appts []model.Appointment, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, appt := range appts {
		local := appt.StartTime.In(loc)
		record := []string{
			appt.CustomerName,
			appt.CustomerPhone,
			appt.ServiceName,
			strconv.FormatFloat(appt.ServicePrice, 'f', 2, 64),
			local.Format("2006-01-02"),
			local.Format("15:04"),
			appt.Status,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
