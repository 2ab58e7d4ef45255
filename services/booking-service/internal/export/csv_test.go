package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/lucasvieira/agendou/services/booking-service/internal/model"
)

func TestWriteCSVRoundTrip(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("LoadLocation failed: %v", err)
	}
	appt := model.Appointment{
		CustomerName:  "Maria, \"Mary\" Souza",
		CustomerPhone: "+5511999990000",
		ServiceName:   "Corte Feminino",
		ServicePrice:  120,
		StartTime:     time.Date(2026, 8, 12, 17, 30, 0, 0, time.UTC),
		Status:        "confirmed",
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, []model.Appointment{appt}, loc); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("parsing exported csv failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header + 1 row, got %d records", len(records))
	}
	for i, col := range Header {
		if records[0][i] != col {
			t.Fatalf("header[%d] = %q, want %q", i, records[0][i], col)
		}
	}

	row := records[1]
	if row[0] != appt.CustomerName {
		t.Fatalf("customer = %q, want %q", row[0], appt.CustomerName)
	}
	if row[1] != appt.CustomerPhone {
		t.Fatalf("phone = %q, want %q", row[1], appt.CustomerPhone)
	}
	if row[2] != appt.ServiceName {
		t.Fatalf("service = %q, want %q", row[2], appt.ServiceName)
	}
	if row[3] != "120.00" {
		t.Fatalf("price = %q, want 120.00", row[3])
	}
	// 17:30 UTC is 14:30 in São Paulo.
	if row[4] != "2026-08-12" || row[5] != "14:30" {
		t.Fatalf("date/time = %q %q, want 2026-08-12 14:30", row[4], row[5])
	}
	if row[6] != "confirmed" {
		t.Fatalf("status = %q, want confirmed", row[6])
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil, nil); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("parsing exported csv failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected header only, got %d records", len(records))
	}
}
