// Package holidays carries the Brazilian national holiday table used to
// overlay non-bookable days on the dashboard calendar.
package holidays

import "time"

type Holiday struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

var table = []Holiday{
	// 2024
	{"2024-01-01", "Confraternização Universal"},
	{"2024-02-12", "Carnaval"},
	{"2024-02-13", "Carnaval"},
	{"2024-03-29", "Paixão de Cristo"},
	{"2024-04-21", "Tiradentes"},
	{"2024-05-01", "Dia do Trabalho"},
	{"2024-05-30", "Corpus Christi"},
	{"2024-09-07", "Independência do Brasil"},
	{"2024-10-12", "Nossa Senhora Aparecida"},
	{"2024-11-02", "Finados"},
	{"2024-11-15", "Proclamação da República"},
	{"2024-11-20", "Dia da Consciência Negra"},
	{"2024-12-25", "Natal"},

	// 2025
	{"2025-01-01", "Confraternização Universal"},
	{"2025-03-03", "Carnaval"},
	{"2025-03-04", "Carnaval"},
	{"2025-04-18", "Paixão de Cristo"},
	{"2025-04-21", "Tiradentes"},
	{"2025-05-01", "Dia do Trabalho"},
	{"2025-06-19", "Corpus Christi"},
	{"2025-09-07", "Independência do Brasil"},
	{"2025-10-12", "Nossa Senhora Aparecida"},
	{"2025-11-02", "Finados"},
	{"2025-11-15", "Proclamação da República"},
	{"2025-11-20", "Dia da Consciência Negra"},
	{"2025-12-25", "Natal"},

	// 2026
	{"2026-01-01", "Confraternização Universal"},
	{"2026-02-16", "Carnaval"},
	{"2026-02-17", "Carnaval"},
	{"2026-04-03", "Paixão de Cristo"},
	{"2026-04-21", "Tiradentes"},
	{"2026-05-01", "Dia do Trabalho"},
	{"2026-06-04", "Corpus Christi"},
	{"2026-09-07", "Independência do Brasil"},
	{"2026-10-12", "Nossa Senhora Aparecida"},
	{"2026-11-02", "Finados"},
	{"2026-11-15", "Proclamação da República"},
	{"2026-11-20", "Dia da Consciência Negra"},
	{"2026-12-25", "Natal"},
}

var byDate = func() map[string]string {
	m := make(map[string]string, len(table))
	for _, h := range table {
		m[h.Date] = h.Name
	}
	return m
}()

// Lookup returns the holiday name for a calendar day, if any.
func Lookup(day time.Time, loc *time.Location) (string, bool) {
	if loc == nil {
		loc = time.UTC
	}
	name, ok := byDate[day.In(loc).Format("2006-01-02")]
	return name, ok
}

// Between lists holidays falling within [from, to], inclusive, both
// given as YYYY-MM-DD strings. String comparison works because the
// dates are ISO formatted.
func Between(from, to string) []Holiday {
	var out []Holiday
	for _, h := range table {
		if h.Date >= from && h.Date <= to {
			out = append(out, h)
		}
	}
	return out
}
