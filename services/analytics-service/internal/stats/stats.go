package stats

import (
	"math"
	"time"
)

// Appointment is the slice of booking data the dashboard math needs.
type Appointment struct {
	ID           string
	CustomerName string
	ServiceName  string
	StartTime    time.Time
	EndTime      time.Time
	Status       string
	Price        float64
}

type Dashboard struct {
	TodayCount     int     `json:"today_count"`
	MonthCount     int     `json:"month_count"`
	MonthRevenue   float64 `json:"month_revenue"`
	CompletionRate int     `json:"completion_rate"`
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func sameMonth(a, b time.Time) bool {
	ay, am, _ := a.Date()
	by, bm, _ := b.Date()
	return ay == by && am == bm
}

// Derive computes the dashboard headline numbers from the month's
// appointments. Start times are viewed in now's location before any
// calendar comparison, so an evening appointment that crosses midnight
// UTC still lands on the local day. Revenue counts completed
// appointments only; the completion rate is rounded to the nearest
// whole percent and is 0 for an empty month.
func Derive(appts []Appointment, now time.Time) Dashboard {
	var d Dashboard
	var completed int
	for _, a := range appts {
		start := a.StartTime.In(now.Location())
		if !sameMonth(start, now) {
			continue
		}
		d.MonthCount++
		if sameDay(start, now) {
			d.TodayCount++
		}
		if a.Status == "completed" {
			completed++
			d.MonthRevenue += a.Price
		}
	}
	if d.MonthCount > 0 {
		d.CompletionRate = int(math.Round(float64(completed) / float64(d.MonthCount) * 100))
	}
	return d
}

type DayBucket struct {
	Date    string  `json:"date"`
	Count   int     `json:"count"`
	Revenue float64 `json:"revenue"`
}

// DayBuckets distributes appointments into per-day counts for the last
// n calendar days ending today, in loc. Days without appointments still
// appear with a zero count. Revenue sums completed appointments only.
func DayBuckets(appts []Appointment, now time.Time, n int, loc *time.Location) []DayBucket {
	if loc == nil {
		loc = time.UTC
	}
	if n <= 0 {
		n = 7
	}
	local := now.In(loc)
	first := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, -(n - 1))

	buckets := make([]DayBucket, n)
	index := make(map[string]int, n)
	for i := 0; i < n; i++ {
		key := first.AddDate(0, 0, i).Format("2006-01-02")
		buckets[i] = DayBucket{Date: key}
		index[key] = i
	}
	for _, a := range appts {
		key := a.StartTime.In(loc).Format("2006-01-02")
		if i, ok := index[key]; ok {
			buckets[i].Count++
			if a.Status == "completed" {
				buckets[i].Revenue += a.Price
			}
		}
	}
	return buckets
}

// Status display colors for the dashboard calendar.
var statusColors = map[string]string{
	"pending":   "#f59e0b",
	"confirmed": "#3b82f6",
	"completed": "#22c55e",
	"cancelled": "#ef4444",
}

const defaultColor = "#6b7280"

type CalendarEvent struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Status string `json:"status"`
	Color  string `json:"color"`
}

// CalendarEvents shapes appointments for the dashboard calendar widget.
// Titles combine customer and service; colors follow the status.
func CalendarEvents(appts []Appointment, loc *time.Location) []CalendarEvent {
	if loc == nil {
		loc = time.UTC
	}
	events := make([]CalendarEvent, 0, len(appts))
	for _, a := range appts {
		color, ok := statusColors[a.Status]
		if !ok {
			color = defaultColor
		}
		title := a.CustomerName
		if a.ServiceName != "" {
			title += " - " + a.ServiceName
		}
		events = append(events, CalendarEvent{
			ID:     a.ID,
			Title:  title,
			Start:  a.StartTime.In(loc).Format(time.RFC3339),
			End:    a.EndTime.In(loc).Format(time.RFC3339),
			Status: a.Status,
			Color:  color,
		})
	}
	return events
}
