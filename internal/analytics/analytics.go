// Package analytics summarizes how a user's calendar time was spent.
package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/calendar"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/scheduler"
)

const (
	fetchLimit      = 250
	longBlockLength = 90 * time.Minute
)

// keywordRules are checked in order against summary and description.
var keywordRules = []struct {
	category string
	keywords []string
}{
	{calendar.CategoryStudy, []string{"lecture", "class", "exam", "seminar", "course", "thesis", "homework", "study"}},
	{calendar.CategoryWork, []string{"meeting", "sync", "standup", "client", "demo", "project", "review", "1:1"}},
	{calendar.CategorySport, []string{"gym", "run", "yoga", "workout", "training", "swim"}},
	{calendar.CategoryPersonal, []string{"family", "friends", "dinner", "coffee", "walk", "birthday"}},
	{calendar.CategoryFocus, []string{"focus", "deep work", "writing", "code", "analysis"}},
}

// CategoryStat is time spent in one category.
type CategoryStat struct {
	Category string
	Hours    float64
}

// DayStat is time booked on one day.
type DayStat struct {
	Day   time.Time
	Hours float64
}

// Snapshot is an aggregate view over a period ending now.
type Snapshot struct {
	Days            int
	From            time.Time
	To              time.Time
	TotalHours      float64
	BusyRatio       float64
	Categories      []CategoryStat
	BusiestDay      *DayStat
	LongBlocks      int
	AvgBlockMinutes float64
	HabitSessions   int
	SeriesBlocks    int
	Recommendations []string
	Insight         string
}

// Insighter turns a formatted snapshot into a short narrative.
type Insighter interface {
	Insight(ctx context.Context, summary string) (string, error)
}

// Options configures Build.
type Options struct {
	Days int
	Now  time.Time
	// Insighter adds a narrative when set.
	Insighter Insighter
}

// Build loads the period's events and summarizes them.
func Build(ctx context.Context, events scheduler.EventLister, opts Options) (*Snapshot, error) {
	days := opts.Days
	if days <= 0 {
		days = 7
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	from := now.AddDate(0, 0, -days)

	list, err := events.List(ctx, from, now, fetchLimit)
	if err != nil {
		return nil, fmt.Errorf("fetching events: %w", err)
	}

	snap := Summarize(list, from, now, days)
	if opts.Insighter != nil && len(list) > 0 {
		insight, err := opts.Insighter.Insight(ctx, snap.Format())
		if err != nil {
			return nil, fmt.Errorf("generating insight: %w", err)
		}
		snap.Insight = strings.TrimSpace(insight)
	}
	return snap, nil
}

// Summarize aggregates events. All-day and cancelled events are ignored.
func Summarize(events []calendar.Event, from, to time.Time, days int) *Snapshot {
	snap := &Snapshot{Days: days, From: from, To: to}

	var total time.Duration
	var blocks int
	perDay := map[time.Time]time.Duration{}
	perCategory := map[string]time.Duration{}

	for i := range events {
		ev := &events[i]
		if ev.AllDay || ev.IsCancelled() {
			continue
		}
		d := ev.Duration()
		if d <= 0 {
			continue
		}
		total += d
		blocks++
		if d >= longBlockLength {
			snap.LongBlocks++
		}
		day := time.Date(ev.Start.Year(), ev.Start.Month(), ev.Start.Day(), 0, 0, 0, 0, ev.Start.Location())
		perDay[day] += d
		perCategory[Categorize(ev)] += d

		desc := strings.ToLower(ev.Description)
		if strings.Contains(desc, "habit session") || strings.HasPrefix(desc, "habit:") {
			snap.HabitSessions++
		}
		if strings.Contains(desc, "series:") || strings.HasPrefix(strings.ToLower(ev.Summary), "[series") {
			snap.SeriesBlocks++
		}
	}

	snap.TotalHours = round1(total.Hours())
	if days > 0 {
		snap.BusyRatio = math.Min(1, total.Hours()/float64(days*24))
	}
	if blocks > 0 {
		snap.AvgBlockMinutes = round1(total.Minutes() / float64(blocks))
	}

	for cat, d := range perCategory {
		snap.Categories = append(snap.Categories, CategoryStat{Category: cat, Hours: round1(d.Hours())})
	}
	sort.Slice(snap.Categories, func(i, j int) bool {
		if snap.Categories[i].Hours == snap.Categories[j].Hours {
			return snap.Categories[i].Category < snap.Categories[j].Category
		}
		return snap.Categories[i].Hours > snap.Categories[j].Hours
	})

	for day, d := range perDay {
		if snap.BusiestDay == nil || d.Hours() > snap.BusiestDay.Hours ||
			(d.Hours() == snap.BusiestDay.Hours && day.Before(snap.BusiestDay.Day)) {
			snap.BusiestDay = &DayStat{Day: day, Hours: d.Hours()}
		}
	}
	if snap.BusiestDay != nil {
		snap.BusiestDay.Hours = round1(snap.BusiestDay.Hours)
	}

	snap.Recommendations = recommend(snap)
	return snap
}

// Categorize assigns an event to a category by keywords, then by color.
func Categorize(ev *calendar.Event) string {
	text := strings.ToLower(ev.Summary + " " + ev.Description)
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.category
			}
		}
	}
	if cat, ok := calendar.CategoryForColor(ev.ColorID); ok {
		return cat
	}
	return calendar.CategoryOther
}

func recommend(s *Snapshot) []string {
	var hints []string
	if s.BusyRatio > 0.6 {
		hints = append(hints, "Keep at least one evening completely free to rest.")
	}
	if s.LongBlocks < 2 && s.TotalHours > 10 {
		hints = append(hints, "Add one or two long focus sessions (90+ min) to move big tasks.")
	}
	if s.AvgBlockMinutes > 0 && s.AvgBlockMinutes < 45 {
		hints = append(hints, "Many short meetings: batch them or block focus time.")
	}
	if s.HabitSessions < 1 {
		hints = append(hints, "No habit sessions this period; maybe restart a routine.")
	}
	if s.SeriesBlocks < 1 {
		hints = append(hints, "No preparation blocks; plan a series for your next deadline.")
	}
	return hints
}

// Format renders the snapshot as plain text.
func (s *Snapshot) Format() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Period: %s - %s (%d days)\n", s.From.Format("Mon Jan 2"), s.To.Format("Mon Jan 2, 2006"), s.Days)
	fmt.Fprintf(&sb, "Booked: %.1fh (%.0f%% of the period)\n", s.TotalHours, s.BusyRatio*100)
	if len(s.Categories) > 0 {
		sb.WriteString("By category:\n")
		for _, c := range s.Categories {
			fmt.Fprintf(&sb, "  %-9s %.1fh\n", c.Category, c.Hours)
		}
	}
	if s.BusiestDay != nil {
		fmt.Fprintf(&sb, "Busiest day: %s (%.1fh)\n", s.BusiestDay.Day.Format("Mon 02.01"), s.BusiestDay.Hours)
	}
	fmt.Fprintf(&sb, "Long blocks: %d, average block: %.0f min\n", s.LongBlocks, s.AvgBlockMinutes)
	fmt.Fprintf(&sb, "Habit sessions: %d, series blocks: %d\n", s.HabitSessions, s.SeriesBlocks)
	if len(s.Recommendations) > 0 {
		sb.WriteString("Suggestions:\n")
		for _, r := range s.Recommendations {
			fmt.Fprintf(&sb, "  - %s\n", r)
		}
	}
	return sb.String()
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
