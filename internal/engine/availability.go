package engine

import (
	"sort"
	"time"
)

// interval is a half-open [start, end) range in absolute UTC minutes.
type interval struct {
	start int64
	end   int64
}

// OverlapMinutes computes the weekly availability overlap between two personas
// in minutes. Windows are expanded over the current week anchored at now, in
// each persona's own time zone, with dated exceptions applied. Absent
// availability counts as zero overlap.
func OverlapMinutes(a, b *Persona, now time.Time) int {
	if a.Profile.Availability == nil || b.Profile.Availability == nil {
		return 0
	}

	ia := expandWeek(a.Profile.Availability, a.General.Location.TimeZone, now)
	ib := expandWeek(b.Profile.Availability, b.General.Location.TimeZone, now)
	if len(ia) == 0 || len(ib) == 0 {
		return 0
	}

	var total int64
	i, j := 0, 0
	for i < len(ia) && j < len(ib) {
		lo := maxI64(ia[i].start, ib[j].start)
		hi := minI64(ia[i].end, ib[j].end)
		if lo < hi {
			total += hi - lo
		}
		if ia[i].end < ib[j].end {
			i++
		} else {
			j++
		}
	}
	return int(total)
}

// expandWeek projects a weekly schedule onto the 7 days starting at the
// beginning of the current local week, returning sorted merged UTC intervals.
func expandWeek(av *Availability, tz string, now time.Time) []interval {
	loc := loadLocation(tz)
	local := now.In(loc)

	// Snap to the start of the local week (Sunday 00:00).
	weekStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	weekStart = weekStart.AddDate(0, 0, -int(local.Weekday()))

	exceptions := make(map[string][]TimeWindow, len(av.Exceptions))
	for _, ex := range av.Exceptions {
		exceptions[ex.Date] = ex.Windows
	}

	var out []interval
	for day := 0; day < 7; day++ {
		dayStart := weekStart.AddDate(0, 0, day)
		date := dayStart.Format("2006-01-02")

		windows, overridden := exceptions[date]
		if !overridden {
			for _, w := range av.Windows {
				if w.Day == dayStart.Weekday() {
					windows = append(windows, w)
				}
			}
		}

		for _, w := range windows {
			if w.EndMinute <= w.StartMinute {
				continue
			}
			start := dayStart.Add(time.Duration(w.StartMinute) * time.Minute)
			end := dayStart.Add(time.Duration(w.EndMinute) * time.Minute)
			out = append(out, interval{
				start: start.UTC().Unix() / 60,
				end:   end.UTC().Unix() / 60,
			})
		}
	}

	return mergeIntervals(out)
}

func mergeIntervals(in []interval) []interval {
	if len(in) < 2 {
		return in
	}
	sort.Slice(in, func(i, j int) bool { return in[i].start < in[j].start })
	out := in[:1]
	for _, iv := range in[1:] {
		last := &out[len(out)-1]
		if iv.start <= last.end {
			if iv.end > last.end {
				last.end = iv.end
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

func loadLocation(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

func maxI64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func minI64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
