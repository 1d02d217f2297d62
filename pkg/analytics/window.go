package analytics

import (
	"time"
)

const secondsPerDay int64 = 24 * 60 * 60

// Window names exposed in every windowed report.
const (
	WindowDay      = "day"
	WindowWeek     = "week"
	WindowThirty   = "thirty"
	WindowSixty    = "sixty"
	WindowNinety   = "ninety"
	WindowAugust   = "august"
	WindowJanuary  = "january"
	WindowAllEpoch = "all_epoch"
)

// WindowKind tells rolling windows (now - duration) apart from anchored ones (fixed start).
type WindowKind int

const (
	Rolling WindowKind = iota
	Anchored
)

// Window is a named [Start, End] epoch range, inclusive on both ends.
type Window struct {
	Name  string     `json:"name"`
	Start int64      `json:"start_epoch"`
	End   int64      `json:"end_epoch"`
	Kind  WindowKind `json:"-"`
}

// Contains reports whether epoch falls inside the window.
func (w Window) Contains(epoch int64) bool {
	return epoch >= w.Start && epoch <= w.End
}

// Anchor is a historical cutoff at UTC midnight of Date.
type Anchor struct {
	Name string
	Date time.Time
}

// DefaultAnchors are the historical cutoffs shown on the dashboard.
var DefaultAnchors = []Anchor{
	{Name: WindowAugust, Date: time.Date(2018, time.August, 1, 0, 0, 0, 0, time.UTC)},
	{Name: WindowJanuary, Date: time.Date(2018, time.January, 1, 0, 0, 0, 0, time.UTC)},
}

var rollingDays = []struct {
	name string
	days int64
}{
	{WindowDay, 1},
	{WindowWeek, 7},
	{WindowThirty, 30},
	{WindowSixty, 60},
	{WindowNinety, 90},
}

// Catalog is the ordered set of windows computed from a single clock reading.
// Build one per request and pass it to every aggregation of that request.
type Catalog struct {
	Now     int64
	windows []Window
}

// NewCatalog builds the rolling windows plus the given anchors relative to now.
// An anchor later than now is clamped to now so Start never exceeds End.
func NewCatalog(now int64, anchors ...Anchor) Catalog {
	c := Catalog{Now: now, windows: make([]Window, 0, len(rollingDays)+len(anchors))}
	for _, r := range rollingDays {
		c.windows = append(c.windows, Window{
			Name:  r.name,
			Start: now - r.days*secondsPerDay,
			End:   now,
			Kind:  Rolling,
		})
	}
	for _, a := range anchors {
		c = c.With(a.Name, midnightUTC(a.Date))
	}
	return c
}

// With returns a copy of the catalog with an extra anchored window starting at start.
// A window with the same name is replaced.
func (c Catalog) With(name string, start int64) Catalog {
	if start > c.Now {
		start = c.Now
	}
	w := Window{Name: name, Start: start, End: c.Now, Kind: Anchored}

	out := Catalog{Now: c.Now, windows: make([]Window, 0, len(c.windows)+1)}
	for _, existing := range c.windows {
		if existing.Name != name {
			out.windows = append(out.windows, existing)
		}
	}
	out.windows = append(out.windows, w)
	return out
}

// Windows returns the windows in catalog order.
func (c Catalog) Windows() []Window {
	out := make([]Window, len(c.windows))
	copy(out, c.windows)
	return out
}

// Rolling returns only the rolling windows, shortest first.
func (c Catalog) Rolling() []Window {
	out := make([]Window, 0, len(rollingDays))
	for _, w := range c.windows {
		if w.Kind == Rolling {
			out = append(out, w)
		}
	}
	return out
}

// Get looks a window up by name.
func (c Catalog) Get(name string) (Window, bool) {
	for _, w := range c.windows {
		if w.Name == name {
			return w, true
		}
	}
	return Window{}, false
}

// Map returns the catalog keyed by window name.
func (c Catalog) Map() map[string]Window {
	out := make(map[string]Window, len(c.windows))
	for _, w := range c.windows {
		out[w.Name] = w
	}
	return out
}

func midnightUTC(t time.Time) int64 {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Unix()
}
