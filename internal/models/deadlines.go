package models

import "sort"

// Deadlines maps an ISO date (YYYY-MM-DD) to the ids of the tasks due that day.
// A task id is kept in at most one bucket and empty buckets are removed.
type Deadlines map[string][]int64

// Clone returns a deep copy of d
func (d Deadlines) Clone() Deadlines {
	out := make(Deadlines, len(d))
	for date, ids := range d {
		cp := make([]int64, len(ids))
		copy(cp, ids)
		out[date] = cp
	}
	return out
}

// Dates returns the bucket keys in ascending order
func (d Deadlines) Dates() []string {
	dates := make([]string, 0, len(d))
	for date := range d {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

// Purge removes id from every bucket and drops buckets left empty.
// It reports whether anything was removed.
func (d Deadlines) Purge(id int64) bool {
	removed := false
	for date, ids := range d {
		kept := make([]int64, 0, len(ids))
		for _, existing := range ids {
			if existing == id {
				removed = true
				continue
			}
			kept = append(kept, existing)
		}
		if len(kept) == 0 {
			delete(d, date)
			continue
		}
		d[date] = kept
	}
	return removed
}

// Assign moves id into the bucket for date, removing it from any other bucket first
func (d Deadlines) Assign(id int64, date string) {
	d.Purge(id)
	d[date] = append(d[date], id)
}

// DateOf returns the first bucket, in ascending date order, that contains id
func (d Deadlines) DateOf(id int64) (string, bool) {
	for _, date := range d.Dates() {
		for _, existing := range d[date] {
			if existing == id {
				return date, true
			}
		}
	}
	return "", false
}

// Buckets returns the number of dates that hold id
func (d Deadlines) Buckets(id int64) int {
	n := 0
	for _, ids := range d {
		for _, existing := range ids {
			if existing == id {
				n++
				break
			}
		}
	}
	return n
}
