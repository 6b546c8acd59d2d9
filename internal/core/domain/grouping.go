package domain

import "time"

type Bucket string

const (
	BucketToday    Bucket = "Today"
	BucketTomorrow Bucket = "Tomorrow"
	BucketThisWeek Bucket = "This Week"
)

var Buckets = []Bucket{BucketToday, BucketTomorrow, BucketThisWeek}

// BucketFor compares calendar dates in now's location. Anything that is
// neither today nor tomorrow, past dates included, lands in This Week.
func BucketFor(due, now time.Time) Bucket {
	local := due.In(now.Location())

	if sameDay(local, now) {
		return BucketToday
	}

	if sameDay(local, now.AddDate(0, 0, 1)) {
		return BucketTomorrow
	}

	return BucketThisWeek
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()

	return ay == by && am == bm && ad == bd
}

type Groups struct {
	Today    []Task `json:"today"`
	Tomorrow []Task `json:"tomorrow"`
	ThisWeek []Task `json:"this_week"`
}

func (g Groups) Get(b Bucket) []Task {
	switch b {
	case BucketToday:
		return g.Today
	case BucketTomorrow:
		return g.Tomorrow
	default:
		return g.ThisWeek
	}
}

func (g Groups) Len() int {
	return len(g.Today) + len(g.Tomorrow) + len(g.ThisWeek)
}

// GroupByDueDate keeps the input order inside each bucket.
func GroupByDueDate(tasks []Task, now time.Time) Groups {
	groups := Groups{
		Today:    []Task{},
		Tomorrow: []Task{},
		ThisWeek: []Task{},
	}

	for _, task := range tasks {
		switch BucketFor(task.DueDate, now) {
		case BucketToday:
			groups.Today = append(groups.Today, task)
		case BucketTomorrow:
			groups.Tomorrow = append(groups.Tomorrow, task)
		default:
			groups.ThisWeek = append(groups.ThisWeek, task)
		}
	}

	return groups
}
