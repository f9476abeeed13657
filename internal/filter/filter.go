// Package filter derives counts and ordered views from raw todo and
// agreement collections. Every function is pure; the current time is
// passed in so callers control the clock.
package filter

import (
	"fmt"
	"sort"
	"time"

	"github.com/nhle/bizdash/internal/model"
)

// Bucket is one of the named todo views.
type Bucket string

const (
	BucketToday     Bucket = "today"
	BucketScheduled Bucket = "scheduled"
	BucketAll       Bucket = "all"
	BucketCompleted Bucket = "completed"
)

// Buckets lists every bucket in sidebar order.
var Buckets = []Bucket{BucketToday, BucketScheduled, BucketAll, BucketCompleted}

// ParseBucket converts a raw name into a Bucket.
func ParseBucket(raw string) (Bucket, error) {
	for _, b := range Buckets {
		if string(b) == raw {
			return b, nil
		}
	}
	return "", fmt.Errorf("unknown filter %q", raw)
}

// Match reports whether todo belongs to bucket b at time now.
// Unknown buckets match nothing.
func Match(b Bucket, todo model.Todo, now time.Time) bool {
	switch b {
	case BucketToday:
		return !todo.Completed && todo.HasDueDate() && sameDay(*todo.DueDate, now)
	case BucketScheduled:
		return !todo.Completed && todo.HasDueDate()
	case BucketAll:
		return !todo.Completed
	case BucketCompleted:
		return todo.Completed
	default:
		return false
	}
}

// sameDay compares calendar days in now's location.
func sameDay(t, now time.Time) bool {
	t = t.In(now.Location())
	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	return ty == ny && tm == nm && td == nd
}

// CountFor returns the number of todos in bucket b.
func CountFor(todos []model.Todo, b Bucket, now time.Time) int {
	n := 0
	for _, t := range todos {
		if Match(b, t, now) {
			n++
		}
	}
	return n
}

// CountAll returns the count of every bucket.
func CountAll(todos []model.Todo, now time.Time) map[Bucket]int {
	counts := make(map[Bucket]int, len(Buckets))
	for _, b := range Buckets {
		counts[b] = 0
	}
	for _, t := range todos {
		for _, b := range Buckets {
			if Match(b, t, now) {
				counts[b]++
			}
		}
	}
	return counts
}

// ByList returns the number of open todos per list id.
func ByList(todos []model.Todo) map[string]int {
	counts := make(map[string]int)
	for _, t := range todos {
		if !t.Completed {
			counts[t.ListID]++
		}
	}
	return counts
}

// FilterAndSort returns the todos in bucket b, optionally restricted to
// listID, ordered completed-last, then by priority (high first), then by
// due date ascending. Todos without a due date sort after dated ones.
// Remaining ties keep input order. The input slice is not modified.
func FilterAndSort(
	todos []model.Todo,
	b Bucket,
	listID *string,
	now time.Time,
) []model.Todo {
	out := make([]model.Todo, 0, len(todos))
	for _, t := range todos {
		if listID != nil && t.ListID != *listID {
			continue
		}
		if Match(b, t, now) {
			out = append(out, t)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j])
	})
	return out
}

func less(a, b model.Todo) bool {
	if a.Completed != b.Completed {
		return !a.Completed
	}
	if ra, rb := a.Priority.Rank(), b.Priority.Rank(); ra != rb {
		return ra < rb
	}
	ad, bd := a.HasDueDate(), b.HasDueDate()
	switch {
	case ad && bd:
		return a.DueDate.Before(*b.DueDate)
	case ad != bd:
		return ad
	default:
		return false
	}
}
