package domain

import "time"

// DateLayout is the canonical date format every component compares against.
const DateLayout = "2006-01-02"

// Vote is the push tag a commenter attaches to a reply.
type Vote string

const (
	VoteUp      Vote = "推"
	VoteDown    Vote = "噓"
	VoteNeutral Vote = "→"
)

// Comment is one push entry under an article.
type Comment struct {
	Author string
	Text   string
	Vote   Vote
}

// Article is one discussion post plus its comment thread.
// Content and Comments are empty once the record has been sanitized.
type Article struct {
	Title     string
	Date      string
	Author    string
	Board     string
	URL       string
	Content   string
	Comments  []Comment
	Sanitized bool
}

// Day parses the canonical Date field.
func (a Article) Day() (time.Time, error) {
	return time.Parse(DateLayout, a.Date)
}

// DateWindow is an inclusive calendar range.
type DateWindow struct {
	From time.Time
	To   time.Time
}

// SingleDay builds a window covering exactly one calendar day.
func SingleDay(day time.Time) DateWindow {
	d := TruncateDay(day)
	return DateWindow{From: d, To: d}
}

// Contains reports whether day falls inside the window, boundaries included.
func (w DateWindow) Contains(day time.Time) bool {
	d := TruncateDay(day)
	return !d.Before(TruncateDay(w.From)) && !d.After(TruncateDay(w.To))
}

// Scope renders the window as used in file names and report headers.
func (w DateWindow) Scope() string {
	from := w.From.Format(DateLayout)
	to := w.To.Format(DateLayout)
	if from == to {
		return from
	}
	return from + "--" + to
}

// TruncateDay drops the clock part while keeping the calendar date of t in its own location.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
