package models

import "time"

// Post is a parsed blog post. Posts are immutable once parsed; ordering and
// neighbour links live in the collection that owns them.
type Post struct {
	Path        string
	Title       Text
	Date        time.Time
	Delta       int
	Series      []Text
	Tags        []Text
	Root        *Section
	Description Text
	Checksum    string
}

// Before reports whether p sorts strictly before o by (date, delta).
func (p *Post) Before(o *Post) bool {
	if !p.Date.Equal(o.Date) {
		return p.Date.Before(o.Date)
	}
	return p.Delta < o.Delta
}

// InSeries reports whether p belongs to the series s.
func (p *Post) InSeries(s Text) bool {
	for _, t := range p.Series {
		if t.Equal(s) {
			return true
		}
	}
	return false
}

// SeriesSet is the site-wide registry of series names, in declaration order.
type SeriesSet struct {
	order []Text
	keys  map[string]struct{}
}

// NewSeriesSet builds a registry from the given names. Duplicates collapse.
func NewSeriesSet(series ...Text) *SeriesSet {
	s := &SeriesSet{keys: make(map[string]struct{}, len(series))}
	for _, t := range series {
		if _, ok := s.keys[t.Key()]; ok {
			continue
		}
		s.keys[t.Key()] = struct{}{}
		s.order = append(s.order, t)
	}
	return s
}

// Contains reports whether t is a registered series.
func (s *SeriesSet) Contains(t Text) bool {
	if s == nil {
		return false
	}
	_, ok := s.keys[t.Key()]
	return ok
}

// All returns the registered series in declaration order.
func (s *SeriesSet) All() []Text {
	if s == nil {
		return nil
	}
	out := make([]Text, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of registered series.
func (s *SeriesSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}
