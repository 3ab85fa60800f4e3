package types

import (
	"fmt"
	"time"
)

// TagPredicate matches resources by exact string equality of one defined-tag
// value. The namespace/key pair comes from configuration, never hardcoded at
// the call site.
type TagPredicate struct {
	Namespace string `json:"namespace" yaml:"namespace"`
	Key       string `json:"key" yaml:"key"`
	Value     string `json:"value" yaml:"value"`
}

// Matches reports whether the resource carries the expected tag value.
func (p TagPredicate) Matches(r *Resource) bool {
	return r.Tag(p.Namespace, p.Key) == p.Value
}

func (p TagPredicate) String() string {
	return fmt.Sprintf("%s.%s=%s", p.Namespace, p.Key, p.Value)
}

// HourValue formats the wall-clock hour as the schedule tag value, e.g.
// "07:00_UTC". Callers must compute it ONCE at run start so every resource in
// the run is compared against the same string, even when the hour rolls over
// mid-run.
func HourValue(now time.Time) string {
	return now.UTC().Format("15") + ":00_UTC"
}

// HourPredicate builds the schedule predicate for the current run.
func HourPredicate(namespace, key string, now time.Time) TagPredicate {
	return TagPredicate{Namespace: namespace, Key: key, Value: HourValue(now)}
}
