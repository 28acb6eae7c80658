package core

import "fmt"

// Key returns a stable identity for deduplicating events that arrive both
// over the live stream and in a later page fetch. The database ID wins when
// present; stream events broadcast before the insert completes fall back to
// a composite of fields that never change for a given event.
func (l AttackLog) Key() string {
	if l.ID != "" {
		return l.ID
	}
	return fmt.Sprintf("%s|%s|%d|%s|%d", l.IP, l.Path, l.Timestamp.UnixNano(), l.Action, l.Score)
}
