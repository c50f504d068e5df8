package memory

import "time"

// Turn is one stored conversation exchange. Role is "user" or "assistant".
type Turn struct {
	Role      string
	Content   string
	Timestamp time.Time
}

// Snapshot is a bounded read of recent history, oldest first. It is taken
// once at the start of an evaluation; turns created afterwards are not
// visible to that evaluation.
type Snapshot struct {
	UserID string
	Turns  []Turn
}

func (s Snapshot) Empty() bool {
	return len(s.Turns) == 0
}
