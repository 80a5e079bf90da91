package presence

import "time"

type Kind uint8

const (
	KindIdle Kind = iota
	KindPlaying
)

func (k Kind) String() string {
	if k == KindPlaying {
		return "playing"
	}
	return "idle"
}

// Activity is what a user is doing according to the presence source. Every
// activity that is not a game is Idle.
type Activity struct {
	Kind  Kind
	Name  string
	Start time.Time
}

func Idle() Activity {
	return Activity{Kind: KindIdle}
}

func Playing(name string, start time.Time) Activity {
	return Activity{Kind: KindPlaying, Name: name, Start: start}
}

func (a Activity) IsPlaying() bool {
	return a.Kind == KindPlaying && a.Name != ""
}

func (a Activity) Equal(o Activity) bool {
	if !a.IsPlaying() || !o.IsPlaying() {
		return a.IsPlaying() == o.IsPlaying()
	}
	return a.Name == o.Name && a.Start.Equal(o.Start)
}

// Event is one presence change of a user.
type Event struct {
	UserID     int64
	Before     Activity
	After      Activity
	ObservedAt time.Time
}

// Normalize brings the event timestamps to the resolution of the durable
// document: UTC, whole seconds. Missing times are taken from now.
func (e Event) Normalize(now time.Time) Event {
	if e.ObservedAt.IsZero() {
		e.ObservedAt = now
	}
	e.ObservedAt = truncate(e.ObservedAt)
	e.Before = e.Before.normalize(e.ObservedAt)
	e.After = e.After.normalize(e.ObservedAt)

	return e
}

func (a Activity) normalize(observedAt time.Time) Activity {
	if !a.IsPlaying() {
		return Idle()
	}
	if a.Start.IsZero() {
		a.Start = observedAt
	}
	a.Start = truncate(a.Start)

	return a
}

func truncate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
