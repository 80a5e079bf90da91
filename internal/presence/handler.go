package presence

import (
	"fmt"
	"time"

	"github.com/bloops-games/launched/internal/gamestat"
)

// Notification tells that a user launched a game they marked.
type Notification struct {
	UserID int64
	Game   string
}

type Result struct {
	Mutated       bool
	Notifications []Notification
}

func NewHandler() *Handler {
	return &Handler{}
}

// Handler turns presence transitions into profile updates. It keeps no state.
type Handler struct{}

// Apply mutates p according to ev. ev is expected to be normalized.
func (h *Handler) Apply(p *gamestat.Profile, ev Event) (Result, error) {
	var res Result
	before, after := ev.Before, ev.After

	switch {
	case !before.IsPlaying() && after.IsPlaying():
		if err := h.launch(p, ev.UserID, after, &res); err != nil {
			return res, err
		}
	case before.IsPlaying() && !before.Equal(after):
		if err := h.stop(p, before, ev, &res); err != nil {
			return res, err
		}
		if after.IsPlaying() {
			if err := h.launch(p, ev.UserID, after, &res); err != nil {
				return res, err
			}
		}
	}

	return res, nil
}

func (h *Handler) launch(p *gamestat.Profile, userID int64, a Activity, res *Result) error {
	mutated, err := upsert(p, a.Name, a.Start, a.Start)
	if err != nil {
		return fmt.Errorf("launch: %w", err)
	}

	res.Mutated = res.Mutated || mutated
	if p.IsMarked(a.Name) {
		res.Notifications = append(res.Notifications, Notification{UserID: userID, Game: a.Name})
	}

	return nil
}

// stop closes the session of the game in before. The source gives no reliable
// end time, so the moment the stop is observed is used.
func (h *Handler) stop(p *gamestat.Profile, before Activity, ev Event, res *Result) error {
	mutated, err := upsert(p, before.Name, before.Start, ev.ObservedAt)
	if err != nil {
		return fmt.Errorf("stop: %w", err)
	}

	res.Mutated = res.Mutated || mutated
	return nil
}

// upsert initializes an unseen game at firstSeen or applies a launch at ts.
func upsert(p *gamestat.Profile, name string, firstSeen, ts time.Time) (bool, error) {
	if !p.Has(name) {
		if err := p.Initialize(name, firstSeen, false); err != nil {
			return false, err
		}
		return true, nil
	}

	return p.ApplyLaunch(name, ts)
}
