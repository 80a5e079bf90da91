package gamestat

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// LeastSeeding names the starting value of the least-launched search when
// the profile has no least-launched game yet. The seed is always the count of
// a game that takes part in the scan and ties go to the later game, so both
// settings select the same record; the choice does not change the result.
type LeastSeeding uint8

const (
	// SeedFromTrigger starts from the count of the game that caused the
	// recomputation, as the first release of the bot did.
	SeedFromTrigger LeastSeeding = iota
	// SeedFromScan starts from +inf.
	SeedFromScan
)

func ParseLeastSeeding(s string) (LeastSeeding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "trigger":
		return SeedFromTrigger, nil
	case "scan":
		return SeedFromScan, nil
	default:
		return SeedFromTrigger, fmt.Errorf("unknown least seeding %q", s)
	}
}

func (s LeastSeeding) String() string {
	if s == SeedFromScan {
		return "scan"
	}
	return "trigger"
}

func NewProfile(seeding LeastSeeding) *Profile {
	return &Profile{seeding: seeding, games: map[string]*Record{}}
}

// RestoreProfile rebuilds a profile from decoded records. records must be in
// scan order. A reference naming an absent game is dropped.
func RestoreProfile(seeding LeastSeeding, records []*Record, most, least, last string) *Profile {
	p := NewProfile(seeding)
	for _, r := range records {
		if r == nil {
			continue
		}
		if _, ok := p.games[r.Name]; ok {
			continue
		}
		p.games[r.Name] = r
		p.order = append(p.order, r.Name)
	}

	p.mostLaunched = p.present(most)
	p.leastLaunched = p.present(least)
	p.lastLaunched = p.present(last)

	return p
}

// Profile is the launch statistics of one user. Games are scanned in order of
// insertion, and a game moves to the end of that order whenever a launch of it
// is confirmed, so ties in the extremes go to the most recently touched game.
type Profile struct {
	seeding LeastSeeding
	games   map[string]*Record
	order   []string

	mostLaunched  string
	leastLaunched string
	lastLaunched  string
}

func (p *Profile) Seeding() LeastSeeding {
	return p.seeding
}

func (p *Profile) Has(name string) bool {
	_, ok := p.games[name]
	return ok
}

func (p *Profile) Len() int {
	return len(p.games)
}

func (p *Profile) Get(name string) (*Record, bool) {
	r, ok := p.games[name]
	return r, ok
}

// Initialize adds a game first seen at ts.
func (p *Profile) Initialize(name string, ts time.Time, marked bool) error {
	if p.Has(name) {
		return fmt.Errorf("initialize %q: %w", name, ErrDuplicateRecord)
	}

	r := NewRecord(name, ts)
	r.SetMarked(marked)
	p.games[name] = r
	p.order = append(p.order, name)
	p.lastLaunched = name
	p.RecomputeExtremes(name)

	return nil
}

// ApplyLaunch confirms a launch of a known game. A timestamp that is not after
// the stored LastSeen is a stale or repeated event and changes nothing.
func (p *Profile) ApplyLaunch(name string, ts time.Time) (bool, error) {
	r, ok := p.games[name]
	if !ok {
		return false, fmt.Errorf("apply launch %q: %w", name, ErrUnknownRecord)
	}

	if !ts.After(r.LastSeen) {
		return false, nil
	}

	r.ConfirmLaunch(ts)
	p.touch(name)
	p.lastLaunched = name
	p.RecomputeExtremes(name)

	return true, nil
}

// RecomputeExtremes rescans the games for the most and least launched ones.
// trigger is the game whose update caused the scan.
func (p *Profile) RecomputeExtremes(trigger string) {
	most, maxCount := "", 0
	for _, name := range p.order {
		if c := p.games[name].LaunchCount; c >= maxCount {
			maxCount = c
			most = name
		}
	}
	p.mostLaunched = most

	minCount := math.MaxInt
	if r, ok := p.games[p.leastLaunched]; ok {
		minCount = r.LaunchCount
	} else if r, ok := p.games[trigger]; ok && p.seeding == SeedFromTrigger {
		minCount = r.LaunchCount
	}

	least := ""
	for _, name := range p.order {
		if c := p.games[name].LaunchCount; c <= minCount {
			minCount = c
			least = name
		}
	}
	p.leastLaunched = least
}

func (p *Profile) Mark(name string, marked bool) error {
	r, ok := p.games[name]
	if !ok {
		return fmt.Errorf("mark %q: %w", name, ErrUnknownRecord)
	}

	r.SetMarked(marked)
	return nil
}

func (p *Profile) IsMarked(name string) bool {
	r, ok := p.games[name]
	return ok && r.Marked
}

func (p *Profile) MostLaunched() *Record {
	return p.games[p.mostLaunched]
}

func (p *Profile) LeastLaunched() *Record {
	return p.games[p.leastLaunched]
}

func (p *Profile) LastLaunched() *Record {
	return p.games[p.lastLaunched]
}

// Games returns copies of the records in scan order.
func (p *Profile) Games() []Record {
	list := make([]Record, 0, len(p.order))
	for _, name := range p.order {
		list = append(list, *p.games[name])
	}
	return list
}

// Marked returns copies of the marked records in scan order.
func (p *Profile) Marked() []Record {
	var list []Record
	for _, name := range p.order {
		if r := p.games[name]; r.Marked {
			list = append(list, *r)
		}
	}
	return list
}

// Records returns the live records in scan order.
func (p *Profile) Records() []*Record {
	list := make([]*Record, 0, len(p.order))
	for _, name := range p.order {
		list = append(list, p.games[name])
	}
	return list
}

func (p *Profile) touch(name string) {
	for i, n := range p.order {
		if n == name {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	p.order = append(p.order, name)
}

func (p *Profile) present(name string) string {
	if _, ok := p.games[name]; ok {
		return name
	}
	return ""
}
