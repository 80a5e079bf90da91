package codec

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/bloops-games/launched/internal/gamestat"
	json "github.com/goccy/go-json"
)

const (
	TypeProfile = "UserStatsProfile"
	TypeRecord  = "GameRecord"

	// TimeLayout drops sub-second precision.
	TimeLayout = "2006-01-02 15:04:05"
)

var ErrMalformedDocument = fmt.Errorf("malformed document entry")

type recordDoc struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	FirstSeen   string `json:"first_seen"`
	LastSeen    string `json:"last_seen"`
	LaunchCount int    `json:"launch_count"`
	ActiveDays  int    `json:"active_days"`
	Marked      bool   `json:"marked"`
}

type profileDoc struct {
	Type          string                     `json:"type"`
	MostLaunched  *recordDoc                 `json:"most_launched"`
	LeastLaunched *recordDoc                 `json:"least_launched"`
	LastLaunched  *recordDoc                 `json:"last_launched"`
	Games         map[string]json.RawMessage `json:"games"`
	Order         []string                   `json:"order,omitempty"`
}

// Encode renders all profiles as one document keyed by user id.
func Encode(profiles map[int64]*gamestat.Profile) ([]byte, error) {
	doc := make(map[string]interface{}, len(profiles))
	for id, p := range profiles {
		if p == nil {
			continue
		}
		doc[strconv.FormatInt(id, 10)] = encodeProfile(p)
	}

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	return b, nil
}

type encodedProfile struct {
	Type          string                `json:"type"`
	MostLaunched  *recordDoc            `json:"most_launched"`
	LeastLaunched *recordDoc            `json:"least_launched"`
	LastLaunched  *recordDoc            `json:"last_launched"`
	Games         map[string]*recordDoc `json:"games"`
	Order         []string              `json:"order"`
}

func encodeProfile(p *gamestat.Profile) encodedProfile {
	records := p.Records()
	ep := encodedProfile{
		Type:          TypeProfile,
		MostLaunched:  encodeRecord(p.MostLaunched()),
		LeastLaunched: encodeRecord(p.LeastLaunched()),
		LastLaunched:  encodeRecord(p.LastLaunched()),
		Games:         make(map[string]*recordDoc, len(records)),
		Order:         make([]string, 0, len(records)),
	}

	for _, r := range records {
		ep.Games[r.Name] = encodeRecord(r)
		ep.Order = append(ep.Order, r.Name)
	}

	return ep
}

func encodeRecord(r *gamestat.Record) *recordDoc {
	if r == nil {
		return nil
	}

	return &recordDoc{
		Type:        TypeRecord,
		Name:        r.Name,
		FirstSeen:   r.FirstSeen.UTC().Format(TimeLayout),
		LastSeen:    r.LastSeen.UTC().Format(TimeLayout),
		LaunchCount: r.LaunchCount,
		ActiveDays:  r.ActiveDays,
		Marked:      r.Marked,
	}
}

type Decoded struct {
	Profiles map[int64]*gamestat.Profile
	// Skipped lists the entries that were left out, each wrapping ErrMalformedDocument.
	Skipped []error
}

// Decode parses a document produced by Encode. Entries that are not valid
// profiles or records are skipped and reported, the rest is kept. An empty
// document is an empty registry.
func Decode(data []byte, seeding gamestat.LeastSeeding) (Decoded, error) {
	res := Decoded{Profiles: map[int64]*gamestat.Profile{}}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return res, nil
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return res, fmt.Errorf("unmarshal document: %w", err)
	}

	for key, raw := range top {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			res.Skipped = append(res.Skipped, fmt.Errorf("user key %q: %w", key, ErrMalformedDocument))
			continue
		}

		p, skipped, err := decodeProfile(raw, seeding)
		if err != nil {
			res.Skipped = append(res.Skipped, fmt.Errorf("user %d: %v: %w", id, err, ErrMalformedDocument))
			continue
		}

		for _, e := range skipped {
			res.Skipped = append(res.Skipped, fmt.Errorf("user %d: %w", id, e))
		}

		res.Profiles[id] = p
	}

	return res, nil
}

func decodeProfile(raw json.RawMessage, seeding gamestat.LeastSeeding) (*gamestat.Profile, []error, error) {
	var pd profileDoc
	if err := json.Unmarshal(raw, &pd); err != nil {
		return nil, nil, fmt.Errorf("unmarshal profile: %v", err)
	}

	if pd.Type != TypeProfile {
		return nil, nil, fmt.Errorf("type %q is not a profile", pd.Type)
	}

	var skipped []error
	records := make(map[string]*gamestat.Record, len(pd.Games))
	for name, rawGame := range pd.Games {
		var rd recordDoc
		if err := json.Unmarshal(rawGame, &rd); err != nil {
			skipped = append(skipped, fmt.Errorf("game %q: %v: %w", name, err, ErrMalformedDocument))
			continue
		}

		if rd.Name == "" {
			rd.Name = name
		}

		r, err := decodeRecord(&rd)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("game %q: %v: %w", name, err, ErrMalformedDocument))
			continue
		}

		if r.Name != name {
			skipped = append(skipped, fmt.Errorf("game %q: named %q: %w", name, r.Name, ErrMalformedDocument))
			continue
		}

		records[name] = r
	}

	return gamestat.RestoreProfile(
		seeding,
		ordered(records, pd.Order),
		referenced(pd.MostLaunched),
		referenced(pd.LeastLaunched),
		referenced(pd.LastLaunched),
	), skipped, nil
}

func decodeRecord(rd *recordDoc) (*gamestat.Record, error) {
	if rd.Type != TypeRecord {
		return nil, fmt.Errorf("type %q is not a game record", rd.Type)
	}

	firstSeen, err := time.ParseInLocation(TimeLayout, rd.FirstSeen, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("first_seen: %v", err)
	}

	lastSeen, err := time.ParseInLocation(TimeLayout, rd.LastSeen, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("last_seen: %v", err)
	}

	if lastSeen.Before(firstSeen) {
		return nil, fmt.Errorf("last_seen before first_seen")
	}

	if rd.ActiveDays < 1 || rd.LaunchCount < rd.ActiveDays {
		return nil, fmt.Errorf("counts %d/%d out of range", rd.LaunchCount, rd.ActiveDays)
	}

	return &gamestat.Record{
		Name:        rd.Name,
		FirstSeen:   firstSeen,
		LastSeen:    lastSeen,
		LaunchCount: rd.LaunchCount,
		ActiveDays:  rd.ActiveDays,
		Marked:      rd.Marked,
	}, nil
}

// referenced returns the name a nested record points at, or "" if the nested
// object is not a record.
func referenced(rd *recordDoc) string {
	if rd == nil || rd.Type != TypeRecord {
		return ""
	}
	return rd.Name
}

// ordered lays records out in the stored scan order. Names missing from the
// order go last, by last_seen and then name.
func ordered(records map[string]*gamestat.Record, order []string) []*gamestat.Record {
	list := make([]*gamestat.Record, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, name := range order {
		r, ok := records[name]
		if !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		list = append(list, r)
	}

	var rest []*gamestat.Record
	for name, r := range records {
		if _, ok := seen[name]; !ok {
			rest = append(rest, r)
		}
	}
	sort.Slice(rest, func(i, j int) bool {
		if !rest[i].LastSeen.Equal(rest[j].LastSeen) {
			return rest[i].LastSeen.Before(rest[j].LastSeen)
		}
		return rest[i].Name < rest[j].Name
	})

	return append(list, rest...)
}
