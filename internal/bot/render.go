package bot

import (
	"strconv"
	"strings"

	"github.com/bloops-games/launched/internal/bot/resource"
	"github.com/bloops-games/launched/internal/engine"
	"github.com/bloops-games/launched/internal/gamestat"
	"github.com/bloops-games/launched/internal/strpool"
)

// gamesPerLine matches the four-per-row listing of the first bot.
const gamesPerLine = 4

var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

func escape(s string) string {
	return markdownEscaper.Replace(s)
}

func renderList(header, empty string, games []gamestat.Record) string {
	if len(games) == 0 {
		return header + empty
	}

	return strpool.Build(func(buf *strings.Builder) {
		buf.WriteString(header)
		for i, g := range games {
			if i > 0 {
				if i%gamesPerLine == 0 {
					buf.WriteString("\n")
				} else {
					buf.WriteString(" ")
				}
			}
			buf.WriteString(resource.TextListBullet)
			buf.WriteString(escape(g.Name))
		}
	})
}

// renderStats renders the body of a /stats reply, without the title.
func renderStats(stats engine.Stats) string {
	if stats.MostLaunched == nil && stats.LeastLaunched == nil && stats.LastLaunched == nil {
		return resource.TextNoStatsMsg
	}

	return strpool.Build(func(buf *strings.Builder) {
		writeRecord(buf, resource.TextMostLaunched, stats.MostLaunched)
		writeRecord(buf, resource.TextLeastLaunched, stats.LeastLaunched)
		writeRecord(buf, resource.TextLastLaunched, stats.LastLaunched)
	})
}

func writeRecord(buf *strings.Builder, title string, r *gamestat.Record) {
	if r == nil {
		return
	}
	if buf.Len() > 0 {
		buf.WriteString("\n\n")
	}
	buf.WriteString("*")
	buf.WriteString(title)
	buf.WriteString("*\n")
	buf.WriteString(escape(r.Name))
	buf.WriteString("\n")
	buf.WriteString(resource.TextFirstPlayed)
	buf.WriteString(r.FirstSeen.Format(resource.TextStatsDateStamp))
	buf.WriteString("\n")
	buf.WriteString(resource.TextLastPlayed)
	buf.WriteString(r.LastSeen.Format(resource.TextStatsDateStamp))
	buf.WriteString("\n")
	buf.WriteString(resource.TextTimesLaunched)
	buf.WriteString(strconv.Itoa(r.LaunchCount))
	buf.WriteString("\n")
	buf.WriteString(resource.TextDaysLaunched)
	buf.WriteString(strconv.Itoa(r.ActiveDays))
}
