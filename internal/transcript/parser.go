package transcript

import (
	"bufio"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// SystemSpeaker is the speaker assigned to lines that carry no sender of
// their own (join/leave notices, unsent-message markers and similar).
const SystemSpeaker = "system"

// ErrNoMessages is returned when the input contains no extractable
// speaker/message pairs at all.
var ErrNoMessages = errors.New("transcript contains no parseable messages")

// Message is a single parsed transcript line. Immutable once parsed.
type Message struct {
	Speaker   string    `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp,omitempty"` // zero when no date header preceded the line
	RawLine   string    `json:"raw_line"`
}

// IsSystem reports whether the message is a system notice rather than a
// speaker-attributed chat line.
func (m Message) IsSystem() bool {
	return m.Speaker == SystemSpeaker
}

var (
	// "2025.04.22 星期二", the date header emitted once per day by the export.
	dateHeaderRe = regexp.MustCompile(`^(\d{4})\.(\d{2})\.(\d{2})(?:\s+\S+)?$`)
	// "21:49 林國晴 訊息內容", where the sender is taken verbatim from the first
	// name token; no alias resolution is attempted.
	messageRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s+(\S+)\s+(.+)$`)
	// Day separator sentinels some exports insert between days.
	separatorRe = regexp.MustCompile(`^[-—=_*]{3,}$`)
)

// Result carries the parsed messages plus bookkeeping about what was dropped.
type Result struct {
	Messages []Message
	Skipped  int // empty lines, date headers and separators
}

// Parse turns a raw multi-line chat export into an ordered message sequence.
//
// Parsing never fails on a single bad line. It fails with ErrNoMessages only
// when not a single speaker-attributed line could be extracted, which means
// the input was not a chat export at all.
func Parse(raw string) (*Result, error) {
	res := &Result{}
	var currentDate time.Time
	speakerLines := 0

	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			res.Skipped++
			continue
		}

		if m := dateHeaderRe.FindStringSubmatch(line); m != nil {
			currentDate = headerDate(m)
			res.Skipped++
			continue
		}
		if separatorRe.MatchString(line) {
			res.Skipped++
			continue
		}

		if m := messageRe.FindStringSubmatch(line); m != nil {
			hour, _ := strconv.Atoi(m[1])
			minute, _ := strconv.Atoi(m[2])
			if hour < 24 && minute < 60 {
				res.Messages = append(res.Messages, Message{
					Speaker:   m[3],
					Text:      m[4],
					Timestamp: stamp(currentDate, hour, minute),
					RawLine:   line,
				})
				speakerLines++
				continue
			}
		}

		// Anything else is a system notice; downstream scoring treats it
		// as low-signal rather than dropping it.
		res.Messages = append(res.Messages, Message{
			Speaker: SystemSpeaker,
			Text:    line,
			RawLine: line,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan transcript: %w", err)
	}

	if speakerLines == 0 {
		return nil, ErrNoMessages
	}
	return res, nil
}

func headerDate(m []string) time.Time {
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)
}

func stamp(date time.Time, hour, minute int) time.Time {
	if date.IsZero() {
		return time.Time{}
	}
	return date.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}
