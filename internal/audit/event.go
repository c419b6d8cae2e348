// Package audit records what awsgate did with each request: the text
// audit log and a queryable SQLite event store.
//
// Text format (one line per event):
//
//	TIMESTAMP AWSGATE TYPE req=ID tool=TOOL profile=P region=R cmd="..." [type-specific fields]
package audit

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EventType identifies an audit event.
type EventType string

const (
	// EventRequest is logged when a tool call arrives.
	EventRequest EventType = "REQUEST"
	// EventAllow is logged when policy allows the command.
	EventAllow EventType = "ALLOW"
	// EventDeny is logged when policy, validation or approval denies the command.
	EventDeny EventType = "DENY"
	// EventApprove is logged when the operator approves a write.
	EventApprove EventType = "APPROVE"
	// EventReject is logged when the operator rejects a write or does not answer.
	EventReject EventType = "REJECT"
	// EventComplete is logged when the aws process finishes.
	EventComplete EventType = "COMPLETE"
	// EventTimeout is logged when the aws process is killed on timeout.
	EventTimeout EventType = "TIMEOUT"
	// EventCancel is logged when the caller went away mid-request.
	EventCancel EventType = "CANCEL"
)

// Event is a single audit record.
type Event struct {
	Timestamp time.Time
	Type      EventType
	RequestID string
	Tool      string
	Profile   string
	Region    string
	Cmd       string

	Entry    string // matching catalogue entry (ALLOW)
	Code     string // reason code (DENY, REJECT)
	Reason   string // human-readable reason (DENY, REJECT)
	ExitCode int    // COMPLETE
	Duration time.Duration
}

// Format renders the event as one log line without a trailing newline.
func (e *Event) Format() string {
	var b strings.Builder

	b.WriteString(e.Timestamp.UTC().Format(time.RFC3339))
	b.WriteString(" AWSGATE ")
	b.WriteString(string(e.Type))

	b.WriteString(" req=")
	b.WriteString(e.RequestID)
	b.WriteString(" tool=")
	b.WriteString(e.Tool)
	b.WriteString(" profile=")
	b.WriteString(e.Profile)
	b.WriteString(" region=")
	b.WriteString(e.Region)
	b.WriteString(" cmd=")
	b.WriteString(quoteValue(e.Cmd))

	switch e.Type {
	case EventAllow:
		writeOptionalField(&b, "entry", e.Entry)
	case EventDeny, EventReject:
		writeOptionalField(&b, "code", e.Code)
		writeOptionalField(&b, "reason", e.Reason)
	case EventComplete:
		b.WriteString(" exit=")
		b.WriteString(strconv.Itoa(e.ExitCode))
		b.WriteString(" duration=")
		b.WriteString(formatDuration(e.Duration))
	case EventTimeout, EventCancel:
		b.WriteString(" duration=")
		b.WriteString(formatDuration(e.Duration))
	}

	return b.String()
}

func writeOptionalField(b *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	b.WriteString(" ")
	b.WriteString(key)
	b.WriteString("=")
	b.WriteString(quoteValue(value))
}

// quoteValue quotes s so embedded spaces, quotes and newlines stay on one line.
func quoteValue(s string) string {
	return fmt.Sprintf("%q", s)
}

// formatDuration renders d compactly: "12.5ms", "3.2s", "2m5s".
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return d.Round(time.Second).String()
}
