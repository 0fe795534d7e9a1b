// Package eventbuf implements the size-bounded, JSON-encoded log of
// externally observable events produced during a rendered chunk, including
// the "skipping" overflow mode, grounded on the reference engine's
// Event_buffer.c.
package eventbuf

import (
	"strconv"
	"strings"

	"kunquat/event"
)

// LenMax bounds a single encoded event's serialized length (spec
// EVENT_LEN_MAX); values longer than this are truncated before appending.
const LenMax = 256

// Buffer accumulates `[[ch, [name, value]], ...]` JSON across one render
// chunk. Once the encoded length would exceed size - LenMax, it flips into
// skipping mode: further Add calls only increment EventsSkipped.
type Buffer struct {
	size int

	sb             strings.Builder
	count          int
	skipping       bool
	eventsAdded    int
	eventsSkipped  int
}

// New allocates a Buffer with the given maximum encoded size in bytes.
func New(size int) *Buffer {
	return &Buffer{size: size}
}

// Add appends one observable event. Returns false if the buffer was
// already in skipping mode or this event would not fit and switches it
// into skipping mode (either way the event is counted as skipped, not
// written).
func (b *Buffer) Add(ch int, ev event.Event) bool {
	if b.skipping {
		b.eventsSkipped++
		return false
	}

	encoded := encodeEvent(ch, ev)

	prospective := b.sb.Len() + len(encoded)
	if b.count > 0 {
		prospective++ // comma separator
	}
	if prospective > b.size-LenMax {
		b.skipping = true
		b.eventsSkipped++
		return false
	}

	if b.count > 0 {
		b.sb.WriteByte(',')
	}
	b.sb.WriteString(encoded)
	b.count++
	b.eventsAdded++
	return true
}

// IsFull reports whether the buffer has entered skipping mode.
func (b *Buffer) IsFull() bool { return b.skipping }

// IsSkipping is an alias for IsFull matching the original field name.
func (b *Buffer) IsSkipping() bool { return b.skipping }

// EventsAdded returns the count of events successfully written this
// generation.
func (b *Buffer) EventsAdded() int { return b.eventsAdded }

// EventsSkipped returns the count of events dropped due to overflow.
func (b *Buffer) EventsSkipped() int { return b.eventsSkipped }

// String returns the buffer's current contents as a JSON array string.
func (b *Buffer) String() string {
	var out strings.Builder
	out.WriteByte('[')
	out.WriteString(b.sb.String())
	out.WriteByte(']')
	return out.String()
}

// Reset clears the buffer for the next chunk: write position, skip state,
// and counters all restart. Unread content is discarded. Events skipped
// while in skipping mode are only counted, never stored, so Reset does not
// replay them.
func (b *Buffer) Reset() {
	b.sb.Reset()
	b.count = 0
	b.skipping = false
	b.eventsAdded = 0
	b.eventsSkipped = 0
}

func encodeEvent(ch int, ev event.Event) string {
	var sb strings.Builder
	sb.WriteByte('[')
	sb.WriteString(strconv.Itoa(ch))
	sb.WriteString(",[\"")
	sb.WriteString(escapeName(ev.Type.Name()))
	sb.WriteString("\",")
	sb.WriteString(encodeArg(ev.Arg))
	sb.WriteString("]]")

	s := sb.String()
	if len(s) > LenMax {
		s = s[:LenMax]
	}
	return s
}

// escapeName escapes a trailing double-quote in an event name, matching
// the original encoder's specific handling of names ending in `"`.
func escapeName(name string) string {
	if strings.HasSuffix(name, "\"") {
		return name[:len(name)-1] + "\\\""
	}
	return name
}

func encodeArg(a event.Arg) string {
	switch a.Kind {
	case event.ArgNone:
		return "null"
	case event.ArgBool:
		if a.Bool {
			return "true"
		}
		return "false"
	case event.ArgInt:
		return strconv.FormatInt(a.Int, 10)
	case event.ArgFloat:
		return strconv.FormatFloat(a.Float, 'g', -1, 64)
	case event.ArgTstamp:
		return "[" + strconv.FormatInt(a.Beats, 10) + "," + strconv.FormatInt(int64(a.Rem), 10) + "]"
	case event.ArgString:
		return "\"" + escapeName(a.Str) + "\""
	case event.ArgRealtime:
		switch a.RTKind {
		case event.ArgBool:
			if a.Bool {
				return "true"
			}
			return "false"
		case event.ArgInt:
			return strconv.FormatInt(a.Int, 10)
		case event.ArgTstamp:
			return "[" + strconv.FormatInt(a.Beats, 10) + "," + strconv.FormatInt(int64(a.Rem), 10) + "]"
		default:
			return strconv.FormatFloat(a.Float, 'g', -1, 64)
		}
	default:
		return "null"
	}
}
