package lifter

import "fmt"

// EventKind identifies a progress event.
type EventKind int

const (
	CheckStart EventKind = iota
	CheckEnd
	UpToDate
	NeedsUpdate
	DownloadProgress
	Updated
	NoMoreWork
)

func (k EventKind) String() string {
	switch k {
	case CheckStart:
		return "check_start"
	case CheckEnd:
		return "check_end"
	case UpToDate:
		return "up_to_date"
	case NeedsUpdate:
		return "needs_update"
	case DownloadProgress:
		return "download_progress"
	case Updated:
		return "updated"
	case NoMoreWork:
		return "no_more_work"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event reports progress of a run. Which fields are set depends on Kind:
// UpToDate and Updated carry Version, NeedsUpdate carries Current and
// Latest, DownloadProgress carries Progress in [0, 1]. NoMoreWork has no
// Section.
type Event struct {
	Kind     EventKind
	Section  string
	Version  string
	Current  string
	Latest   string
	Progress float64
}

// Sink receives events. Emit is called from worker goroutines.
type Sink interface {
	Emit(Event)
}

// ChannelSink delivers events over a buffered channel. DownloadProgress
// events are dropped when the buffer is full; every other kind waits for
// room, so the consumer must keep reading until NoMoreWork.
type ChannelSink struct {
	ch chan Event
}

// NewChannelSink creates a ChannelSink with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{ch: make(chan Event, buffer)}
}

// Events returns the receive side of the channel.
func (s *ChannelSink) Events() <-chan Event {
	return s.ch
}

// Emit implements Sink.
func (s *ChannelSink) Emit(e Event) {
	if e.Kind == DownloadProgress {
		select {
		case s.ch <- e:
		default:
		}
		return
	}
	s.ch <- e
}

// Close closes the channel. No Emit may follow.
func (s *ChannelSink) Close() {
	close(s.ch)
}

type discardSink struct{}

func (discardSink) Emit(Event) {}
