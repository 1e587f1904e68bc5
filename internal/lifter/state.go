package lifter

import "fmt"

// State is a stage of processing one section.
type State int

const (
	StateResolving State = iota
	StateFetching
	StateExtractingHit
	StateGating
	StateDownloading
	StateVerifying
	StateUnpacking
	StateFinalizing
	StateDone
)

var stateNames = [...]string{
	StateResolving:     "resolving",
	StateFetching:      "fetching",
	StateExtractingHit: "extracting hit",
	StateGating:        "gating",
	StateDownloading:   "downloading",
	StateVerifying:     "verifying",
	StateUnpacking:     "unpacking",
	StateFinalizing:    "finalizing",
	StateDone:          "done",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Outcome is how a section run ended when it did not fail.
type Outcome int

const (
	// OutcomeSkipped means the section has no page_url.
	OutcomeSkipped Outcome = iota
	// OutcomeNoMatch means the page had no matching download.
	OutcomeNoMatch
	// OutcomeUpToDate means the found version is not newer.
	OutcomeUpToDate
	// OutcomeUnsupported means the download has an unrecognized extension.
	OutcomeUnsupported
	// OutcomeMemberMissing means the archive had no matching file.
	OutcomeMemberMissing
	// OutcomeUpdated means a new version was installed and recorded.
	OutcomeUpdated
)

var outcomeNames = [...]string{
	OutcomeSkipped:       "skipped",
	OutcomeNoMatch:       "no match",
	OutcomeUpToDate:      "up to date",
	OutcomeUnsupported:   "unsupported",
	OutcomeMemberMissing: "member missing",
	OutcomeUpdated:       "updated",
}

func (o Outcome) String() string {
	if o >= 0 && int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}
