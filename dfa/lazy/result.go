package lazy

import "fmt"

// Verdict discriminates the three possible outcomes of a search.
type Verdict uint8

const (
	// VerdictMatch means a match was found.
	VerdictMatch Verdict = iota

	// VerdictNoMatch means the searched region contains no match.
	VerdictNoMatch

	// VerdictQuit means the engine gave up before finishing: it hit a
	// byte it cannot decide (Unicode word boundaries on non-ASCII
	// input) or its cache thrashed. The caller must re-run the search
	// on a different engine; nothing can be concluded from Quit.
	VerdictQuit
)

// String returns the verdict name.
func (v Verdict) String() string {
	switch v {
	case VerdictMatch:
		return "Match"
	case VerdictNoMatch:
		return "NoMatch"
	case VerdictQuit:
		return "Quit"
	default:
		return fmt.Sprintf("UnknownVerdict(%d)", v)
	}
}

// Result is the outcome of one search. It is a closed three-way value,
// never an error: a search over valid inputs cannot fail, only succeed,
// report no match, or give up.
//
// The position means different things per verdict and direction:
//   - Match, forward: the exclusive end offset of the leftmost match.
//   - Match, reverse: the inclusive start offset of the match.
//   - NoMatch: how far the input was scanned before the verdict became
//     certain. Callers resuming a search elsewhere can skip this region.
//   - Quit: meaningless, always 0.
type Result struct {
	verdict Verdict
	pos     int
}

// Matched returns a match result at pos.
func Matched(pos int) Result {
	return Result{verdict: VerdictMatch, pos: pos}
}

// NoMatch returns a no-match result with the scanned extent.
func NoMatch(scannedTo int) Result {
	return Result{verdict: VerdictNoMatch, pos: scannedTo}
}

// Quit returns the give-up result.
func Quit() Result {
	return Result{verdict: VerdictQuit}
}

// Verdict returns the outcome discriminant.
func (r Result) Verdict() Verdict { return r.verdict }

// IsMatch returns true for a match result.
func (r Result) IsMatch() bool { return r.verdict == VerdictMatch }

// IsNoMatch returns true for a no-match result.
func (r Result) IsNoMatch() bool { return r.verdict == VerdictNoMatch }

// IsQuit returns true if the engine gave up.
func (r Result) IsQuit() bool { return r.verdict == VerdictQuit }

// Position returns the match end (forward), match start (reverse) or
// scanned extent (no match). See the Result documentation.
func (r Result) Position() int { return r.pos }

// String formats the result for diagnostics.
func (r Result) String() string {
	switch r.verdict {
	case VerdictMatch:
		return fmt.Sprintf("Match(%d)", r.pos)
	case VerdictNoMatch:
		return fmt.Sprintf("NoMatch(%d)", r.pos)
	default:
		return "Quit"
	}
}

// orNoMatch records the scanned extent without clobbering a match found
// earlier in the scan.
func (r Result) orNoMatch(scannedTo int) Result {
	if r.verdict == VerdictMatch {
		return r
	}
	return NoMatch(scannedTo)
}
