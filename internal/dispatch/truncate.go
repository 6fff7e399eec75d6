package dispatch

import "github.com/howard-nolan/vertexproxy/internal/translate"

// minRetainedMessages is the tail of the conversation auto-truncate
// must never drop, regardless of how far over budget the request is
// (spec.md §4.5, P8).
const minRetainedMessages = 4

// charsPerToken is the rough estimator spec.md §4.5 calls for:
// "estimated token count (≈ chars/4)".
const charsPerToken = 4

// estimateTokens approximates a message list's token count by summing
// character counts and dividing by charsPerToken. System messages still
// present in msgs are counted like any other message.
func estimateTokens(msgs []translate.Message) int {
	chars := 0
	for _, m := range msgs {
		chars += len(m.Text())
	}
	return chars / charsPerToken
}

// AutoTruncate drops the oldest non-system messages from msgs until
// the estimated remaining token count plus reserveOutput fits within
// contextWindow, per spec.md §4.5 step 2. It always retains the last
// minRetainedMessages non-system messages verbatim and never reorders
// what remains (P8). System messages are never dropped and never
// counted against minRetainedMessages: ExtractSystem only pulls them
// out of the translators' own input, further down the pipeline inside
// buildBody, so a system message can still be sitting anywhere in
// msgs when AutoTruncate runs and must survive regardless of position.
func AutoTruncate(msgs []translate.Message, contextWindow, reserveOutput int) []translate.Message {
	if contextWindow <= 0 {
		return msgs
	}

	nonSystemCount := countNonSystem(msgs)
	if nonSystemCount <= minRetainedMessages {
		return msgs
	}

	budget := contextWindow - reserveOutput
	if budget <= 0 {
		return dropOldestNonSystem(msgs, nonSystemCount-minRetainedMessages)
	}

	drop := 0
	trimmed := msgs
	for nonSystemCount-drop > minRetainedMessages && estimateTokens(trimmed) > budget {
		drop++
		trimmed = dropOldestNonSystem(msgs, drop)
	}
	return trimmed
}

func countNonSystem(msgs []translate.Message) int {
	n := 0
	for _, m := range msgs {
		if m.Role != "system" {
			n++
		}
	}
	return n
}

// dropOldestNonSystem returns msgs with the first n non-system
// messages removed, keeping every system message and the relative
// order of everything that remains.
func dropOldestNonSystem(msgs []translate.Message, n int) []translate.Message {
	if n <= 0 {
		return msgs
	}
	out := make([]translate.Message, 0, len(msgs))
	skipped := 0
	for _, m := range msgs {
		if m.Role != "system" && skipped < n {
			skipped++
			continue
		}
		out = append(out, m)
	}
	return out
}
