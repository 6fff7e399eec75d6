package sse

// State is live for the duration of one streaming response (spec.md
// §3). It is owned entirely by the goroutine running Run; nothing
// outlives the request.
type State struct {
	CompletionID             string
	ChunkCount               int
	RoleFrameSent            bool
	ReceivedTerminalUpstream bool
	FinalFrameSent           bool
	DoneSentinelSent         bool
}

// CleanClose reports whether the stream reached the fully-framed end
// state spec.md §3 requires: either every boolean below is true, or
// (checked by the caller) the connection was simply closed early with
// none of the terminal-framing booleans set.
func (s *State) CleanClose() bool {
	return s.RoleFrameSent && s.FinalFrameSent && s.DoneSentinelSent
}
