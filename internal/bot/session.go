package bot

import "clipcast/internal/types"

// Conversation states. Each chat walks the same fixed path: video, title,
// channel, duration, color, then the job is submitted and the session ends.
type state int

const (
	stateAwaitVideo state = iota
	stateAwaitTitle
	stateAwaitChannel
	stateAwaitDuration
	stateAwaitColor
)

type session struct {
	state state
	draft types.JobInput
}
