package term

// EventType distinguishes the kind of event produced by a Session.
type EventType int

const (
	// EventOutput indicates that new data was read from the PTY.
	EventOutput EventType = iota
	// EventExecStart indicates that the shell began executing a command.
	EventExecStart
	// EventExecEnd indicates that an execution finished with an exit code.
	EventExecEnd
	// EventClosed indicates that the shell process has exited.
	EventClosed
)

// Event is a single notification emitted by a Session. Execution events
// carry a handle that is unique per execution and never reused.
type Event struct {
	Type     EventType
	ID       string
	Data     string
	Handle   string
	Command  string
	ExitCode int
}
