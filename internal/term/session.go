package term

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"

	creackpty "github.com/creack/pty"
)

// Session wraps a shell child process running inside a PTY. The read pump
// routes output through the shell-integration decoder, so marker sequences
// become execution events and everything else is forwarded as output.
type Session struct {
	id string

	cmd  *exec.Cmd
	ptmx *os.File

	events   chan Event
	readDone chan struct{}
	decoder  *oscDecoder

	// seq and open are touched only by the read pump goroutine.
	seq  int
	open []string

	cols uint16
	rows uint16

	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
}

// newSession spawns a command inside a new PTY and returns the Session.
// The PTY is created with a default size of 120 columns x 30 rows.
func newSession(id string, argv []string, workDir string, env []string) (*Session, error) {
	if len(argv) == 0 {
		return nil, errors.New("term: argv must not be empty")
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = workDir
	if len(env) > 0 {
		cmd.Env = env
	}

	defaultCols := uint16(120)
	defaultRows := uint16(30)

	ptmx, err := creackpty.StartWithSize(cmd, &creackpty.Winsize{
		Cols: defaultCols,
		Rows: defaultRows,
	})
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:       id,
		cmd:      cmd,
		ptmx:     ptmx,
		events:   make(chan Event, 1024),
		readDone: make(chan struct{}),
		decoder:  newOSCDecoder(),
		cols:     defaultCols,
		rows:     defaultRows,
	}

	go s.readPump()
	go s.waitExit()

	return s, nil
}

// readPump reads data from the PTY fd, decodes shell-integration markers,
// and emits output and execution events. It runs until the PTY is closed
// or any read error occurs.
func (s *Session) readPump() {
	defer close(s.readDone)

	buf := make([]byte, 4096)
	for {
		n, err := s.ptmx.Read(buf)
		if n > 0 {
			out, signals := s.decoder.Feed(buf[:n])
			if len(out) > 0 {
				s.events <- Event{Type: EventOutput, ID: s.id, Data: string(out)}
			}
			for _, sig := range signals {
				s.emitExec(sig)
			}
		}
		if err != nil {
			break
		}
	}
}

// emitExec turns a decoded signal into an execution event. End signals are
// matched to the earliest unfinished start; an end with no matching start
// (the shell's first prompt) is dropped.
func (s *Session) emitExec(sig execSignal) {
	if sig.started {
		s.seq++
		handle := fmt.Sprintf("exec-%d", s.seq)
		s.open = append(s.open, handle)
		s.events <- Event{Type: EventExecStart, ID: s.id, Handle: handle, Command: sig.command}
		return
	}
	if len(s.open) == 0 {
		return
	}
	handle := s.open[0]
	s.open = s.open[1:]
	s.events <- Event{Type: EventExecEnd, ID: s.id, Handle: handle, ExitCode: sig.exitCode}
}

// waitExit waits for the child process to exit and the read pump to drain,
// then sends an EventClosed event and closes the events channel. Waiting for
// the pump first keeps it from sending on the channel after the close.
func (s *Session) waitExit() {
	_ = s.cmd.Wait()
	<-s.readDone

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.events <- Event{Type: EventClosed, ID: s.id}
	close(s.events)
}

// Events returns the read-only channel of session events.
func (s *Session) Events() <-chan Event { return s.events }

// Write sends data to the PTY (and therefore to the child process's stdin).
func (s *Session) Write(data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, errors.New("term: session is closed")
	}
	return s.ptmx.Write(data)
}

// Resize changes the PTY window size.
func (s *Session) Resize(cols, rows uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("term: session is closed")
	}

	if err := creackpty.Setsize(s.ptmx, &creackpty.Winsize{
		Cols: cols,
		Rows: rows,
	}); err != nil {
		return err
	}

	s.cols = cols
	s.rows = rows
	return nil
}

// Close terminates the child process (SIGTERM) and closes the PTY fd.
// It is safe to call Close multiple times.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		// Send SIGTERM to the child process if it is still running.
		if s.cmd.Process != nil {
			_ = s.cmd.Process.Signal(syscall.SIGTERM)
		}

		err = s.ptmx.Close()
	})
	return err
}
