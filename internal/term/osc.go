package term

import (
	"bytes"
	"encoding/base64"
	"strconv"
	"strings"
)

// Shell-integration markers are OSC sequences the injected prompt hooks
// emit around every command:
//
//	OSC 633;E;<base64 command> — the command line about to run
//	OSC 133;C                 — execution started
//	OSC 133;D;<exit code>     — execution finished
//	OSC 133;A                 — prompt start (ignored)
//
// The decoder strips these from the output stream so they never reach the
// user's terminal, and turns them into execution signals.

const maxPartialSeq = 4096

type execSignal struct {
	started  bool
	command  string
	exitCode int
}

// oscDecoder incrementally scans PTY output. It tolerates marker sequences
// split across read chunks by carrying the unfinished tail between feeds.
type oscDecoder struct {
	partial []byte
	command string
}

func newOSCDecoder() *oscDecoder {
	return &oscDecoder{}
}

// Feed consumes a chunk of raw output and returns the passthrough bytes
// plus any decoded execution signals, in stream order.
func (d *oscDecoder) Feed(p []byte) ([]byte, []execSignal) {
	data := p
	if len(d.partial) > 0 {
		data = append(d.partial, p...)
		d.partial = nil
	}

	var out []byte
	var signals []execSignal

	for len(data) > 0 {
		start := bytes.IndexByte(data, 0x1b)
		if start < 0 {
			out = append(out, data...)
			break
		}
		out = append(out, data[:start]...)
		data = data[start:]

		if len(data) < 2 {
			// Lone ESC at chunk end; wait for more bytes.
			d.partial = append(d.partial, data...)
			break
		}
		if data[1] != ']' {
			// Not an OSC sequence; pass the ESC through untouched.
			out = append(out, data[0])
			data = data[1:]
			continue
		}

		seq, rest, complete := splitOSC(data)
		if !complete {
			if len(data) > maxPartialSeq {
				// Unterminated runaway sequence; stop buffering it.
				out = append(out, data...)
				data = nil
				break
			}
			d.partial = append(d.partial, data...)
			break
		}

		payload := oscPayload(seq)
		if sig, ok := d.decodeMarker(payload); ok {
			if sig != nil {
				signals = append(signals, *sig)
			}
			// Marker consumed; nothing reaches the output.
		} else {
			out = append(out, seq...)
		}
		data = rest
	}

	return out, signals
}

// splitOSC splits data (starting with ESC ]) at the sequence terminator,
// BEL or ST. complete is false when the terminator has not arrived yet.
func splitOSC(data []byte) (seq, rest []byte, complete bool) {
	for i := 2; i < len(data); i++ {
		switch {
		case data[i] == 0x07:
			return data[:i+1], data[i+1:], true
		case data[i] == 0x5c && data[i-1] == 0x1b:
			return data[:i+1], data[i+1:], true
		}
	}
	return nil, nil, false
}

// oscPayload strips the OSC introducer and terminator.
func oscPayload(seq []byte) string {
	body := seq[2:]
	if len(body) > 0 && body[len(body)-1] == 0x07 {
		body = body[:len(body)-1]
	} else if len(body) > 1 && body[len(body)-1] == 0x5c && body[len(body)-2] == 0x1b {
		body = body[:len(body)-2]
	}
	return string(body)
}

// decodeMarker interprets a shell-integration payload. The second result
// is false when the payload is not ours and must pass through. A nil
// signal with ok=true means the marker was consumed without effect.
func (d *oscDecoder) decodeMarker(payload string) (*execSignal, bool) {
	switch {
	case strings.HasPrefix(payload, "633;E;"):
		encoded := payload[len("633;E;"):]
		if decoded, err := base64.StdEncoding.DecodeString(encoded); err == nil {
			d.command = strings.TrimSpace(string(decoded))
		} else {
			d.command = strings.TrimSpace(encoded)
		}
		return nil, true
	case payload == "133;C":
		sig := &execSignal{started: true, command: d.command}
		d.command = ""
		return sig, true
	case payload == "133;D" || strings.HasPrefix(payload, "133;D;"):
		code := 0
		if rest := strings.TrimPrefix(payload, "133;D"); strings.HasPrefix(rest, ";") {
			if parsed, err := strconv.Atoi(rest[1:]); err == nil {
				code = parsed
			}
		}
		return &execSignal{exitCode: code}, true
	case payload == "133;A":
		return nil, true
	default:
		return nil, false
	}
}
