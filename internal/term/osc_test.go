package term

import (
	"encoding/base64"
	"testing"
)

func marker(payload string) string {
	return "\x1b]" + payload + "\x07"
}

func commandMarker(command string) string {
	return marker("633;E;" + base64.StdEncoding.EncodeToString([]byte(command)))
}

func TestOSCDecoderPlainOutput(t *testing.T) {
	d := newOSCDecoder()
	out, signals := d.Feed([]byte("hello world\r\n"))
	if string(out) != "hello world\r\n" {
		t.Fatalf("out=%q want passthrough", out)
	}
	if len(signals) != 0 {
		t.Fatalf("signals=%v want none", signals)
	}
}

func TestOSCDecoderExecutionCycle(t *testing.T) {
	d := newOSCDecoder()
	input := commandMarker("git status") + marker("133;C") + "On branch main\r\n" + marker("133;D;0") + marker("133;A")

	out, signals := d.Feed([]byte(input))
	if string(out) != "On branch main\r\n" {
		t.Fatalf("out=%q want the command output only", out)
	}
	if len(signals) != 2 {
		t.Fatalf("got %d signals, want start and end", len(signals))
	}
	if !signals[0].started || signals[0].command != "git status" {
		t.Fatalf("start signal=%+v want started with the decoded command", signals[0])
	}
	if signals[1].started || signals[1].exitCode != 0 {
		t.Fatalf("end signal=%+v want exit code 0", signals[1])
	}
}

func TestOSCDecoderNonZeroExit(t *testing.T) {
	d := newOSCDecoder()
	_, signals := d.Feed([]byte(marker("133;D;127")))
	if len(signals) != 1 || signals[0].exitCode != 127 {
		t.Fatalf("signals=%v want one end with exit 127", signals)
	}
}

func TestOSCDecoderEndWithoutCode(t *testing.T) {
	d := newOSCDecoder()
	_, signals := d.Feed([]byte(marker("133;D")))
	if len(signals) != 1 || signals[0].exitCode != 0 {
		t.Fatalf("signals=%v want one end with exit 0", signals)
	}
}

func TestOSCDecoderSplitAcrossChunks(t *testing.T) {
	d := newOSCDecoder()
	full := commandMarker("npm install") + marker("133;C")

	var out []byte
	var signals []execSignal
	// Feed byte by byte; every split point must survive.
	for i := 0; i < len(full); i++ {
		o, s := d.Feed([]byte{full[i]})
		out = append(out, o...)
		signals = append(signals, s...)
	}
	if len(out) != 0 {
		t.Fatalf("out=%q want no marker leakage", out)
	}
	if len(signals) != 1 || !signals[0].started || signals[0].command != "npm install" {
		t.Fatalf("signals=%v want one start for %q", signals, "npm install")
	}
}

func TestOSCDecoderForeignOSCPassesThrough(t *testing.T) {
	d := newOSCDecoder()
	title := "\x1b]0;window title\x07"
	out, signals := d.Feed([]byte(title + "text"))
	if string(out) != title+"text" {
		t.Fatalf("out=%q want foreign sequences untouched", out)
	}
	if len(signals) != 0 {
		t.Fatalf("signals=%v want none", signals)
	}
}

func TestOSCDecoderNonOSCEscapesPassThrough(t *testing.T) {
	d := newOSCDecoder()
	colored := "\x1b[31mred\x1b[0m"
	out, signals := d.Feed([]byte(colored))
	if string(out) != colored {
		t.Fatalf("out=%q want SGR sequences untouched", out)
	}
	if len(signals) != 0 {
		t.Fatalf("signals=%v want none", signals)
	}
}

func TestOSCDecoderSTTerminator(t *testing.T) {
	d := newOSCDecoder()
	out, signals := d.Feed([]byte("\x1b]133;C\x1b\\after"))
	if string(out) != "after" {
		t.Fatalf("out=%q want marker stripped", out)
	}
	if len(signals) != 1 || !signals[0].started {
		t.Fatalf("signals=%v want one start", signals)
	}
}

func TestOSCDecoderMalformedBase64FallsBack(t *testing.T) {
	d := newOSCDecoder()
	d.Feed([]byte(marker("633;E;not-base64!!")))
	_, signals := d.Feed([]byte(marker("133;C")))
	if len(signals) != 1 || signals[0].command != "not-base64!!" {
		t.Fatalf("signals=%v want the raw payload as command", signals)
	}
}
