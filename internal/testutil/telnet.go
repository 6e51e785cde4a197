package testutil

import (
	"fmt"
	"net"
	"regexp"
	"strings"
	"testing"
	"time"
)

// DefaultExpectTimeout bounds how long Expect waits for output.
const DefaultExpectTimeout = 3 * time.Second

var ansiSeq = regexp.MustCompile("\033\\[[0-9;]*m")

// TelnetClient drives a play session over TCP in tests. Output is compared
// with ANSI styling and Telnet negotiation removed.
type TelnetClient struct {
	conn net.Conn
	seen strings.Builder
	t    *testing.T
}

// NewTelnetClient dials addr; the connection is closed at test cleanup.
//
// Precondition: a server must be listening on addr.
func NewTelnetClient(t *testing.T, addr string) *TelnetClient {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		t.Fatalf("connecting to %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &TelnetClient{conn: conn, t: t}
}

// ReadUntil reads until the cleaned output since the last match contains
// substr and returns that output. The test fails on timeout.
func (c *TelnetClient) ReadUntil(substr string, timeout time.Duration) string {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))
	buf := make([]byte, 1024)
	for {
		if out := c.clean(); strings.Contains(out, substr) {
			c.seen.Reset()
			return out
		}
		n, err := c.conn.Read(buf)
		c.seen.Write(buf[:n])
		if err != nil && !strings.Contains(c.clean(), substr) {
			c.t.Fatalf("waiting for %q: got %q: %v", substr, c.clean(), err)
		}
	}
}

// Expect is ReadUntil with DefaultExpectTimeout.
func (c *TelnetClient) Expect(substr string) string {
	c.t.Helper()
	return c.ReadUntil(substr, DefaultExpectTimeout)
}

func (c *TelnetClient) clean() string {
	out := ansiSeq.ReplaceAllString(stripNegotiation(c.seen.String()), "")
	return strings.ReplaceAll(out, "\r\n", "\n")
}

// Send writes text and a Telnet line terminator.
func (c *TelnetClient) Send(text string) {
	c.t.Helper()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if _, err := fmt.Fprintf(c.conn, "%s\r\n", text); err != nil {
		c.t.Fatalf("sending %q: %v", text, err)
	}
}

// Close closes the connection.
func (c *TelnetClient) Close() {
	_ = c.conn.Close()
}

// stripNegotiation drops three-byte IAC WILL/WONT/DO/DONT sequences.
func stripNegotiation(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == 0xff && i+2 < len(s) && s[i+1] >= 0xfb && s[i+1] <= 0xfe {
			i += 2
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
