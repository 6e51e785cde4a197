package telnet

import (
	"bufio"
	"io"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// pipeConn returns a Conn whose client side receives input.
func pipeConn(t *testing.T, input []byte) *Conn {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() {
		server.Close()
		client.Close()
	})
	go func() {
		_, _ = client.Write(input)
		_ = client.Close()
	}()
	return NewConn(server, 0, 0)
}

func TestReadLine_StripsCommandsAndTerminators(t *testing.T) {
	input := []byte{IAC, DO, OptEcho, 'a', 't', IAC, WILL, OptSuppressGoAhead, 't', 'a', 'c', 'k', '\r', '\n'}
	input = append(input, []byte{IAC, SB, 24, 0, 'x', IAC, SE}...)
	input = append(input, []byte("look\n")...)

	c := pipeConn(t, input)
	line, err := c.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "attack", line)

	line, err = c.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "look", line)

	_, err = c.ReadLine()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadLine_AppliesBackspaceToWholeRunes(t *testing.T) {
	c := pipeConn(t, []byte("攻击哥布林x\b\r\n"))
	line, err := c.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "攻击哥布林", line)
}

func TestReadLine_TooLong(t *testing.T) {
	c := pipeConn(t, []byte(strings.Repeat("a", MaxLineBytes+1)+"\n"))
	_, err := c.ReadLine()
	assert.ErrorIs(t, err, ErrLineTooLong)
}

func TestReadLine_PrintableTextRoundTrips(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		text := rapid.StringMatching(`[a-zA-Z0-9 ,.!?]{0,64}`).Draw(rt, "text")
		server, client := net.Pipe()
		defer server.Close()
		go func() {
			_, _ = client.Write([]byte(text + "\r\n"))
			_ = client.Close()
		}()
		line, err := NewConn(server, 0, 0).ReadLine()
		if err != nil {
			rt.Fatalf("reading %q: %v", text, err)
		}
		if line != text {
			rt.Fatalf("got %q, want %q", line, text)
		}
	})
}

func TestWriteText_TranslatesNewlines(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()
	c := NewConn(server, 0, 0)

	go func() {
		_ = c.WriteText("one\ntwo\r\nthree")
		_ = c.WriteLine("")
		_ = server.Close()
	}()
	got, err := io.ReadAll(bufio.NewReader(client))
	require.NoError(t, err)
	assert.Equal(t, "one\r\ntwo\r\nthree\r\n", string(got))
}
