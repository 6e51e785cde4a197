package telnet

import (
	"bufio"
	"errors"
	"net"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// Telnet command bytes (RFC 854) and the options we negotiate.
const (
	IAC  byte = 255
	DONT byte = 254
	DO   byte = 253
	WONT byte = 252
	WILL byte = 251
	SB   byte = 250
	SE   byte = 240

	OptEcho            byte = 1
	OptSuppressGoAhead byte = 3
)

// MaxLineBytes bounds one line of player input.
const MaxLineBytes = 2048

// ErrLineTooLong is returned when a client sends more than MaxLineBytes
// without a line terminator.
var ErrLineTooLong = errors.New("telnet: line too long")

// Conn is a line-oriented Telnet connection. Reads strip protocol
// sequences and apply backspaces; writes translate "\n" to "\r\n".
type Conn struct {
	raw    net.Conn
	reader *bufio.Reader
	mu     sync.Mutex

	readTimeout  time.Duration
	writeTimeout time.Duration
}

// NewConn wraps raw. Zero timeouts disable deadlines.
func NewConn(raw net.Conn, readTimeout, writeTimeout time.Duration) *Conn {
	return &Conn{
		raw:          raw,
		reader:       bufio.NewReader(raw),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// Negotiate asks the client to suppress go-ahead.
func (c *Conn) Negotiate() error {
	return c.writeRaw([]byte{IAC, WILL, OptSuppressGoAhead})
}

// ReadLine returns the next line without its terminator. Invalid UTF-8 is
// replaced so the text is safe to hand to the model.
//
// Postcondition: Returns the line, or an error (io.EOF, a timeout, ErrLineTooLong).
func (c *Conn) ReadLine() (string, error) {
	if c.readTimeout > 0 {
		_ = c.raw.SetReadDeadline(time.Now().Add(c.readTimeout))
	}

	var line []byte
	for {
		b, err := c.reader.ReadByte()
		if err != nil {
			return "", err
		}
		switch {
		case b == IAC:
			if err := c.skipCommand(); err != nil {
				return "", err
			}
		case b == '\n':
			return finish(line), nil
		case b == '\r':
			if c.reader.Buffered() == 0 {
				return finish(line), nil
			}
			if next, err := c.reader.Peek(1); err == nil && (next[0] == '\n' || next[0] == 0) {
				_, _ = c.reader.ReadByte()
			}
			return finish(line), nil
		case b == '\b' || b == 0x7f:
			if len(line) > 0 {
				_, size := utf8.DecodeLastRune(line)
				line = line[:len(line)-size]
			}
		case b < 32 && b != '\t':
		default:
			if len(line) >= MaxLineBytes {
				return "", ErrLineTooLong
			}
			line = append(line, b)
		}
	}
}

func finish(line []byte) string {
	return strings.ToValidUTF8(string(line), "�")
}

// skipCommand consumes the rest of a command whose IAC was just read.
func (c *Conn) skipCommand() error {
	cmd, err := c.reader.ReadByte()
	if err != nil {
		return err
	}
	switch cmd {
	case WILL, WONT, DO, DONT:
		_, err = c.reader.ReadByte()
		return err
	case SB:
		prevIAC := false
		for {
			b, err := c.reader.ReadByte()
			if err != nil {
				return err
			}
			if prevIAC && b == SE {
				return nil
			}
			prevIAC = b == IAC && !prevIAC
		}
	}
	return nil
}

// WriteLine writes text followed by a line break.
func (c *Conn) WriteLine(text string) error {
	return c.WriteText(text + "\n")
}

// WriteText writes text, translating bare "\n" to "\r\n".
func (c *Conn) WriteText(text string) error {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return c.writeRaw([]byte(strings.ReplaceAll(text, "\n", "\r\n")))
}

// WritePrompt writes prompt without a line break.
func (c *Conn) WritePrompt(prompt string) error {
	return c.writeRaw([]byte(prompt))
}

func (c *Conn) writeRaw(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeTimeout > 0 {
		_ = c.raw.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	_, err := c.raw.Write(data)
	return err
}

// Close closes the connection.
func (c *Conn) Close() error {
	return c.raw.Close()
}

// RemoteAddr returns the client's address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.raw.RemoteAddr()
}
