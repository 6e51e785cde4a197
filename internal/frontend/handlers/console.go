package handlers

import (
	"bufio"
	"io"
	"sync"

	"github.com/cory-johannsen/dungeonmaster/internal/frontend/telnet"
)

// Console is a LineIO over a reader and a writer, such as stdin and stdout.
// With color disabled, ANSI styling is stripped from output.
type Console struct {
	in    *bufio.Scanner
	out   io.Writer
	color bool
	mu    sync.Mutex
}

// NewConsole creates a Console.
func NewConsole(in io.Reader, out io.Writer, color bool) *Console {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 4096), telnet.MaxLineBytes)
	return &Console{in: sc, out: out, color: color}
}

// ReadLine returns the next input line, or io.EOF at end of input.
func (c *Console) ReadLine() (string, error) {
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return c.in.Text(), nil
}

// WriteText writes text.
func (c *Console) WriteText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.color {
		text = telnet.StripANSI(text)
	}
	_, err := io.WriteString(c.out, text)
	return err
}

// WritePrompt writes prompt without a line break.
func (c *Console) WritePrompt(prompt string) error {
	return c.WriteText(prompt)
}
