package terminal

import (
	"bufio"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Input reads user lines from a terminal or a pipe
type Input struct {
	reader *bufio.Reader
}

// NewInput creates an input reading from r
func NewInput(r io.Reader) *Input {
	return &Input{reader: bufio.NewReader(r)}
}

// ReadUserInput reads a line of input from the user
func (in *Input) ReadUserInput() (string, error) {
	input, err := in.reader.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		return "", err
	}

	// Trim whitespace and newline
	return strings.TrimSpace(input), nil
}

// IsTerminal checks if stdin is a terminal
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
