package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

type prompter struct {
	in  *bufio.Reader
	out io.Writer
	// readPassword reads a line without echoing it. Nil when the input is
	// not a terminal.
	readPassword func() ([]byte, error)
}

func newTerminalPrompter(in *os.File, out io.Writer) *prompter {
	p := &prompter{in: bufio.NewReader(in), out: out}
	if fd := int(in.Fd()); term.IsTerminal(fd) {
		p.readPassword = func() ([]byte, error) { return term.ReadPassword(fd) }
	}
	return p
}

// Line prints msg and reads one line of input.
func (p *prompter) Line(msg string) (string, error) {
	fmt.Fprint(p.out, msg)
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("couldn't read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Password prints msg and reads a line without echo when possible.
func (p *prompter) Password(msg string) (string, error) {
	if p.readPassword == nil {
		return p.Line(msg)
	}
	fmt.Fprint(p.out, msg)
	pw, err := p.readPassword()
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("couldn't read password: %w", err)
	}
	return strings.TrimSpace(string(pw)), nil
}
