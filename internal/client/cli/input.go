package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
	stdinFd      = func() int { return int(os.Stdin.Fd()) }
)

var ErrPasswordMismatch = errors.New("passwords do not match")

// GetSimpleText prints a prompt to w and reads a single line of input from reader.
// The trailing newline is trimmed. If EOF occurs after some input was read,
// the partial line is returned.
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetPassword prints prompt to w and reads a password. On a terminal the
// input is not echoed; otherwise one line is read from reader, which lets
// scripts pipe the password in.
func GetPassword(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if !isTerminal(stdinFd()) {
		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	if _, err := fmt.Fprint(w, prompt); err != nil {
		return "", err
	}
	pw, err := readPassword(stdinFd())
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// GetNewPassword asks for a password twice and requires both to match.
func GetNewPassword(reader *bufio.Reader, w io.Writer) (string, error) {
	pw, err := GetPassword(reader, "Enter password: ", w)
	if err != nil {
		return "", err
	}
	again, err := GetPassword(reader, "Repeat password: ", w)
	if err != nil {
		return "", err
	}
	if pw != again {
		return "", ErrPasswordMismatch
	}
	return pw, nil
}
