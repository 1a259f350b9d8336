package auth

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"golang.org/x/term"
)

const MinPasswordLength = 7

var ErrEmptyPassword = errors.New("No password provided")
var ErrPasswordTooShort = fmt.Errorf("Password must be at least %d characters", MinPasswordLength)
var ErrMissingLetterOrNumber = errors.New("Password must contain both letters and numbers")

// CheckPasswordPolicy checks if a password meets the minimum requirements.
func CheckPasswordPolicy(password string) error {
	hasLetter := false
	hasNumber := false

	for _, char := range password {
		switch {
		case unicode.IsLetter(char):
			hasLetter = true
		case unicode.IsNumber(char):
			hasNumber = true
		}
	}

	switch {
	case password == "":
		return ErrEmptyPassword
	case len([]rune(password)) < MinPasswordLength:
		return ErrPasswordTooShort
	case !hasLetter || !hasNumber:
		return ErrMissingLetterOrNumber
	}
	return nil
}

// stdin is shared so consecutive prompts on piped input each get their own line.
var stdin = bufio.NewReader(os.Stdin)

// PromptPassword writes prompt to out and reads a password from stdin without
// echoing it. When stdin is not a terminal the whole line is read as-is, which
// keeps piped input working.
func PromptPassword(out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return readLine(stdin)
	}
	bytePwd, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(bytePwd), nil
}

// readLine returns the next line of r without its line ending. Spaces are kept.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
