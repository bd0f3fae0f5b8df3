package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

func adminCommand() *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "console administrator utilities",
		Commands: []*cli.Command{
			{
				Name:   "hash-password",
				Usage:  "print a bcrypt hash for admin.password_hash",
				Action: hashPasswordAction,
			},
		},
	}
}

func hashPasswordAction(_ context.Context, _ *cli.Command) error {
	return hashPassword(newPasswordReader(os.Stdin), os.Stdout)
}

func hashPassword(in *passwordReader, out io.Writer) error {
	password, err := in.read("New password: ")
	if err != nil {
		return err
	}
	if password == "" {
		return errors.New("password cannot be empty")
	}

	confirm, err := in.read("Repeat password: ")
	if err != nil {
		return err
	}
	if confirm != password {
		return errors.New("passwords do not match")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	_, err = fmt.Fprintln(out, string(hash))
	return err
}

// passwordReader reads passwords from one input. Piped input is read line by
// line through a single buffer so consecutive prompts see consecutive lines.
type passwordReader struct {
	file *os.File
	buf  *bufio.Reader
}

func newPasswordReader(file *os.File) *passwordReader {
	return &passwordReader{file: file, buf: bufio.NewReader(file)}
}

// read prompts on stderr and reads without echo when the input is a terminal.
func (p *passwordReader) read(prompt string) (string, error) {
	fd := int(p.file.Fd())
	if !term.IsTerminal(fd) {
		line, err := p.buf.ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(os.Stderr, prompt)
	data, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(data), nil
}

// messageOf extracts the message field of a console error body.
func messageOf(body []byte) string {
	var resp struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || resp.Message == "" {
		return strings.TrimSpace(string(body))
	}
	return resp.Message
}
