package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/moosedb/moose/internal/app"
	"github.com/moosedb/moose/internal/authfetch"
	"github.com/moosedb/moose/internal/console"
	"github.com/moosedb/moose/internal/guard"
)

// errSessionExpired is reported after the console rejected the stored token.
var errSessionExpired = errors.New("session expired, run `moose login`")

func newClient(ctx context.Context, cmd *cli.Command) (*app.Client, func(), error) {
	cfg, flush, err := setup(ctx, cmd)
	if err != nil {
		return nil, nil, err
	}

	client, err := app.NewClient(cfg)
	if err != nil {
		flush()
		return nil, nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, flush, nil
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "log in to the console and store the session token",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "email",
				Aliases:  []string{"e"},
				Usage:    "admin email",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "admin password (prompted when omitted)",
			},
		},
		Action: loginAction,
	}
}

func loginAction(ctx context.Context, cmd *cli.Command) error {
	cfg, flush, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer flush()

	if err := cfg.ValidateLogin(); err != nil {
		return err
	}

	client, err := app.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	password := cmd.String("password")
	if password == "" {
		password, err = newPasswordReader(os.Stdin).read("Password: ")
		if err != nil {
			return err
		}
	}

	if err := client.Login(ctx, cmd.String("email"), password); err != nil {
		var se *authfetch.StatusError
		if errors.As(err, &se) {
			return fmt.Errorf("login rejected: %s", messageOf(se.Body))
		}
		return err
	}

	fmt.Println("logged in")
	return nil
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "forget the stored session token",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, flush, err := newClient(ctx, cmd)
			if err != nil {
				return err
			}
			defer flush()

			if err := client.Logout(ctx); err != nil {
				return err
			}
			fmt.Println("logged out")
			return nil
		},
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "show whether a session is active",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, flush, err := newClient(ctx, cmd)
			if err != nil {
				return err
			}
			defer flush()

			route, err := client.Start(ctx)
			if err != nil {
				return err
			}
			if route == guard.LoginRoute {
				fmt.Println("not logged in")
				return nil
			}

			var session console.SessionResponse
			err = client.Requester.FetchJSON(ctx, "/admin/api/session", authfetch.Options{}, &session)
			if authfetch.StatusCode(err) == http.StatusUnauthorized {
				return errSessionExpired
			}
			if err != nil {
				return err
			}

			fmt.Printf("logged in as %s until %s\n", session.Email, time.Unix(session.ExpiresAt, 0).Format(time.RFC3339))
			return nil
		},
	}
}

func fetchCommand() *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "send an authorized request to the console and print the response body",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "method",
				Aliases: []string{"X"},
				Usage:   "HTTP method",
				Value:   http.MethodGet,
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "raw request body",
			},
			&cli.StringSliceFlag{
				Name:    "header",
				Aliases: []string{"H"},
				Usage:   "extra header as 'Name: value' (overrides defaults)",
			},
		},
		Action: fetchAction,
	}
}

func fetchAction(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return errors.New("missing request path")
	}

	header, err := parseHeaders(cmd.StringSlice("header"))
	if err != nil {
		return err
	}

	client, flush, err := newClient(ctx, cmd)
	if err != nil {
		return err
	}
	defer flush()

	opts := authfetch.Options{Method: strings.ToUpper(cmd.String("method")), Header: header}
	if data := cmd.String("data"); data != "" {
		opts.Body = data
	}

	resp, err := client.Fetch(ctx, path, opts)
	if authfetch.StatusCode(err) == http.StatusUnauthorized {
		return errSessionExpired
	}
	if err != nil {
		return err
	}

	_, err = os.Stdout.Write(resp.Body)
	return err
}

func parseHeaders(raw []string) (http.Header, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	header := make(http.Header, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header %q, expected 'Name: value'", h)
		}
		header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	return header, nil
}
