package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/geotask/internal/session"
	"github.com/mesh-intelligence/geotask/pkg/types"
)

var (
	errUsernameRequired = errors.New("username is required (--username)")
	errPasswordRequired = errors.New("password is required (--password or --password-stdin)")
	errEmailRequired    = errors.New("email is required (--email)")
)

type credentialFlags struct {
	username      string
	email         string
	password      string
	passwordStdin bool
}

func (c *credentialFlags) register(cmd *cobra.Command, withEmail bool) {
	cmd.Flags().StringVarP(&c.username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&c.password, "password", "p", "", "account password")
	cmd.Flags().BoolVar(&c.passwordStdin, "password-stdin", false, "read the password from stdin")
	if withEmail {
		cmd.Flags().StringVar(&c.email, "email", "", "account email")
	}
}

// resolve validates the flags and reads the password from in when asked.
func (c *credentialFlags) resolve(in io.Reader, withEmail bool) error {
	if strings.TrimSpace(c.username) == "" {
		return errUsernameRequired
	}
	if withEmail && strings.TrimSpace(c.email) == "" {
		return errEmailRequired
	}
	if c.passwordStdin {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read password: %w", err)
		}
		c.password = strings.TrimRight(line, "\r\n")
	}
	if c.password == "" {
		return errPasswordRequired
	}
	return nil
}

func newLoginCmd(f *rootFlags) *cobra.Command {
	var creds credentialFlags
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := creds.resolve(cmd.InOrStdin(), false); err != nil {
				return err
			}
			a, err := openApp(cmd, f)
			if err != nil {
				return err
			}
			defer a.Close()

			u, err := a.client.Login(commandContext(cmd), creds.username, creds.password)
			if err != nil {
				return err
			}
			return a.printLoggedIn(u)
		},
	}
	creds.register(cmd, false)
	return cmd
}

func newRegisterCmd(f *rootFlags) *cobra.Command {
	var creds credentialFlags
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := creds.resolve(cmd.InOrStdin(), true); err != nil {
				return err
			}
			a, err := openApp(cmd, f)
			if err != nil {
				return err
			}
			defer a.Close()

			u, err := a.client.Register(commandContext(cmd), creds.username, creds.email, creds.password)
			if err != nil {
				return err
			}
			return a.printLoggedIn(u)
		},
	}
	creds.register(cmd, true)
	return cmd
}

func (a *app) printLoggedIn(u *types.User) error {
	if a.json {
		return printJSON(a.out, map[string]any{"user": u})
	}
	_, err := fmt.Fprintf(a.out, "Logged in as %s (#%d)\n", u.Username, u.ID)
	return err
}

func newLogoutCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, f)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.client.Logout(); err != nil {
				return systemError(err)
			}
			if a.json {
				return printJSON(a.out, map[string]bool{"logged_out": true})
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		},
	}
}

type whoami struct {
	User      *types.User `json:"user"`
	Subject   string      `json:"subject,omitempty"`
	ExpiresAt *time.Time  `json:"expires_at,omitempty"`
	Expired   bool        `json:"expired"`
}

func newWhoamiCmd(f *rootFlags) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Long:  "Show the cached profile of the logged-in user and when the access token expires.\nWith --refresh the profile is fetched from the API.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, f)
			if err != nil {
				return err
			}
			defer a.Close()

			_, claims, err := session.Current(a.session)
			if errors.Is(err, types.ErrNotLoggedIn) {
				return err
			}

			var out whoami
			if err == nil {
				out.Subject = claims.Subject
				if !claims.ExpiresAt.IsZero() {
					exp := claims.ExpiresAt
					out.ExpiresAt = &exp
					out.Expired = claims.Expired(time.Now())
				}
			}

			if refresh {
				if out.User, err = a.client.Profile(commandContext(cmd)); err != nil {
					return err
				}
			} else if out.User, err = a.session.User(); err != nil {
				return systemError(err)
			}
			if out.User == nil {
				if out.User, err = a.client.Profile(commandContext(cmd)); err != nil {
					return err
				}
			}

			if a.json {
				return printJSON(a.out, out)
			}
			fmt.Fprintf(a.out, "%s (#%d)", out.User.Username, out.User.ID)
			if out.User.Email != "" {
				fmt.Fprintf(a.out, " <%s>", out.User.Email)
			}
			fmt.Fprintln(a.out)
			if out.ExpiresAt != nil {
				state := "expires"
				if out.Expired {
					state = "expired"
				}
				fmt.Fprintf(a.out, "token %s %s\n", state, out.ExpiresAt.Local().Format(time.RFC1123))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "fetch the profile from the API")
	return cmd
}
