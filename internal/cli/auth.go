package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"minishield-dashboard/internal/core"
	"minishield-dashboard/internal/session"
)

var (
	authEmail    string
	authPassword string
	authName     string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Start a session against the backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, password, err := credentials()
		if err != nil {
			return err
		}
		res, err := application.Session.Login(cmd.Context(), application.Client, email, password)
		if err != nil {
			return friendly(err)
		}
		if res.User != nil {
			fmt.Printf("logged in as %s <%s>\n", res.User.Name, res.User.Email)
		} else {
			fmt.Println(res.Message)
		}
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if authName == "" {
			return fmt.Errorf("--name is required")
		}
		email, password, err := credentials()
		if err != nil {
			return err
		}
		err = application.Client.Register(cmd.Context(), core.Credentials{
			Name:     authName,
			Email:    email,
			Password: password,
		})
		if err != nil {
			application.Session.SetUnauthenticated()
			return friendly(err)
		}
		fmt.Println("account created; run 'dashboard login'")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := application.Session.Logout(cmd.Context(), application.Client); err != nil {
			return friendly(err)
		}
		fmt.Println("logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := application.Session.Refresh(cmd.Context(), application.Client); err != nil {
			return friendly(err)
		}
		if application.Session.State() != session.StateAuthenticated {
			fmt.Println("not logged in")
			return nil
		}
		u := application.Session.User()
		fmt.Printf("%s <%s>\n", u.Name, u.Email)
		return nil
	},
}

// credentials resolves email and password from flags, prompting on stdin
// for whichever is missing.
func credentials() (string, string, error) {
	reader := bufio.NewReader(os.Stdin)
	email := authEmail
	if email == "" {
		fmt.Print("email: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", "", err
		}
		email = strings.TrimSpace(line)
	}
	password := authPassword
	if password == "" {
		fmt.Print("password: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", "", err
		}
		password = strings.TrimSpace(line)
	}
	if err := core.ValidateEmail(email); err != nil {
		return "", "", err
	}
	if password == "" {
		return "", "", fmt.Errorf("password is required")
	}
	return email, password, nil
}

func init() {
	for _, cmd := range []*cobra.Command{loginCmd, registerCmd} {
		cmd.Flags().StringVar(&authEmail, "email", "", "Account email")
		cmd.Flags().StringVar(&authPassword, "password", "", "Account password (prompted when omitted)")
	}
	registerCmd.Flags().StringVar(&authName, "name", "", "Display name")
}
