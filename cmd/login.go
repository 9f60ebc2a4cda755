package cmd

import (
	"context"
	"fmt"

	"example.com/fieldops/config"

	"github.com/spf13/cobra"
)

var loginUser string

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the operations server",
	Long: `Fetches the login page, harvests the embedded security token and
logs in as the given user. The session is persisted for later commands.`,
	Run: func(cmd *cobra.Command, args []string) {
		runLogin()
	},
}

// usersCmd represents the users command
var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List the user accounts offered by the login page",
	Run: func(cmd *cobra.Command, args []string) {
		runUsers()
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(usersCmd)

	loginCmd.Flags().StringVar(&loginUser, "user", "", "username to log in as")
	loginCmd.MarkFlagRequired("user")
}

func runLogin() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	sess, err := openSession(cfg)
	if err != nil {
		log.Fatalf("Failed to open session: %v", err)
	}

	client, err := newBackendClient(cfg, sess)
	if err != nil {
		log.Fatalf("Failed to create backend client: %v", err)
	}

	ctx := context.Background()

	// Fetching the login page harvests the CSRF token needed by the
	// login POST
	users, err := client.FetchUsers(ctx)
	if err != nil {
		log.Fatalf("Failed to fetch login page: %v", err)
	}

	known := false
	for _, u := range users {
		if u.Name == loginUser {
			known = true
			break
		}
	}
	if !known {
		log.Warnf("User %q is not offered by the login page; trying anyway", loginUser)
	}

	if err := client.Login(ctx, loginUser); err != nil {
		log.Fatalf("Login failed: %v", err)
	}

	fmt.Printf("Logged in as %s\n", loginUser)
}

func runUsers() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	sess, err := openSession(cfg)
	if err != nil {
		log.Fatalf("Failed to open session: %v", err)
	}

	client, err := newBackendClient(cfg, sess)
	if err != nil {
		log.Fatalf("Failed to create backend client: %v", err)
	}

	users, err := client.FetchUsers(context.Background())
	if err != nil {
		log.Fatalf("Failed to fetch users: %v", err)
	}

	if len(users) == 0 {
		fmt.Println("No users offered by the login page")
		return
	}
	for _, u := range users {
		if u.Email != "" {
			fmt.Printf("%3d  %s <%s>\n", u.Ordinal, u.Name, u.Email)
		} else {
			fmt.Printf("%3d  %s\n", u.Ordinal, u.Name)
		}
	}
}
