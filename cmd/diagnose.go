package cmd

import (
	"fmt"

	"example.com/fieldops/config"

	"github.com/spf13/cobra"
)

// diagnoseCmd represents the diagnose command
var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Show connection diagnostics",
	Long: `Prints the configured server address, the derived submission
endpoint, the login state and whether a security token is held.
Informational only; nothing here changes state.`,
	Run: func(cmd *cobra.Command, args []string) {
		runDiagnose()
	},
}

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored credentials",
	Run: func(cmd *cobra.Command, args []string) {
		runLogout()
	},
}

func init() {
	rootCmd.AddCommand(diagnoseCmd)
	rootCmd.AddCommand(logoutCmd)
}

func runDiagnose() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	sess, err := openSession(cfg)
	if err != nil {
		log.Fatalf("Failed to open session: %v", err)
	}

	fmt.Printf("Configured address: %s\n", orNone(sess.BaseAddress()))
	fmt.Printf("Logged in:          %v\n", sess.LoggedIn())
	fmt.Printf("Username:           %s\n", orNone(sess.Username()))
	fmt.Printf("CSRF token held:    %v\n", sess.CSRFToken() != "")
	fmt.Printf("Bearer token held:  %v\n", sess.BearerToken() != "")

	client, err := newBackendClient(cfg, sess)
	if err != nil {
		fmt.Printf("Submit endpoint:    unresolvable (%v)\n", err)
		return
	}
	fmt.Printf("Submit endpoint:    %s\n", client.SubmitEndpoint())
}

func runLogout() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	sess, err := openSession(cfg)
	if err != nil {
		log.Fatalf("Failed to open session: %v", err)
	}

	if err := sess.Logout(); err != nil {
		log.Fatalf("Failed to clear session: %v", err)
	}
	fmt.Println("Logged out")
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
