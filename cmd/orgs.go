package cmd

import (
	"context"
	"fmt"

	"example.com/fieldops/config"
	"example.com/fieldops/internal/backend"

	"github.com/spf13/cobra"
)

var (
	groupsCompanyID  int
	locationsGroupID int
)

// companiesCmd represents the companies command
var companiesCmd = &cobra.Command{
	Use:   "companies",
	Short: "List companies",
	Run: func(cmd *cobra.Command, args []string) {
		withClient(func(ctx context.Context, client *backend.Client) error {
			companies, err := client.FetchCompanies(ctx)
			if err != nil {
				return err
			}
			for _, c := range companies {
				fmt.Printf("%6d  %s\n", c.ID, c.Name)
			}
			return nil
		})
	},
}

// groupsCmd represents the groups command
var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List groups of a company",
	Run: func(cmd *cobra.Command, args []string) {
		withClient(func(ctx context.Context, client *backend.Client) error {
			groups, err := client.FetchGroups(ctx, groupsCompanyID)
			if err != nil {
				return err
			}
			for _, g := range groups {
				fmt.Printf("%6d  %s\n", g.ID, g.Name)
			}
			return nil
		})
	},
}

// locationsCmd represents the locations command
var locationsCmd = &cobra.Command{
	Use:   "locations",
	Short: "List locations of a group",
	Run: func(cmd *cobra.Command, args []string) {
		withClient(func(ctx context.Context, client *backend.Client) error {
			locations, err := client.FetchLocations(ctx, locationsGroupID)
			if err != nil {
				return err
			}
			for _, l := range locations {
				fmt.Printf("%6d  %s\n", l.ID, l.Name)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(companiesCmd)
	rootCmd.AddCommand(groupsCmd)
	rootCmd.AddCommand(locationsCmd)

	groupsCmd.Flags().IntVar(&groupsCompanyID, "company", 0, "company id")
	groupsCmd.MarkFlagRequired("company")

	locationsCmd.Flags().IntVar(&locationsGroupID, "group", 0, "group id")
	locationsCmd.MarkFlagRequired("group")
}

// withClient runs fn against a wired backend client, mapping failures
// to the operator-facing title/message pair
func withClient(fn func(ctx context.Context, client *backend.Client) error) {
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

	if err := fn(context.Background(), client); err != nil {
		title, message := backend.UserMessage(err)
		log.Fatalf("%s: %s", title, message)
	}
}
