package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"example.com/fieldops/api"
	"example.com/fieldops/config"
	"example.com/fieldops/internal/backend"
	"example.com/fieldops/internal/dispatch"
	"example.com/fieldops/internal/feedback"
	"example.com/fieldops/internal/models"
	"example.com/fieldops/internal/workflow"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	scanProcess    string
	scanCompanyID  int
	scanGroupID    int
	scanLocationID int
	scanNote       string
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a scanning session",
	Long: `Starts a scanning session for the given workflow. The camera/decoder
collaborator delivers decoded label reads to the local ingest endpoint
(POST /api/v1/scans); accepted reads are submitted to the operations
server and collected into the session ledger, printed on exit.

The session ends on Ctrl-C.`,
	Run: func(cmd *cobra.Command, args []string) {
		runScan()
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&scanProcess, "process", "", "workflow: shipping, return or disposal")
	scanCmd.MarkFlagRequired("process")
	scanCmd.Flags().IntVar(&scanCompanyID, "company", 0, "company id (required for shipping)")
	scanCmd.Flags().IntVar(&scanGroupID, "group", 0, "group id (optional refinement)")
	scanCmd.Flags().IntVar(&scanLocationID, "location", 0, "location id (optional refinement)")
	scanCmd.Flags().StringVar(&scanNote, "note", "", "free-form note attached to every submission")
}

func runScan() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	process, err := models.ParseProcessType(scanProcess)
	if err != nil {
		log.Fatal(err)
	}

	// Shipping without a company is rejected before anything touches
	// the network
	if process == models.ProcessShipping && scanCompanyID == 0 {
		log.Fatal("Shipping requires --company")
	}

	sess, err := openSession(cfg)
	if err != nil {
		log.Fatalf("Failed to open session: %v", err)
	}
	if !sess.LoggedIn() {
		log.Fatal("Not logged in. Run `fieldops login` first.")
	}

	client, err := newBackendClient(cfg, sess)
	if err != nil {
		log.Fatalf("Failed to create backend client: %v", err)
	}

	ctx := context.Background()
	wf, err := buildWorkflow(ctx, client, process)
	if err != nil {
		title, message := backend.UserMessage(err)
		log.Fatalf("%s: %s", title, message)
	}
	if err := wf.Validate(); err != nil {
		log.Fatalf("Invalid workflow selection: %v", err)
	}

	snapshot := wf.Snapshot()
	dispatcher := dispatch.New(dispatch.Config{
		Request: backend.SubmitRequest{
			Process:  snapshot.Process,
			Company:  snapshot.Company,
			Group:    snapshot.Group,
			Location: snapshot.Location,
			UserName: sess.Username(),
			Note:     snapshot.Note,
		},
		Submitter: client,
		Notifier:  feedback.NewConsole(os.Stdout),
		Logger:    log,
		Window:    cfg.Scanner.DuplicateWindow,
	})

	server := api.NewServer(cfg, log, dispatcher, sess, client)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		select {
		case sig := <-stop:
			log.Infof("Received signal %s, ending scanning session...", sig)
		case <-gctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Errorf("Scanning session ended with error: %v", err)
	}

	// The camera is off; finish the submission in flight, then the
	// ledger is final.
	dispatcher.Stop()
	printLedger(dispatcher.Ledger())
}

// buildWorkflow resolves the id flags against the backend and applies
// them in cascade order
func buildWorkflow(ctx context.Context, client *backend.Client, process models.ProcessType) (*workflow.Context, error) {
	wf := workflow.New(process)
	wf.Note = scanNote

	if scanCompanyID == 0 {
		return wf, nil
	}

	companies, err := client.FetchCompanies(ctx)
	if err != nil {
		return nil, err
	}
	company := findCompany(companies, scanCompanyID)
	if company == nil {
		return nil, fmt.Errorf("company %d not found", scanCompanyID)
	}
	wf.SetCompany(company)

	if scanGroupID == 0 {
		return wf, nil
	}
	groups, err := client.FetchGroups(ctx, company.ID)
	if err != nil {
		return nil, err
	}
	group := findGroup(groups, scanGroupID)
	if group == nil {
		return nil, fmt.Errorf("group %d not found under company %d", scanGroupID, company.ID)
	}
	wf.SetGroup(group)

	if scanLocationID == 0 {
		return wf, nil
	}
	locations, err := client.FetchLocations(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	location := findLocation(locations, scanLocationID)
	if location == nil {
		return nil, fmt.Errorf("location %d not found under group %d", scanLocationID, group.ID)
	}
	wf.SetLocation(location)

	return wf, nil
}

func findCompany(list []models.Company, id int) *models.Company {
	for i := range list {
		if list[i].ID == id {
			return &list[i]
		}
	}
	return nil
}

func findGroup(list []models.Group, id int) *models.Group {
	for i := range list {
		if list[i].ID == id {
			return &list[i]
		}
	}
	return nil
}

func findLocation(list []models.Location, id int) *models.Location {
	for i := range list {
		if list[i].ID == id {
			return &list[i]
		}
	}
	return nil
}

func printLedger(items []models.ScannedItem) {
	if len(items) == 0 {
		fmt.Println("No items processed this session")
		return
	}

	fmt.Printf("Processed %d item(s):\n", len(items))
	for _, item := range items {
		line := fmt.Sprintf("  %-20s %s", item.ManagementNumber, item.Status)
		if item.Company != "" {
			line += "  " + item.Company
		}
		if item.Group != "" {
			line += " / " + item.Group
		}
		if item.Location != "" {
			line += " / " + item.Location
		}
		fmt.Println(line)
	}
}
