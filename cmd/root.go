package cmd

import (
	"fmt"
	"os"

	"example.com/fieldops/config"
	"example.com/fieldops/internal/backend"
	"example.com/fieldops/internal/session"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Used for flags
	cfgFile   string
	logLevel  string
	logFormat string
	serverAdr string

	// Logger instance for all commands
	log = logrus.New()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fieldops",
	Short: "Field-operations scan client",
	Long: `Field-operations client for scanning asset labels and recording
status transitions (shipping, return, disposal) against the remote
operations server.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()

		if err := config.InitConfig(cfgFile); err != nil {
			log.Fatalf("Error initializing configuration: %v", err)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverAdr, "server", "", "server address (overrides the stored one)")

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (json, text)")
}

// setupLogging configures the global logger based on command line flags
func setupLogging() {
	switch logLevel {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "info":
		log.SetLevel(logrus.InfoLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}

	if logFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	log.SetOutput(os.Stderr)
}

// openSession opens the persisted session store
func openSession(cfg *config.Config) (session.Store, error) {
	store, err := session.NewFileStore(cfg.Session.File)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return store, nil
}

// resolveAddress picks the server address: the --server flag wins,
// then the config file, then the address stored from a previous run.
// A flag- or config-supplied address is persisted for next time.
func resolveAddress(cfg *config.Config, sess session.Store) (string, error) {
	addr := serverAdr
	if addr == "" {
		addr = cfg.Backend.Address
	}
	if addr != "" {
		if addr != sess.BaseAddress() {
			if err := sess.SetBaseAddress(addr); err != nil {
				return "", err
			}
		}
		return addr, nil
	}
	if stored := sess.BaseAddress(); stored != "" {
		return stored, nil
	}
	return "", fmt.Errorf("no server address configured (use --server, the config file or FIELDOPS_BACKEND_ADDRESS)")
}

// newBackendClient wires a backend client from config and session
func newBackendClient(cfg *config.Config, sess session.Store) (*backend.Client, error) {
	addr, err := resolveAddress(cfg, sess)
	if err != nil {
		return nil, err
	}
	client, err := backend.NewClient(addr, sess, log)
	if err != nil {
		return nil, err
	}
	client.SetTimeout(cfg.Backend.Timeout)
	return client, nil
}
