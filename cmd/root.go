package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kamal-hamza/docusage/internal/adapters/api"
	"github.com/kamal-hamza/docusage/internal/adapters/repository"
	"github.com/kamal-hamza/docusage/internal/core/ports"
	"github.com/kamal-hamza/docusage/internal/core/services"
	"github.com/kamal-hamza/docusage/pkg/appdir"
	"github.com/kamal-hamza/docusage/pkg/config"
	"github.com/kamal-hamza/docusage/pkg/logging"
	"github.com/kamal-hamza/docusage/pkg/ui"
)

var (
	// Global paths and configuration
	appDirs   *appdir.Dirs
	appConfig *config.Config
	appLogger = zap.NewNop()
	closeLog  func() error

	// Adapters
	sessionStore  ports.SessionStore
	sessionPath   string
	uploadHistory ports.UploadHistory
	apiClient     *api.Client
	healthChecker ports.HealthChecker

	// Services
	sessionPolicy   *services.SessionPolicy
	authService     *services.AuthService
	documentService *services.DocumentService
	listService     *services.ListService
	syncService     *services.SyncService
	controller      *services.Controller

	// Flags
	apiURLFlag string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "docusage",
	Short: "DocuSage - upload and browse your documents from the terminal",
	Long: ui.StyleTitle.Render("DocuSage") + " - Document Client\n\n" +
		"Sign in to a DocuSage backend, upload PDF, TXT and DOCX files,\n" +
		"and browse what you have stored. Run 'docusage dashboard' for the interactive view.",
	PersistentPreRunE: initializeApp,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if closeLog != nil {
		_ = closeLog()
	}
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().StringVar(&apiURLFlag, "api-url", "",
		"Backend base URL (overrides config and "+config.EnvAPIURL+")")
}

// initializeApp initializes the application components
func initializeApp(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	d, err := appdir.New()
	if err != nil {
		return fmt.Errorf("failed to resolve data directory: %w", err)
	}
	appDirs = d
	if err := appDirs.Initialize(); err != nil {
		return err
	}

	cfg, err := config.Load(appDirs.ConfigPath)
	if err != nil {
		fmt.Println(ui.FormatError("Invalid configuration: " + appDirs.ConfigPath))
		if !isConfigCommand(cmd) {
			return err
		}
		// Let the user repair the file
		cfg = config.DefaultConfig()
	}
	cfg.ApplyEnv()
	if cmd.Flags().Changed("api-url") {
		cfg.APIURL = apiURLFlag
	}
	appConfig = cfg
	ui.SetTheme(appConfig.ColorTheme)

	logPath := appConfig.LogFile
	if logPath == "" {
		logPath = appDirs.LogFilePath()
	}
	logger, closeFn, err := logging.New(appConfig.LogLevel, logPath)
	if err != nil {
		// diagnostics are optional; keep going without them
		fmt.Fprintln(os.Stderr, ui.FormatWarning(err.Error()))
		logger, closeFn = zap.NewNop(), func() error { return nil }
	}
	appLogger = logger.With(zap.String("command", cmd.CommandPath()))
	closeLog = closeFn

	apiClient = api.New(appConfig.APIURL, appConfig.RequestTimeout(),
		api.WithListPath(appConfig.ListPath),
		api.WithLogger(appLogger),
	)
	sessionPath = appDirs.SessionPath()

	wireServices(
		repository.NewFileSessionStore(sessionPath),
		apiClient,
		apiClient,
		apiClient,
		repository.NewFileUploadHistory(appDirs.HistoryPath()),
	)
	return nil
}

func isConfigCommand(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c == configCmd {
			return true
		}
	}
	return false
}

// wireServices builds the service graph over the given adapters
func wireServices(store ports.SessionStore, auth ports.AuthAPI, docs ports.DocumentAPI, health ports.HealthChecker, history ports.UploadHistory) {
	sessionStore = store
	healthChecker = health
	uploadHistory = history

	sessionPolicy = services.NewSessionPolicy(sessionStore)
	authService = services.NewAuthService(auth, sessionPolicy)

	var opts []services.DocumentOption
	if appConfig != nil {
		opts = append(opts,
			services.WithAllowedTypes(appConfig.AllowedTypes),
			services.WithMaxUploadBytes(appConfig.MaxUploadBytes()),
		)
	}
	documentService = services.NewDocumentService(docs, sessionPolicy, opts...)
	listService = services.NewListService(documentService)
	controller = services.NewController(sessionStore, sessionPolicy, authService, documentService)
	syncService = services.NewSyncService(controller, uploadHistory)

	controller.Subscribe(func(t services.Transition) {
		appLogger.Info("session transition",
			zap.Stringer("from", t.From),
			zap.Stringer("to", t.To),
			zap.Stringer("reason", t.Reason),
		)
	})
}

// getContext returns a context for operations
func getContext() context.Context {
	return context.Background()
}
