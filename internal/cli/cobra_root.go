package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"freelancer/internal/config"
)

// RootCommand represents the base command when called without any subcommands
type RootCommand struct {
	cmd        *cobra.Command
	newApp     AppFactory
	configFile string
	config     *config.Config
	app        *App
	errors     *ErrorHandler
}

// NewRootCommand creates the root cobra command with global flags
func NewRootCommand(factory AppFactory) *RootCommand {
	root := &RootCommand{
		newApp: factory,
		errors: NewErrorHandler(),
	}

	root.cmd = &cobra.Command{
		Use:   "fl",
		Short: "Time tracking and invoicing for freelancers",
		Long: `fl tracks billable time against client projects and turns it into invoices.

EXAMPLES:
  fl serve                                 # Run the HTTP API
  fl user add --email me@example.com       # Create the account the CLI acts for
  fl client add "Acme"                     # Add a client
  fl project add --client 1 --rate 95 Web  # Add a project billed at 95/h
  fl timer start --project 3 "Homepage"    # Start a timer on project 3
  fl timer pause                           # Freeze the local display
  fl timer stop                            # Stop and record the entry
  fl entries list 1w                       # Entries from the last week
  fl summary 1mo                           # Time and unbilled amount per project
  fl sweep                                 # Close abandoned timers, flag overdue invoices

CONFIGURATION:
  Priority order: command-line flags > FL_* environment variables > --config file > defaults
  Run "fl config show" to print the effective configuration.

TIME FORMATS:
  30m, 2h, 1d, 2w, 3mo, 1y`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return root.loadConfig(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return root.close()
		},
	}

	root.addGlobalFlags()
	root.addSubcommands()

	return root
}

// Command exposes the cobra command, for tests and completion generation
func (r *RootCommand) Command() *cobra.Command {
	return r.cmd
}

// Execute runs the root command, closing the app even when a command fails
func (r *RootCommand) Execute(ctx context.Context) error {
	err := r.cmd.ExecuteContext(ctx)
	if closeErr := r.close(); err == nil {
		err = closeErr
	}
	return r.errors.HandleSimple(err)
}

func (r *RootCommand) addGlobalFlags() {
	flags := r.cmd.PersistentFlags()

	flags.StringVar(&r.configFile, "config", "", "YAML configuration file")
	flags.String("db-path", "", "Database file (overrides FL_DATABASE_PATH)")
	flags.Duration("db-query-timeout", 0, "Database query timeout (overrides FL_DATABASE_QUERY_TIMEOUT)")
	flags.String("addr", "", "HTTP listen address (overrides FL_SERVER_ADDR)")
	flags.String("timer-file", "", "Local timer state file (overrides FL_TIMER_STATE_FILE)")
	flags.String("log-level", "", "Log level: debug, info, warn, error (overrides FL_LOGGING_LEVEL)")
	flags.String("log-format", "", "Log format: text or json (overrides FL_LOGGING_FORMAT)")
	flags.Int64("user", 0, "User id the CLI acts for (overrides FL_CLI_USER_ID)")
}

// overridesFromFlags collects only the flags given on the command line
func (r *RootCommand) overridesFromFlags(cmd *cobra.Command) *config.ConfigOverrides {
	flags := cmd.Flags()
	overrides := &config.ConfigOverrides{}

	if flags.Changed("db-path") {
		v, _ := flags.GetString("db-path")
		overrides.DBPath = &v
	}
	if flags.Changed("db-query-timeout") {
		v, _ := flags.GetDuration("db-query-timeout")
		overrides.DBQueryTimeout = &v
	}
	if flags.Changed("addr") {
		v, _ := flags.GetString("addr")
		overrides.ServerAddr = &v
	}
	if flags.Changed("timer-file") {
		v, _ := flags.GetString("timer-file")
		overrides.TimerStateFile = &v
	}
	if flags.Changed("log-level") {
		v, _ := flags.GetString("log-level")
		overrides.LogLevel = &v
	}
	if flags.Changed("log-format") {
		v, _ := flags.GetString("log-format")
		overrides.LogFormat = &v
	}
	if flags.Changed("user") {
		v, _ := flags.GetInt64("user")
		overrides.UserID = &v
	}

	return overrides
}

func (r *RootCommand) loadConfig(cmd *cobra.Command) error {
	cfg, err := config.NewLoader().WithConfigFile(r.configFile).LoadWithOverrides(r.overridesFromFlags(cmd))
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	r.config = cfg
	return nil
}

// appFor builds the app on first use, so commands that never touch the
// database do not open it
func (r *RootCommand) appFor(cmd *cobra.Command) (*App, error) {
	if r.app != nil {
		return r.app, nil
	}
	if r.config == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}
	app, err := r.newApp(cmd.Context(), r.config)
	if err != nil {
		return nil, err
	}
	if app.out == nil {
		app.out = cmd.OutOrStdout()
	}
	r.app = app
	return app, nil
}

func (r *RootCommand) close() error {
	if r.app == nil {
		return nil
	}
	err := r.app.Close()
	r.app = nil
	return err
}

// run adapts a command body that needs the app
func (r *RootCommand) run(fn func(cmd *cobra.Command, app *App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := r.appFor(cmd)
		if err != nil {
			return err
		}
		return fn(cmd, app, args)
	}
}

func (r *RootCommand) addSubcommands() {
	r.cmd.AddCommand(
		r.serveCommand(),
		r.timerCommand(),
		r.entriesCommand(),
		r.summaryCommand(),
		r.sweepCommand(),
		r.userCommand(),
		r.clientCommand(),
		r.projectCommand(),
		r.configCommand(),
	)
}

func (r *RootCommand) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long:  "Serve the JSON API until interrupted. Callers identify themselves with the X-User-ID header.",
		Args:  cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, app *App, args []string) error {
			return NewServeCommand(app).Execute(cmd.Context())
		}),
	}
}

func (r *RootCommand) timerCommand() *cobra.Command {
	timerCmd := &cobra.Command{
		Use:   "timer",
		Short: "Start, pause, resume and stop the timer",
	}

	var projectID, taskID int64
	startCmd := &cobra.Command{
		Use:   "start [description]",
		Short: "Start a timer on a project",
		Long:  "Start a timer on a project. Only one timer may run at a time.",
		Args:  cobra.MaximumNArgs(1),
		RunE: r.run(func(cmd *cobra.Command, app *App, args []string) error {
			var description string
			if len(args) == 1 {
				description = args[0]
			}
			var task *int64
			if cmd.Flags().Changed("task") {
				task = &taskID
			}
			return NewStartCommand(app).Execute(cmd.Context(), projectID, task, description)
		}),
	}
	startCmd.Flags().Int64Var(&projectID, "project", 0, "Project id")
	startCmd.Flags().Int64Var(&taskID, "task", 0, "Task id within the project")
	_ = startCmd.MarkFlagRequired("project")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the running timer and record the entry",
		Args:  cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, app *App, args []string) error {
			return NewStopCommand(app).Execute(cmd.Context())
		}),
	}

	pauseCmd := &cobra.Command{
		Use:   "pause",
		Short: "Pause the local timer display",
		Long:  "Pause the local timer display. The entry keeps accruing billable time until it is stopped.",
		Args:  cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, app *App, args []string) error {
			return NewPauseCommand(app).Execute(cmd.Context())
		}),
	}

	resumeCmd := &cobra.Command{
		Use:   "resume",
		Short: "Resume a paused timer display",
		Args:  cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, app *App, args []string) error {
			return NewResumeCommand(app).Execute(cmd.Context())
		}),
	}

	statusCmd := &cobra.Command{
		Use:     "status",
		Aliases: []string{"current"},
		Short:   "Show the running timer",
		Args:    cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, app *App, args []string) error {
			return NewCurrentCommand(app).Execute(cmd.Context())
		}),
	}

	timerCmd.AddCommand(startCmd, stopCmd, pauseCmd, resumeCmd, statusCmd)
	return timerCmd
}

func (r *RootCommand) entriesCommand() *cobra.Command {
	entriesCmd := &cobra.Command{
		Use:   "entries",
		Short: "List, export and delete time entries",
	}

	var projectID int64
	listCmd := &cobra.Command{
		Use:   "list [time]",
		Short: "List time entries",
		Long: `List time entries, oldest first.

Examples:
  fl entries list                  # All entries
  fl entries list 2d               # Entries started in the last 2 days
  fl entries list 1w --project 3   # Last week, one project`,
		Args: cobra.MaximumNArgs(1),
		RunE: r.run(func(cmd *cobra.Command, app *App, args []string) error {
			var project *int64
			if cmd.Flags().Changed("project") {
				project = &projectID
			}
			return NewListCommand(app).Execute(cmd.Context(), firstArg(args), project)
		}),
	}
	listCmd.Flags().Int64Var(&projectID, "project", 0, "Only entries of this project")

	var format string
	exportCmd := &cobra.Command{
		Use:   "export [time]",
		Short: "Export time entries",
		Long:  "Export time entries to stdout. Example: fl entries export 1mo > march.csv",
		Args:  cobra.MaximumNArgs(1),
		RunE: r.run(func(cmd *cobra.Command, app *App, args []string) error {
			return NewOutputCommand(app).Execute(cmd.Context(), format, firstArg(args))
		}),
	}
	exportCmd.Flags().StringVar(&format, "format", "csv", "Output format (csv)")

	deleteCmd := &cobra.Command{
		Use:   "delete <entry id>",
		Short: "Delete an unbilled time entry",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(cmd *cobra.Command, app *App, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid entry id %q", args[0])
			}
			return NewDeleteCommand(app).Execute(cmd.Context(), id)
		}),
	}

	entriesCmd.AddCommand(listCmd, exportCmd, deleteCmd)
	return entriesCmd
}

func (r *RootCommand) summaryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "summary [time]",
		Short: "Show time and unbilled amount per project",
		Long: `Show logged time per project with the unbilled amount at the project rate.
Projects with a running timer are marked with *.

Examples:
  fl summary        # All time
  fl summary 1w     # Last week`,
		Args: cobra.MaximumNArgs(1),
		RunE: r.run(func(cmd *cobra.Command, app *App, args []string) error {
			return NewSummaryCommand(app).Execute(cmd.Context(), firstArg(args))
		}),
	}
}

func (r *RootCommand) sweepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Close abandoned timers and flag overdue invoices",
		Long: `Close every timer left running longer than timer.abandon_after, ending it at
start + abandon_after, and mark the CLI user's sent invoices past their due date overdue.
Meant to be run from cron.`,
		Args: cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, app *App, args []string) error {
			return NewSweepCommand(app).Execute(cmd.Context())
		}),
	}
}

func (r *RootCommand) userCommand() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	var email, name string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, app *App, args []string) error {
			return NewUserCommand(app).Add(cmd.Context(), email, name)
		}),
	}
	addCmd.Flags().StringVar(&email, "email", "", "Email address")
	addCmd.Flags().StringVar(&name, "name", "", "Display name (defaults to the part of the email before @)")
	_ = addCmd.MarkFlagRequired("email")

	userCmd.AddCommand(addCmd)
	return userCmd
}

func (r *RootCommand) clientCommand() *cobra.Command {
	clientCmd := &cobra.Command{
		Use:   "client",
		Short: "Manage clients",
	}

	var email string
	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a client",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(cmd *cobra.Command, app *App, args []string) error {
			return NewCatalogCommand(app).AddClient(cmd.Context(), args[0], email)
		}),
	}
	addCmd.Flags().StringVar(&email, "email", "", "Billing email address")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List clients",
		Args:  cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, app *App, args []string) error {
			return NewCatalogCommand(app).ListClients(cmd.Context())
		}),
	}

	clientCmd.AddCommand(addCmd, listCmd)
	return clientCmd
}

func (r *RootCommand) projectCommand() *cobra.Command {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}

	var clientID int64
	var rate string
	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a project for a client",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(cmd *cobra.Command, app *App, args []string) error {
			return NewCatalogCommand(app).AddProject(cmd.Context(), clientID, args[0], rate)
		}),
	}
	addCmd.Flags().Int64Var(&clientID, "client", 0, "Client id")
	addCmd.Flags().StringVar(&rate, "rate", "", "Hourly rate, e.g. 95.50")
	_ = addCmd.MarkFlagRequired("client")

	var filterClient int64
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, app *App, args []string) error {
			var client *int64
			if cmd.Flags().Changed("client") {
				client = &filterClient
			}
			return NewCatalogCommand(app).ListProjects(cmd.Context(), client)
		}),
	}
	listCmd.Flags().Int64Var(&filterClient, "client", 0, "Only projects of this client")

	projectCmd.AddCommand(addCmd, listCmd)
	return projectCmd
}

func (r *RootCommand) configCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := r.config.ToYAML()
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}

	configCmd.AddCommand(showCmd)
	return configCmd
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
