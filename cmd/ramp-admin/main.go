// ABOUTME: Admin CLI for the ramp onboarding backend
// ABOUTME: Manages users, onboarding agents and their step workflows over HTTP

package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/rampkit/ramp/internal/api"
	"github.com/rampkit/ramp/internal/config"
	"github.com/rampkit/ramp/internal/export"
	"github.com/rampkit/ramp/internal/session"
)

const banner = `
 _ __ __ _ _ __ ___  _ __
| '__/ _' | '_ ' _ \| '_ \
| | | (_| | | | | | | |_) |
|_|  \__,_|_| |_| |_| .__/
                    |_|
`

func main() {
	// Local .env files may carry RAMP_* overrides
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.LoadOrDefault(configPath())
	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
	setupLogging(cfg.Logging)

	sess := session.Load(config.ConfigDir(), slog.Default())
	client := newClient(cfg, sess)

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "login":
		err = cmdLogin(client, sess, args)
	case "logout":
		err = cmdLogout(sess)
	case "me":
		err = cmdMe(sess)
	case "users":
		err = cmdUsers(client, args)
	case "agents":
		err = cmdAgents(client, args)
	case "steps":
		err = cmdSteps(client, args)
	case "record":
		err = cmdRecord(cfg, client, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: ramp-admin <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  login <email>              Log in and cache the session token")
	fmt.Println("  logout                     Discard the cached session")
	fmt.Println("  me                         Show the logged-in identity")
	fmt.Println("  users                      List all users")
	fmt.Println("  users create               Create a user")
	fmt.Println("  users update <id>          Update a user's email, password or role")
	fmt.Println("  users delete <id>          Delete a user by ID")
	fmt.Println("  agents                     List all onboarding agents")
	fmt.Println("  agents get <id>            Show one agent and its steps")
	fmt.Println("  agents create              Create an agent")
	fmt.Println("  agents update <id>         Update an agent's name, role or emails")
	fmt.Println("  agents delete <id>         Delete an agent by ID")
	fmt.Println("  agents export <id>         Export an agent's workflow as HTML")
	fmt.Println("  steps <agent-id>           List an agent's steps")
	fmt.Println("  steps <agent-id> add       Add a step by hand")
	fmt.Println("  steps <agent-id> reorder   Reorder steps (1-based positions)")
	fmt.Println("  steps <agent-id> rm <n>    Delete step n (asks for confirmation)")
	fmt.Println("  record <agent-id>          Record the screen and extract steps")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  RAMP_BACKEND_URL           Backend base URL (overrides config)")
	fmt.Println("  RAMP_CONFIG                Config file path (default: ~/.config/ramp/config.yaml)")
	fmt.Println("  RAMP_PASSWORD              Password for login (skips the prompt)")
	fmt.Println()
	yellow.Println("Examples:")
	fmt.Println("  ramp-admin login admin@example.com")
	fmt.Println("  ramp-admin agents create --name 'Sales Onboarding' --role 'Account Executive' --emails alice@example.com,bob@example.com")
	fmt.Println("  ramp-admin record ag_123 --step 2")
	fmt.Println("  ramp-admin steps ag_123 reorder 3,1,2")
	fmt.Println()
}

// configPath resolves the config file location, RAMP_CONFIG first.
func configPath() string {
	if p := os.Getenv("RAMP_CONFIG"); p != "" {
		return p
	}
	return config.DefaultPath()
}

// setupLogging installs the default slog logger per config.
func setupLogging(cfg config.LoggingConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// newClient builds the backend client with the cached session token.
func newClient(cfg *config.Config, sess *session.Session) *api.Client {
	baseURL := cfg.Backend.BaseURL
	if url := os.Getenv("RAMP_BACKEND_URL"); url != "" {
		baseURL = url
	}

	opts := []api.Option{api.WithTokenSource(sess.Token)}
	if cfg.Backend.RequestTimeout > 0 {
		opts = append(opts, api.WithHTTPClient(&http.Client{Timeout: cfg.Backend.RequestTimeout}))
	}
	return api.New(baseURL, opts...)
}

// cmdLogin authenticates against the backend and caches the session
func cmdLogin(client *api.Client, sess *session.Session, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: login <email> [--password <password>]")
	}
	email := args[0]

	var password string
	for i := 1; i < len(args); i++ {
		switch args[i] {
		case "--password", "-p":
			if i+1 < len(args) {
				password = args[i+1]
				i++
			}
		}
	}
	if password == "" {
		password = os.Getenv("RAMP_PASSWORD")
	}
	if password == "" {
		fmt.Print("Password: ")
		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() {
			return fmt.Errorf("no password entered")
		}
		password = strings.TrimSpace(scanner.Text())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	user, err := sess.Login(ctx, client, email, password)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Printf("✓ Logged in as %s (%s)\n", user.Email, user.Role)
	if exp, ok := sess.TokenExpiry(); ok {
		fmt.Printf("  Session expires: %s\n", exp.Format(time.RFC3339))
	}
	return nil
}

// cmdLogout discards the cached session
func cmdLogout(sess *session.Session) error {
	if err := sess.Logout(); err != nil {
		return err
	}
	green := color.New(color.FgGreen)
	green.Println("✓ Logged out")
	return nil
}

// cmdMe shows the cached identity
func cmdMe(sess *session.Session) error {
	user := sess.User()
	if user == nil {
		return session.ErrNotLoggedIn
	}

	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)

	fmt.Println()
	cyan.Println("  Identity")
	cyan.Println("  --------")
	fmt.Printf("  ID:      %s\n", user.ID)
	fmt.Printf("  Email:   %s\n", user.Email)
	green.Printf("  Role:    %s\n", user.Role)
	if exp, ok := sess.TokenExpiry(); ok {
		status := "valid"
		if sess.Expired() {
			status = "EXPIRED"
		}
		fmt.Printf("  Token:   %s (expires %s)\n", status, exp.Format(time.RFC3339))
	}
	fmt.Println()
	return nil
}

// cmdUsers handles user subcommands
func cmdUsers(client *api.Client, args []string) error {
	// Default to list
	subcmd := "list"
	if len(args) > 0 {
		subcmd = args[0]
		args = args[1:]
	}

	switch subcmd {
	case "list", "ls":
		return cmdUsersList(client)
	case "create", "add":
		return cmdUsersCreate(client, args)
	case "update":
		return cmdUsersUpdate(client, args)
	case "delete", "rm", "remove":
		return cmdUsersDelete(client, args)
	default:
		return fmt.Errorf("unknown users subcommand: %s (use list, create, update, delete)", subcmd)
	}
}

// cmdUsersList lists all users
func cmdUsersList(client *api.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users, err := client.ListUsers(ctx)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  Users")
	cyan.Println("  -----")

	if len(users) == 0 {
		fmt.Println("  (no users)")
		fmt.Println()
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tEMAIL\tROLE")
	fmt.Fprintln(w, "  --\t-----\t----")
	for _, u := range users {
		fmt.Fprintf(w, "  %s\t%s\t%s\n", truncate(u.ID, 24), truncate(u.Email, 36), u.Role)
	}
	w.Flush()
	fmt.Println()
	return nil
}

// cmdUsersCreate creates a new user
func cmdUsersCreate(client *api.Client, args []string) error {
	var email, password, role string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--email", "-e":
			if i+1 < len(args) {
				email = args[i+1]
				i++
			}
		case "--password", "-p":
			if i+1 < len(args) {
				password = args[i+1]
				i++
			}
		case "--role", "-r":
			if i+1 < len(args) {
				role = args[i+1]
				i++
			}
		}
	}

	if email == "" || password == "" {
		return fmt.Errorf("usage: users create --email <email> --password <password> [--role <role>]")
	}
	if role == "" {
		role = "user"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	user, err := client.CreateUser(ctx, api.UserCreate{Email: email, Password: password, Role: role})
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Printf("✓ Created user: %s\n", user.ID)
	fmt.Printf("  Email:  %s\n", user.Email)
	fmt.Printf("  Role:   %s\n", user.Role)
	return nil
}

// cmdUsersUpdate updates a user's fields
func cmdUsersUpdate(client *api.Client, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: users update <id> [--email <email>] [--password <password>] [--role <role>]")
	}
	userID := args[0]
	args = args[1:]

	var update api.UserUpdate
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--email", "-e":
			if i+1 < len(args) {
				update.Email = &args[i+1]
				i++
			}
		case "--password", "-p":
			if i+1 < len(args) {
				update.Password = &args[i+1]
				i++
			}
		case "--role", "-r":
			if i+1 < len(args) {
				update.Role = &args[i+1]
				i++
			}
		}
	}

	if update.Email == nil && update.Password == nil && update.Role == nil {
		return fmt.Errorf("nothing to update (use --email, --password or --role)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	user, err := client.UpdateUser(ctx, userID, update)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Printf("✓ Updated user: %s\n", user.ID)
	fmt.Printf("  Email:  %s\n", user.Email)
	fmt.Printf("  Role:   %s\n", user.Role)
	return nil
}

// cmdUsersDelete deletes a user
func cmdUsersDelete(client *api.Client, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: users delete <user-id>")
	}
	userID := args[0]

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := client.DeleteUser(ctx, userID); err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Printf("✓ Deleted user: %s\n", userID)
	return nil
}

// cmdAgents handles agent subcommands
func cmdAgents(client *api.Client, args []string) error {
	// Default to list
	subcmd := "list"
	if len(args) > 0 {
		subcmd = args[0]
		args = args[1:]
	}

	switch subcmd {
	case "list", "ls":
		return cmdAgentsList(client)
	case "get", "show":
		return cmdAgentsGet(client, args)
	case "create", "add":
		return cmdAgentsCreate(client, args)
	case "update":
		return cmdAgentsUpdate(client, args)
	case "delete", "rm", "remove":
		return cmdAgentsDelete(client, args)
	case "export":
		return cmdAgentsExport(client, args)
	default:
		return fmt.Errorf("unknown agents subcommand: %s (use list, get, create, update, delete, export)", subcmd)
	}
}

// cmdAgentsList lists all agents
func cmdAgentsList(client *api.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	agents, err := client.ListAgents(ctx)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  Onboarding Agents")
	cyan.Println("  -----------------")

	if len(agents) == 0 {
		fmt.Println("  (no agents)")
		fmt.Println()
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tNAME\tROLE\tSTEPS\tEMAILS")
	fmt.Fprintln(w, "  --\t----\t----\t-----\t------")
	for _, a := range agents {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%d\t%d\n",
			truncate(a.ID, 24), truncate(a.Name, 28), truncate(a.Role, 24), len(a.Steps), len(a.Emails))
	}
	w.Flush()
	fmt.Println()
	return nil
}

// cmdAgentsGet shows one agent with its step workflow
func cmdAgentsGet(client *api.Client, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: agents get <agent-id>")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	agent, err := client.GetAgent(ctx, args[0])
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Printf("  %s\n", agent.Name)
	cyan.Println("  " + strings.Repeat("-", len(agent.Name)))
	fmt.Printf("  ID:      %s\n", agent.ID)
	fmt.Printf("  Role:    %s\n", agent.Role)
	fmt.Printf("  Emails:  %s\n", strings.Join(agent.Emails, ", "))
	fmt.Println()

	printStepsTable(agent.Steps)
	return nil
}

// cmdAgentsCreate creates a new agent
func cmdAgentsCreate(client *api.Client, args []string) error {
	var name, role, emails string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--name", "-n":
			if i+1 < len(args) {
				name = args[i+1]
				i++
			}
		case "--role", "-r":
			if i+1 < len(args) {
				role = args[i+1]
				i++
			}
		case "--emails", "-e":
			if i+1 < len(args) {
				emails = args[i+1]
				i++
			}
		}
	}

	if name == "" || role == "" {
		return fmt.Errorf("usage: agents create --name <name> --role <role> [--emails a@x.com,b@x.com]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	agent, err := client.CreateAgent(ctx, api.AgentCreate{
		Name:   name,
		Role:   role,
		Emails: splitEmails(emails),
	})
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Printf("✓ Created agent: %s\n", agent.ID)
	fmt.Printf("  Name:  %s\n", agent.Name)
	fmt.Printf("  Role:  %s\n", agent.Role)
	return nil
}

// cmdAgentsUpdate updates an agent's fields
func cmdAgentsUpdate(client *api.Client, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: agents update <id> [--name <name>] [--role <role>] [--emails a@x.com,b@x.com]")
	}
	agentID := args[0]
	args = args[1:]

	var update api.AgentUpdate
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--name", "-n":
			if i+1 < len(args) {
				update.Name = &args[i+1]
				i++
			}
		case "--role", "-r":
			if i+1 < len(args) {
				update.Role = &args[i+1]
				i++
			}
		case "--emails", "-e":
			if i+1 < len(args) {
				list := splitEmails(args[i+1])
				update.Emails = &list
				i++
			}
		}
	}

	if update.Name == nil && update.Role == nil && update.Emails == nil {
		return fmt.Errorf("nothing to update (use --name, --role or --emails)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	agent, err := client.UpdateAgent(ctx, agentID, update)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Printf("✓ Updated agent: %s\n", agent.ID)
	fmt.Printf("  Name:  %s\n", agent.Name)
	fmt.Printf("  Role:  %s\n", agent.Role)
	return nil
}

// cmdAgentsDelete deletes an agent
func cmdAgentsDelete(client *api.Client, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: agents delete <agent-id>")
	}
	agentID := args[0]

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := client.DeleteAgent(ctx, agentID); err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Printf("✓ Deleted agent: %s\n", agentID)
	return nil
}

// cmdAgentsExport writes an agent's workflow as a standalone HTML page
func cmdAgentsExport(client *api.Client, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: agents export <agent-id> [--out <file>]")
	}
	agentID := args[0]
	args = args[1:]

	var outPath string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--out", "-o":
			if i+1 < len(args) {
				outPath = args[i+1]
				i++
			}
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	agent, err := client.GetAgent(ctx, agentID)
	if err != nil {
		return err
	}

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", outPath, err)
		}
		defer f.Close()
		out = f
	}

	if err := export.WriteHTML(out, agent); err != nil {
		return err
	}

	if outPath != "" {
		green := color.New(color.FgGreen)
		green.Printf("✓ Exported %d steps to %s\n", len(agent.Steps), outPath)
	}
	return nil
}

// printStepsTable renders a step workflow as a numbered table
func printStepsTable(steps []api.OnboardingStep) {
	cyan := color.New(color.FgCyan)
	cyan.Println("  Steps")
	cyan.Println("  -----")

	if len(steps) == 0 {
		fmt.Println("  (no steps)")
		fmt.Println()
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  #\tTITLE\tDESCRIPTION\tRECORDING")
	fmt.Fprintln(w, "  -\t-----\t-----------\t---------")
	for i, s := range steps {
		rec := ""
		if s.RecordingURL != "" {
			rec = "yes"
		}
		fmt.Fprintf(w, "  %d\t%s\t%s\t%s\n", i+1, truncate(s.Title, 32), truncate(s.Description, 48), rec)
	}
	w.Flush()
	fmt.Println()
}

// splitEmails parses a comma-separated email list, dropping blanks
func splitEmails(s string) []string {
	var out []string
	for _, e := range strings.Split(s, ",") {
		e = strings.TrimSpace(e)
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

// parseIntArg parses a string to int
func parseIntArg(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return v, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
