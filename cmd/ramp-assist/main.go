// ABOUTME: Interactive onboarding assistant REPL for employees
// ABOUTME: Walks through an agent's step workflow with locally persisted progress

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/rampkit/ramp/internal/api"
	"github.com/rampkit/ramp/internal/assist"
	"github.com/rampkit/ramp/internal/config"
	"github.com/rampkit/ramp/internal/session"
	"github.com/rampkit/ramp/internal/state"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", defaultConfigPath(), "Config file path")
	agentID := flag.String("agent", "", "Onboarding agent ID (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	setupLogging(cfg.Logging.Level)

	if *agentID == "" {
		*agentID = cfg.Assistant.Agent
	}

	// Setup context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, *agentID); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nGoodbye!")
}

// setupLogging installs the default slog logger at the given level.
func setupLogging(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

func run(ctx context.Context, cfg *Config, agentID string) error {
	sess := session.Load(config.ConfigDir(), slog.Default())
	client := api.New(cfg.Backend.URL, api.WithTokenSource(sess.Token))

	scanner := bufio.NewScanner(os.Stdin)

	if sess.User() == nil || sess.Expired() {
		if err := login(ctx, client, sess, scanner); err != nil {
			return err
		}
	}

	agent, err := pickAgent(ctx, client, agentID, scanner)
	if err != nil {
		return err
	}

	store, err := state.NewSQLiteStore(cfg.Assistant.StatePath)
	if err != nil {
		return fmt.Errorf("opening state store: %w", err)
	}
	defer store.Close()

	assistant, err := assist.New(ctx, agent, store, slog.Default())
	if err != nil {
		return fmt.Errorf("starting assistant: %w", err)
	}

	cyan := color.New(color.FgCyan)
	cyan.Printf("ramp-assist: %s onboarding (%d steps)\n", agent.Role, len(agent.Steps))
	fmt.Println("Type a message and press Enter. /help for commands. Ctrl+C to quit.")
	fmt.Println()

	// Replay the saved transcript so a resumed session has its context
	for _, msg := range assistant.Messages() {
		printMessage(msg)
	}
	fmt.Println()

	return repl(ctx, assistant, scanner)
}

// login prompts for credentials and caches the session.
func login(ctx context.Context, client *api.Client, sess *session.Session, scanner *bufio.Scanner) error {
	fmt.Println("Please log in to your onboarding account.")

	fmt.Print("Email: ")
	if !scanner.Scan() {
		return io.EOF
	}
	email := strings.TrimSpace(scanner.Text())

	password := os.Getenv("RAMP_PASSWORD")
	if password == "" {
		fmt.Print("Password: ")
		if !scanner.Scan() {
			return io.EOF
		}
		password = strings.TrimSpace(scanner.Text())
	}

	loginCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	user, err := sess.Login(loginCtx, client, email, password)
	if err != nil {
		return err
	}
	fmt.Printf("Logged in as %s\n\n", user.Email)
	return nil
}

// pickAgent resolves the agent to onboard against, prompting when the
// backend lists more than one for this account.
func pickAgent(ctx context.Context, client *api.Client, agentID string, scanner *bufio.Scanner) (*api.Agent, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if agentID != "" {
		return client.GetAgent(fetchCtx, agentID)
	}

	agents, err := client.ListAgents(fetchCtx)
	if err != nil {
		return nil, err
	}
	switch len(agents) {
	case 0:
		return nil, fmt.Errorf("no onboarding agents are assigned to your account")
	case 1:
		return &agents[0], nil
	}

	fmt.Println("Your onboarding programs:")
	for i, a := range agents {
		fmt.Printf("  %d. %s (%s)\n", i+1, a.Name, a.Role)
	}
	fmt.Print("Pick one: ")
	if !scanner.Scan() {
		return nil, io.EOF
	}
	var n int
	if _, err := fmt.Sscanf(strings.TrimSpace(scanner.Text()), "%d", &n); err != nil || n < 1 || n > len(agents) {
		return nil, fmt.Errorf("invalid selection")
	}
	return &agents[n-1], nil
}

// repl is the interactive loop. Slash commands navigate the workflow;
// anything else goes to the assistant.
func repl(ctx context.Context, assistant *assist.Assistant, scanner *bufio.Scanner) error {
	for {
		fmt.Print("> ")

		// Read input with context awareness
		inputCh := make(chan string, 1)
		errCh := make(chan error, 1)
		go func() {
			if scanner.Scan() {
				inputCh <- scanner.Text()
			} else {
				if err := scanner.Err(); err != nil {
					errCh <- err
				} else {
					errCh <- io.EOF
				}
			}
		}()

		var input string
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		case input = <-inputCh:
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if input == "/quit" || input == "/exit" || input == "/q" {
			return nil
		}

		if handled, err := handleCommand(ctx, assistant, input); handled {
			if err != nil {
				fmt.Printf("[error] %v\n", err)
			}
			fmt.Println()
			continue
		}

		msg, err := assistant.Respond(ctx, input)
		if err != nil {
			fmt.Printf("[error] %v\n", err)
			fmt.Println()
			continue
		}
		printMessage(msg)
		// Show any transition appended alongside the reply
		if all := assistant.Messages(); len(all) > 0 {
			last := all[len(all)-1]
			if last.Content != msg.Content && last.Role == state.RoleAssistant {
				printMessage(last)
			}
		}
		fmt.Println()
	}
}

// handleCommand dispatches slash commands; handled is false for free text.
func handleCommand(ctx context.Context, assistant *assist.Assistant, input string) (handled bool, err error) {
	switch input {
	case "/steps":
		printSteps(assistant)
		return true, nil
	case "/next", "/done":
		transition, err := assistant.Next(ctx)
		if err != nil {
			return true, err
		}
		fmt.Println(transition)
		return true, nil
	case "/prev", "/back":
		transition, err := assistant.Previous(ctx)
		if err != nil {
			return true, err
		}
		fmt.Println(transition)
		return true, nil
	case "/progress":
		fmt.Printf("Progress: %.0f%%\n", assistant.Progress()*100)
		return true, nil
	case "/reset":
		if err := assistant.Reset(ctx); err != nil {
			return true, err
		}
		fmt.Println("Progress cleared. Restart ramp-assist to begin again.")
		return true, nil
	case "/help":
		printHelp()
		return true, nil
	}
	return false, nil
}

// printSteps shows the workflow with the current step marked.
func printSteps(assistant *assist.Assistant) {
	_, current, ok := assistant.CurrentStep()
	if !ok {
		fmt.Println("This agent has no steps yet.")
		return
	}
	for i, s := range assistant.Agent().Steps {
		marker := "  "
		if i == current {
			marker = "> "
		}
		fmt.Printf("%s%d. %s\n", marker, i+1, s.Title)
	}
}

// printMessage renders one transcript line.
func printMessage(msg state.AssistantMessage) {
	if msg.Role == state.RoleAssistant {
		cyan := color.New(color.FgCyan)
		cyan.Printf("assistant: ")
		fmt.Println(msg.Content)
	} else {
		fmt.Printf("you: %s\n", msg.Content)
	}
}

// printHelp displays available commands.
func printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  /steps         Show the workflow and current step")
	fmt.Println("  /next, /done   Mark the current step complete and advance")
	fmt.Println("  /prev, /back   Go back one step")
	fmt.Println("  /progress      Show completion percentage")
	fmt.Println("  /reset         Discard saved progress for this agent")
	fmt.Println("  /help          Show this help")
	fmt.Println("  /quit          Exit")
}
