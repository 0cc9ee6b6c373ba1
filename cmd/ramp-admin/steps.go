// ABOUTME: Step workflow subcommands for ramp-admin
// ABOUTME: List, add, reorder and delete an agent's onboarding steps

package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/rampkit/ramp/internal/api"
	"github.com/rampkit/ramp/internal/steps"
)

// cmdSteps handles steps subcommands
func cmdSteps(client *api.Client, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: steps <agent-id> [list|add|reorder|rm]")
	}
	agentID := args[0]
	args = args[1:]

	// Default to list
	subcmd := "list"
	if len(args) > 0 {
		subcmd = args[0]
		args = args[1:]
	}

	switch subcmd {
	case "list", "ls":
		return cmdStepsList(client, agentID)
	case "add":
		return cmdStepsAdd(client, agentID, args)
	case "reorder":
		return cmdStepsReorder(client, agentID, args)
	case "rm", "delete", "remove":
		return cmdStepsDelete(client, agentID, args)
	default:
		return fmt.Errorf("unknown steps subcommand: %s (use list, add, reorder, rm)", subcmd)
	}
}

// loadEditor fetches the agent and wraps its steps in an editor that
// syncs back to the backend and prints sync failures.
func loadEditor(ctx context.Context, client *api.Client, agentID string) (*steps.Editor, error) {
	agent, err := client.GetAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}

	notify := func(title, detail string) {
		yellow := color.New(color.FgYellow)
		yellow.Printf("! %s: %s\n", title, detail)
	}

	editor := steps.NewEditor(client, notify, slog.Default())
	editor.Load(agent.ID, agent.Steps)
	return editor, nil
}

// cmdStepsList lists an agent's steps
func cmdStepsList(client *api.Client, agentID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	agent, err := client.GetAgent(ctx, agentID)
	if err != nil {
		return err
	}

	fmt.Println()
	printStepsTable(agent.Steps)
	return nil
}

// cmdStepsAdd appends one hand-written step
func cmdStepsAdd(client *api.Client, agentID string, args []string) error {
	var title, description string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--title", "-t":
			if i+1 < len(args) {
				title = args[i+1]
				i++
			}
		case "--desc", "-d":
			if i+1 < len(args) {
				description = args[i+1]
				i++
			}
		}
	}

	if title == "" {
		return fmt.Errorf("usage: steps <agent-id> add --title <title> [--desc <description>]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	editor, err := loadEditor(ctx, client, agentID)
	if err != nil {
		return err
	}

	step := editor.Add(ctx, title, description)
	editor.Wait()

	green := color.New(color.FgGreen)
	green.Printf("✓ Added step %d: %s\n", editor.Len(), step.Title)
	return nil
}

// cmdStepsReorder rearranges the workflow to the given 1-based order
func cmdStepsReorder(client *api.Client, agentID string, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: steps <agent-id> reorder <positions> (e.g. 3,1,2)")
	}

	var order []int
	for _, part := range strings.Split(args[0], ",") {
		n, err := parseIntArg(part)
		if err != nil {
			return err
		}
		order = append(order, n-1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	editor, err := loadEditor(ctx, client, agentID)
	if err != nil {
		return err
	}

	if err := editor.Reorder(ctx, order); err != nil {
		return err
	}
	editor.Wait()

	green := color.New(color.FgGreen)
	green.Println("✓ Reordered steps")
	fmt.Println()
	printStepsTable(editor.Steps())
	return nil
}

// cmdStepsDelete removes one step after an interactive confirmation
func cmdStepsDelete(client *api.Client, agentID string, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: steps <agent-id> rm <position>")
	}
	position, err := parseIntArg(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	editor, err := loadEditor(ctx, client, agentID)
	if err != nil {
		return err
	}

	index := position - 1
	if err := editor.RequestDelete(index); err != nil {
		return err
	}

	target := editor.Steps()[index]
	fmt.Printf("Delete step %d (%s)? [y/N] ", position, target.Title)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() || !strings.EqualFold(strings.TrimSpace(scanner.Text()), "y") {
		editor.CancelDelete()
		fmt.Println("Cancelled.")
		return nil
	}

	if err := editor.ConfirmDelete(ctx); err != nil {
		return err
	}
	editor.Wait()

	green := color.New(color.FgGreen)
	green.Printf("✓ Deleted step %d: %s\n", position, target.Title)
	return nil
}
