// ABOUTME: Guided recording command for ramp-admin
// ABOUTME: Captures the screen, uploads the blob and merges extracted steps

package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/rampkit/ramp/internal/api"
	"github.com/rampkit/ramp/internal/capture"
	"github.com/rampkit/ramp/internal/config"
	"github.com/rampkit/ramp/internal/extract"
	"github.com/rampkit/ramp/internal/guided"
)

// cmdRecord runs one capture-upload-extract cycle and appends the
// extracted steps to the agent's workflow.
func cmdRecord(cfg *config.Config, client *api.Client, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: record <agent-id> [--step <position>]")
	}
	agentID := args[0]
	args = args[1:]

	position := 0
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--step", "-s":
			if i+1 < len(args) {
				n, err := parseIntArg(args[i+1])
				if err != nil {
					return err
				}
				position = n
				i++
			}
		}
	}

	ctx := context.Background()

	agent, err := client.GetAgent(ctx, agentID)
	if err != nil {
		return err
	}

	// Default to appending after the last existing step
	stepIndex := len(agent.Steps)
	if position > 0 {
		stepIndex = position - 1
	}

	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)
	green := color.New(color.FgGreen)

	onTick := func(seconds int) {
		fmt.Printf("\r  Recording  %02d:%02d  (press Enter to stop)", seconds/60, seconds%60)
	}

	rec := capture.NewScreenRecorder(capture.Config{
		FFmpegPath:   cfg.Capture.FFmpegPath,
		Display:      cfg.Capture.Display,
		DisplayAudio: cfg.Capture.DisplayAudio,
		Microphone:   cfg.Capture.Microphone,
		FrameRate:    cfg.Capture.FrameRate,
		SegmentSecs:  cfg.Capture.SegmentSecs,
		OutDir:       cfg.Capture.OutDir,
	}, slog.Default(), onTick)

	var pollOpts []extract.Option
	if cfg.Extraction.PollInterval > 0 {
		pollOpts = append(pollOpts, extract.WithInterval(cfg.Extraction.PollInterval))
	}
	if cfg.Extraction.MaxWait > 0 {
		pollOpts = append(pollOpts, extract.WithMaxWait(cfg.Extraction.MaxWait))
	}
	poller := extract.New(client, pollOpts...)

	gs := guided.NewSession(rec, client, poller, slog.Default())

	cyan.Printf("Recording for %s (step %d)\n", agent.Name, stepIndex+1)
	if err := gs.Record(ctx); err != nil {
		return err
	}
	for _, w := range gs.Warnings() {
		yellow.Printf("! %s\n", w)
	}

	// Stop on Enter, or when the capture ends on its own
	enter := make(chan struct{})
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Scan()
		close(enter)
	}()
	select {
	case <-enter:
	case <-gs.Stopped():
		fmt.Println()
		yellow.Println("! Capture ended outside the tool")
	}
	fmt.Println()

	cyan.Println("Uploading and extracting steps (this can take a while)...")
	extracted, err := gs.Finish(ctx, stepIndex)
	if err != nil {
		return err
	}

	if len(extracted) == 0 {
		yellow.Println("! No steps were extracted from the recording")
		return nil
	}

	editCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	editor, err := loadEditor(editCtx, client, agentID)
	if err != nil {
		return err
	}
	editor.Append(editCtx, extracted...)
	editor.Wait()

	green.Printf("✓ Added %d extracted steps\n", len(extracted))
	fmt.Println()
	printStepsTable(editor.Steps())
	return nil
}
