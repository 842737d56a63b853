package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"codeberg.org/snonux/qb2anki/internal/cli"
	"codeberg.org/snonux/qb2anki/internal/processor"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// Create root command
	rootCmd := cli.CreateRootCommand(flags)

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	// Set the run function
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		cli.ApplyConfig(cmd, flags)
		return runCommand(cmd.Context(), args, flags)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Execute command
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func runCommand(ctx context.Context, args []string, flags *cli.Flags) error {
	// Create processor
	proc, err := processor.NewProcessor(flags)
	if err != nil {
		return err
	}

	// Handle the informational flags
	if flags.ListSubjects {
		proc.ListSubjects()
		return nil
	}
	if flags.ListModels {
		return proc.ListModels(ctx)
	}
	if flags.Check {
		return proc.CheckConnection(ctx)
	}

	// No input provided - launch GUI mode by default
	if flags.GUIMode || launchGUI(args, flags) {
		return proc.RunGUIMode()
	}

	if flags.BatchFile != "" {
		// Process batch file
		if err := proc.ProcessBatch(ctx); err != nil {
			return err
		}
	} else {
		// Process single question
		text, err := proc.ReadInput(args)
		if err != nil {
			return err
		}
		if _, err := proc.ProcessText(ctx, text, ""); err != nil {
			return err
		}
	}

	// Write the offline export if requested
	if flags.Exporting() {
		fmt.Printf("\nWriting export files...\n")
		paths, err := proc.WriteExport()
		if err != nil {
			return err
		}
		for _, path := range paths {
			fmt.Printf("Created: %s\n", path)
		}
	}

	return nil
}

// launchGUI reports whether there is nothing to read, i.e. no file, no
// batch, no clipboard and an interactive stdin
func launchGUI(args []string, flags *cli.Flags) bool {
	if len(args) > 0 || flags.BatchFile != "" || flags.Clipboard {
		return false
	}
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
