package main

import (
	"fmt"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/copysaver/copysaver/internal/cli"
)

func main() {
	// Parse command-line arguments
	var args cli.Args
	parser := arg.MustParse(&args)

	// If no subcommand provided, launch the interactive browser
	if !hasSubcommand(&args) {
		args.Browse = &cli.BrowseCmd{}
	}

	cliHandler, err := cli.NewWithArgs(&args)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer cliHandler.Close()

	if err := cliHandler.Execute(&args); err != nil {
		fmt.Printf("Error: %v\n", err)
		fmt.Println()
		parser.WriteUsage(os.Stderr)
		os.Exit(1)
	}
}

func hasSubcommand(args *cli.Args) bool {
	return args.Capture != nil || args.Watch != nil || args.List != nil ||
		args.Pin != nil || args.Label != nil || args.Save != nil ||
		args.Unsave != nil || args.Trash != nil || args.Restore != nil ||
		args.Delete != nil || args.Clear != nil || args.Category != nil ||
		args.Insights != nil || args.Browse != nil || args.Config != nil
}
