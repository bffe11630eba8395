package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ooju-data/videosync/internal/version"
)

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	switch command {
	case "sync":
		handleSync(args)
	case "report":
		handleReport(args)
	case "plot":
		handlePlot(args)
	case "serve":
		handleServe(args)
	case "migrate":
		handleMigrate(args)
	case "version":
		fmt.Printf("videosync version %s\n", version.String())
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`videosync - temporal alignment of video and motion-capture streams

Usage: videosync <command> [options]

Commands:
  sync       Align a session's video frames against its motion stream
  report     Print alignment statistics for a stored run
  plot       Write alignment PNG plots for a stored run
  serve      Start the monitoring HTTP server
  migrate    Apply database schema migrations
  version    Show videosync version
  help       Show this help message

Common Flags:
  --db <file>          SQLite database path (default: videosync.db)
  --config <file>      Session configuration JSON; explicit flags
                       override values from the file

Examples:
  # Align a session recorded at 30fps with a 0.5s clock offset
  videosync sync --session ./sessions/demo --fps 30 --frame-count 900 --offset 0.5

  # Align using a precomputed frame timestamp file
  videosync sync --session ./sessions/demo --frames timestamps.json

  # Print the report for the most recent run
  videosync report

  # Serve the monitoring UI with live calibration adjustment
  videosync serve --listen :8080 --calibration config/calibration.json`)
}
