// Command mediquery fetches FDA drug labeling, builds the retrieval
// corpus and answers questions against it.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/aqua777/mediquery/config"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		usage()
		return nil
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "fetch":
		return runFetch(rest)
	case "ingest":
		return runIngest(rest)
	case "ask":
		return runAsk(rest)
	case "help", "-h", "--help":
		usage()
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func usage() {
	fmt.Println("mediquery - FDA drug labeling Q&A")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  mediquery fetch  [--config path] [--max-per-drug n]")
	fmt.Println("  mediquery ingest [--config path]")
	fmt.Println("  mediquery ask    [--config path] [-i] [question...]")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  mediquery fetch")
	fmt.Println("  mediquery ingest")
	fmt.Println("  mediquery ask 'What are the side effects of ibuprofen?'")
	fmt.Println("  mediquery ask -i")
}

func runFetch(args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "config file path")
	maxPerDrug := fs.Int("max-per-drug", 2, "labeling PDFs per drug")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	return fetchLabels(context.Background(), cfg, *maxPerDrug)
}

func runIngest(args []string) error {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "config file path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	return ingestLabels(context.Background(), cfg)
}

func runAsk(args []string) error {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "config file path")
	interactive := fs.Bool("i", false, "interactive mode, one question per line")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	engine, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()

	if *interactive {
		fmt.Println("Ask about FDA drug labeling. Empty line exits.")
		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				return scanner.Err()
			}
			question := strings.TrimSpace(scanner.Text())
			if question == "" {
				return nil
			}
			fmt.Println(engine.Answer(ctx, question))
			fmt.Println()
		}
	}

	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		return fmt.Errorf("no question given, see 'mediquery help'")
	}

	fmt.Println(engine.Answer(ctx, question))
	return nil
}
