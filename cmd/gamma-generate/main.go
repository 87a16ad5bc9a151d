// Command gamma-generate submits one generation and waits for its shareable
// URL, printing every status check.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/joho/godotenv"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/Tributary-ai-services/gamma-operator/internal/config"
	"github.com/Tributary-ai-services/gamma-operator/pkg/gamma"
)

func main() {
	_ = godotenv.Load()
	ctrl.SetLogger(zap.New(zap.WriteTo(os.Stderr)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, nil, ctrl.Log.WithName("gamma-generate"))
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Generation failed:", err)
		os.Exit(1)
	}
}

type cliFlags struct {
	input        string
	inputFile    string
	textMode     string
	format       string
	theme        string
	numCards     int
	cardSplit    string
	instructions string
	exportAs     string
	amount       string
	tone         string
	audience     string
	language     string
	imageSource  string
	imageModel   string
	imageStyle   string
	dimensions   string
	workspace    string
	external     string
	maxAttempts  int
	jsonOutput   bool
	noWait       bool
}

func parseFlags(args []string, stderr io.Writer) (cliFlags, *flag.FlagSet, error) {
	var f cliFlags
	fs := flag.NewFlagSet("gamma-generate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&f.input, "input", "", "Input text")
	fs.StringVar(&f.inputFile, "input-file", "", "Read input text from a file, - for stdin")
	fs.StringVar(&f.textMode, "text-mode", "", "generate, condense or preserve")
	fs.StringVar(&f.format, "format", "", "presentation, document or social")
	fs.StringVar(&f.theme, "theme", "", "Theme name")
	fs.IntVar(&f.numCards, "num-cards", 0, "Number of cards (1-75)")
	fs.StringVar(&f.cardSplit, "card-split", "", "auto or inputTextBreaks")
	fs.StringVar(&f.instructions, "instructions", "", "Additional instructions")
	fs.StringVar(&f.exportAs, "export-as", "", "Comma-separated export formats (pdf, pptx)")
	fs.StringVar(&f.amount, "text-amount", "", "brief, medium, detailed or extensive")
	fs.StringVar(&f.tone, "tone", "", "Text tone")
	fs.StringVar(&f.audience, "audience", "", "Intended audience")
	fs.StringVar(&f.language, "language", "", "Output language")
	fs.StringVar(&f.imageSource, "image-source", "", "Image source")
	fs.StringVar(&f.imageModel, "image-model", "", "Image model")
	fs.StringVar(&f.imageStyle, "image-style", "", "Image style")
	fs.StringVar(&f.dimensions, "dimensions", "", "Card dimensions")
	fs.StringVar(&f.workspace, "workspace-access", "", "Workspace sharing level")
	fs.StringVar(&f.external, "external-access", "", "External sharing level")
	fs.IntVar(&f.maxAttempts, "max-attempts", 0, "Status checks before giving up (default GAMMA_POLL_MAX_ATTEMPTS)")
	fs.BoolVar(&f.jsonOutput, "json", false, "Print the final result as JSON")
	fs.BoolVar(&f.noWait, "no-wait", false, "Submit only, do not wait for the URL")

	err := fs.Parse(args)
	return f, fs, err
}

func (f cliFlags) params(fs *flag.FlagSet, stdin io.Reader) (gamma.GenerateParams, error) {
	input := f.input
	switch f.inputFile {
	case "":
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return gamma.GenerateParams{}, fmt.Errorf("read stdin: %w", err)
		}
		input = string(data)
	default:
		data, err := os.ReadFile(f.inputFile)
		if err != nil {
			return gamma.GenerateParams{}, fmt.Errorf("read input file: %w", err)
		}
		input = string(data)
	}

	p := gamma.GenerateParams{
		InputText:              input,
		TextMode:               gamma.TextMode(f.textMode),
		Format:                 gamma.Format(f.format),
		ThemeName:              f.theme,
		CardSplit:              gamma.CardSplit(f.cardSplit),
		AdditionalInstructions: f.instructions,
	}
	fs.Visit(func(fl *flag.Flag) {
		if fl.Name == "num-cards" {
			n := f.numCards
			p.NumCards = &n
		}
	})
	for _, e := range strings.Split(f.exportAs, ",") {
		if e = strings.TrimSpace(e); e != "" {
			p.ExportAs = append(p.ExportAs, gamma.ExportType(strings.ToLower(e)))
		}
	}
	if text := (gamma.TextOptions{Amount: gamma.TextAmount(f.amount), Tone: f.tone, Audience: f.audience, Language: f.language}); text != (gamma.TextOptions{}) {
		p.TextOptions = &text
	}
	if image := (gamma.ImageOptions{Source: gamma.ImageSource(f.imageSource), Model: f.imageModel, Style: f.imageStyle}); image != (gamma.ImageOptions{}) {
		p.ImageOptions = &image
	}
	if f.dimensions != "" {
		p.CardOptions = &gamma.CardOptions{Dimensions: gamma.CardDimension(f.dimensions)}
	}
	if sharing := (gamma.SharingOptions{WorkspaceAccess: gamma.WorkspaceAccess(f.workspace), ExternalAccess: gamma.ExternalAccess(f.external)}); sharing != (gamma.SharingOptions{}) {
		p.SharingOptions = &sharing
	}
	return p, nil
}

// run is main without the process: environ nil reads the process
// environment.
func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer, environ map[string]string, log logr.Logger) error {
	f, fs, err := parseFlags(args, stdout)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	cfg, err := config.Load(environ)
	if err != nil {
		return err
	}
	for _, w := range cfg.Warnings {
		log.Info("Configuration warning", "warning", w)
	}
	return generate(ctx, cfg.Gamma, f, fs, stdin, stdout, log)
}

func generate(ctx context.Context, opts gamma.Options, f cliFlags, fs *flag.FlagSet, stdin io.Reader, stdout io.Writer, log logr.Logger) error {
	params, err := f.params(fs, stdin)
	if err != nil {
		return err
	}

	opts.Logger = &log
	client, err := gamma.NewClient(opts)
	if err != nil {
		return err
	}

	handle, err := client.Submit(ctx, params)
	if err != nil {
		if r, ok := gamma.FailureResult("", err); ok {
			return errors.New(r.Error)
		}
		return err
	}
	fmt.Fprintf(stdout, "Gamma generation submitted: %s (%s)\n", handle.ID, handle.Status)
	if f.noWait {
		return printResult(stdout, f.jsonOutput, gamma.Result{GenerationID: handle.ID, Status: handle.Status, Message: handle.Message, Credits: handle.Credits})
	}

	sleep := opts.Sleep
	if sleep == nil {
		sleep = gamma.SleepContext
	}
	poller := client.Poller(f.maxAttempts)
	poller.OnAttempt = func(o gamma.Observation) {
		if o.Err != nil {
			fmt.Fprintf(stdout, "Attempt %d/%d: %v\n", o.Attempt, o.MaxAttempts, o.Err)
			return
		}
		fmt.Fprintf(stdout, "Attempt %d/%d: %s\n", o.Attempt, o.MaxAttempts, o.Snapshot.Status)
	}
	poller.Sleep = func(ctx context.Context, d time.Duration) error {
		fmt.Fprintf(stdout, "Waiting %s before next check...\n", d.Round(time.Millisecond))
		return sleep(ctx, d)
	}

	snap, err := poller.Wait(ctx, handle.ID)
	if err != nil {
		if r, ok := gamma.FailureResult(handle.ID, err); ok {
			if f.jsonOutput {
				_ = printResult(stdout, true, r)
			}
			return errors.New(r.Error)
		}
		return err
	}

	return printResult(stdout, f.jsonOutput, gamma.Result{
		GenerationID: handle.ID,
		Status:       gamma.StatusCompleted,
		URL:          snap.URL,
		GammaURL:     snap.GammaURL,
		ExportURL:    snap.ExportURL,
		Credits:      snap.Credits,
	})
}

func printResult(w io.Writer, asJSON bool, r gamma.Result) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	if r.URL != "" {
		fmt.Fprintln(w, "Shareable Gamma URL:", r.URL)
	}
	if r.ExportURL != "" {
		fmt.Fprintln(w, "Export URL:", r.ExportURL)
	}
	return nil
}
