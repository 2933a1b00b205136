package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/campustools/canvas-digest/internal/cache"
	"github.com/campustools/canvas-digest/internal/canvas"
	"github.com/campustools/canvas-digest/internal/config"
	"github.com/campustools/canvas-digest/internal/digest"
	"github.com/campustools/canvas-digest/internal/handler"
	"github.com/campustools/canvas-digest/internal/middleware"
	"github.com/campustools/canvas-digest/internal/render"
	"github.com/campustools/canvas-digest/internal/router"
	"github.com/campustools/canvas-digest/internal/service"
)

type options struct {
	courses      []int
	term         string
	max          int
	source       string
	title        string
	format       string
	out          string
	validatePath string
	serve        bool
	debug        bool
}

func main() {
	opts := parseFlags()

	level := zerolog.InfoLevel
	if opts.debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(level)

	if opts.validatePath != "" {
		os.Exit(runValidate(opts.validatePath))
	}

	if opts.format != "" && !knownFormat(opts.format) {
		fmt.Fprintf(os.Stderr, "unknown format %q (expected one of %s)\n", opts.format, strings.Join(render.Formats(), ", "))
		os.Exit(2)
	}

	if !opts.serve {
		switch {
		case len(opts.courses) == 0 && opts.term == "":
			fmt.Fprintln(os.Stderr, "one of --courses or --term is required")
			os.Exit(2)
		case len(opts.courses) > 0 && opts.term != "":
			fmt.Fprintln(os.Stderr, "--courses and --term are mutually exclusive")
			os.Exit(2)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if missing := cfg.RequireCanvas(); missing != "" {
		fmt.Fprintf(os.Stderr, "Missing environment variable: %s\n", missing)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := canvas.NewClient(canvas.Options{
		BaseURL:    cfg.CanvasBaseURL,
		Token:      cfg.CanvasToken,
		Timeout:    cfg.HTTPTimeout,
		MaxRetries: cfg.MaxRetries,
		PerPage:    cfg.PerPage,
	}, logger)

	redisClient, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, digest caching disabled")
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	svc := service.NewDigestService(client, redisClient, cfg.DigestCacheTTL, logger)

	if opts.serve {
		runServe(ctx, cfg, svc, redisClient != nil, logger)
		return
	}

	built, err := svc.Build(ctx, service.BuildRequest{
		CourseIDs: opts.courses,
		Term:      opts.term,
		Max:       opts.max,
		Source:    opts.source,
		Title:     opts.title,
	})
	if err != nil {
		if errors.Is(err, service.ErrNoCourses) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		logger.Error().Err(err).Msg("digest build failed")
		os.Exit(1)
	}

	output, err := render.Render(opts.format, built)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := writeOutput(opts.out, output); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseFlags() options {
	var opts options

	flags := flag.NewFlagSet("canvas-digest", flag.ExitOnError)
	flags.IntSliceVar(&opts.courses, "courses", nil, "course IDs to fetch, e.g. --courses 12345,67890")
	flags.StringVar(&opts.term, "term", "", `term name substring, e.g. "Spring 2025"`)
	flags.IntVar(&opts.max, "max", service.DefaultMaxCourses, "maximum number of courses")
	flags.StringVar(&opts.source, "source", canvas.SourceCourses, "course listing endpoint order: courses or self")
	flags.StringVar(&opts.title, "title", "", "digest title")
	flags.StringVar(&opts.format, "format", render.FormatText, "output format: text, md, html, csv or json")
	flags.StringVar(&opts.out, "out", "", "write output to a file instead of stdout")
	flags.StringVar(&opts.validatePath, "validate", "", "parse and validate an existing markdown digest file")
	flags.BoolVar(&opts.serve, "serve", false, "run the HTTP server instead of a one-shot digest")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug logging")

	// ExitOnError: parse failures print usage and exit 2.
	_ = flags.Parse(os.Args[1:])

	if opts.source != canvas.SourceCourses && opts.source != canvas.SourceSelf {
		fmt.Fprintln(os.Stderr, "--source must be courses or self")
		os.Exit(2)
	}

	return opts
}

func knownFormat(format string) bool {
	for _, known := range render.Formats() {
		if format == known {
			return true
		}
	}
	return false
}

func runValidate(path string) int {
	file, err := os.Open(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer file.Close()

	doc, err := digest.Parse(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
		return 1
	}

	violations := digest.NewValidator().Validate(doc)
	if len(violations) > 0 {
		for _, violation := range violations {
			fmt.Fprintf(os.Stderr, "%s: %s\n", path, violation)
		}
		fmt.Fprintf(os.Stderr, "%s: %d integrity violation(s)\n", path, len(violations))
		return 1
	}

	rows := 0
	for _, course := range doc.Courses {
		rows += len(course.Rows)
	}
	fmt.Printf("%s: %d course(s), %d assignment(s), no violations\n", path, len(doc.Courses), rows)
	return 0
}

func runServe(ctx context.Context, cfg config.Config, svc service.DigestService, cacheEnabled bool, logger zerolog.Logger) {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		DigestHandler: handler.NewDigestHandler(svc, logger),
		CacheEnabled:  cacheEnabled,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}

func writeOutput(path, output string) error {
	if path == "" {
		fmt.Print(output)
		if !strings.HasSuffix(output, "\n") {
			fmt.Println()
		}
		return nil
	}

	if err := os.WriteFile(path, []byte(output), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Printf("Wrote %s\n", path)
	return nil
}
