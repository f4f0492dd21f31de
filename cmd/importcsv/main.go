package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"backend/internal/config"
	"backend/internal/db"
	"backend/internal/importer"
	"backend/internal/logging"
	"backend/internal/repository"
)

type options struct {
	filePath      string
	kind          string
	decisionsPath string
	userID        string
	apply         bool
}

func main() {
	opts := parseFlags()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := logging.New(cfg.LogLevel, "console")
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database error: %v", err)
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	raw, err := os.ReadFile(opts.filePath)
	if err != nil {
		log.Fatalf("read %s: %v", opts.filePath, err)
	}

	decisions, err := readDecisions(opts.decisionsPath)
	if err != nil {
		log.Fatalf("read decisions: %v", err)
	}

	repo := repository.New(pool)
	rec := importer.New(repo, logger)
	kind := importer.Kind(opts.kind)

	preview, err := rec.Preview(ctx, kind, string(raw))
	if err != nil {
		reportImportError(err)
	}
	printPreview(preview)
	if !preview.Ready() {
		os.Exit(1)
	}
	if !opts.apply {
		fmt.Println("dry run; pass -apply to write changes")
		return
	}

	meta := importer.UploadMeta{FileName: filepath.Base(opts.filePath)}
	if user := strings.TrimSpace(opts.userID); user != "" {
		meta.UserID = &user
	}

	result, err := rec.Apply(ctx, kind, string(raw), decisions, meta, func(done, total int) {
		fmt.Printf("applied %d/%d rows\n", done, total)
	})
	if err != nil {
		reportImportError(err)
	}

	fmt.Printf("import complete: success=%d failed=%d total=%d\n",
		result.Success, len(result.Errors), result.Total)
	for _, rowErr := range result.Errors {
		fmt.Printf("  row %d: %s\n", rowErr.Row, rowErr.Message)
	}
	if len(result.Errors) > 0 {
		os.Exit(1)
	}
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.filePath, "file", "", "path to the CSV file to import")
	flag.StringVar(
		&opts.kind,
		"kind",
		string(importer.KindItemMaster),
		"import kind: item_master or opening_stock",
	)
	flag.StringVar(
		&opts.decisionsPath,
		"decisions",
		"",
		"optional path to a JSON file mapping row number -> skip|update|error",
	)
	flag.StringVar(&opts.userID, "user", "", "optional user id recorded in the upload log")
	flag.BoolVar(&opts.apply, "apply", false, "write changes instead of previewing")
	flag.Parse()

	if opts.filePath == "" {
		log.Fatal("missing required -file flag")
	}
	if !importer.Kind(opts.kind).Valid() {
		log.Fatalf("invalid -kind: %q", opts.kind)
	}
	return opts
}

func readDecisions(path string) (importer.Decisions, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	byRow := map[string]string{}
	if err := json.Unmarshal(raw, &byRow); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	decisions := make(importer.Decisions, len(byRow))
	for rowRaw, actionRaw := range byRow {
		row, err := strconv.Atoi(rowRaw)
		if err != nil {
			return nil, fmt.Errorf("invalid row number %q", rowRaw)
		}
		action := importer.Action(strings.ToLower(strings.TrimSpace(actionRaw)))
		switch action {
		case importer.ActionSkip, importer.ActionUpdate, importer.ActionError:
			decisions[row] = action
		default:
			return nil, fmt.Errorf("invalid action %q for row %d", actionRaw, row)
		}
	}
	return decisions, nil
}

func printPreview(preview *importer.Preview) {
	fmt.Printf("parsed %d data rows\n", preview.TotalRows)
	for _, rowErr := range preview.ValidationErrors {
		fmt.Printf("  row %d: %s\n", rowErr.Row, rowErr.Message)
	}
	for _, conflict := range preview.Conflicts {
		fmt.Printf("  conflict row %d: item %s already exists (default: skip)\n",
			conflict.Row, conflict.ItemCode)
	}
}

func reportImportError(err error) {
	var parseErr *importer.ParseError
	var missingErr *importer.MissingColumnsError
	var blockedErr *importer.ValidationBlockedError
	switch {
	case errors.As(err, &parseErr):
		log.Fatalf("file rejected: %v", parseErr)
	case errors.As(err, &missingErr):
		log.Fatalf("file rejected: missing columns %s", strings.Join(missingErr.Columns, ", "))
	case errors.As(err, &blockedErr):
		for _, rowErr := range blockedErr.Rows {
			fmt.Printf("  row %d: %s\n", rowErr.Row, rowErr.Message)
		}
		log.Fatal("validation failed; fix the file and retry")
	default:
		log.Fatalf("import failed: %v", err)
	}
}
