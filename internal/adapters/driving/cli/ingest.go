package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/doctag/internal/connectors/filesystem"
	"github.com/custodia-labs/doctag/internal/core/domain"
	"github.com/custodia-labs/doctag/internal/core/ports/driving"
	"github.com/custodia-labs/doctag/internal/logger"
)

var (
	ingestDetails   bool
	ingestSemantics bool
	ingestWatch     bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path|dir|url]...",
	Short: "Classify and store documents",
	Long: `Extracts, classifies and stores documents so they can be asked about later.

Arguments may be files, directories or http(s) URLs. Directories are walked
recursively; hidden files and unsupported formats are skipped. Ingesting a
source again replaces its stored record.

With --watch a single directory argument is ingested and then watched: new
and changed files are ingested, deleted files are forgotten.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestDetails, "details", false, "extract dates, amounts and names")
	ingestCmd.Flags().BoolVar(&ingestSemantics, "semantics", false, "analyse topics, entities, sentiment and relationships")
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "keep watching a directory for changes")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return unavailable("ingest service", classifierErr)
	}
	if ingestWatch && (len(args) != 1 || !isDir(args[0])) {
		return errors.New("--watch requires exactly one directory")
	}

	ctx := cmd.Context()
	opts := driving.IngestOptions{Details: ingestDetails, Semantics: ingestSemantics}

	var errs []error
	ingested := 0
	for _, arg := range args {
		uris, err := expand(ctx, arg)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, uri := range uris {
			if err := ingestOne(cmd, uri, opts); err != nil {
				errs = append(errs, err)
				continue
			}
			ingested++
		}
	}
	cmd.Printf("Ingested %d document(s)\n", ingested)

	if ingestWatch {
		return watch(cmd, filesystem.ResolvePath(args[0]), opts)
	}
	return errors.Join(errs...)
}

// expand turns a directory argument into the supported files below it.
func expand(ctx context.Context, arg string) ([]string, error) {
	if !isDir(arg) {
		return []string{arg}, nil
	}
	files, err := filesystem.New(filesystem.ResolvePath(arg)).Walk(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", arg, err)
	}
	logger.Debug("%s: %d supported file(s)", arg, len(files))
	return files, nil
}

func ingestOne(cmd *cobra.Command, uri string, opts driving.IngestOptions) error {
	record, err := ingestService.IngestURI(cmd.Context(), uri, opts)
	if err != nil {
		cmd.PrintErrf("%s %s: %v\n", styled(cmd, errorStyle, "failed"), uri, err)
		return fmt.Errorf("%s: %w", uri, err)
	}
	printRecordLine(cmd, record)
	return nil
}

// watch ingests changes under dir until the command context is cancelled.
func watch(cmd *cobra.Command, dir string, opts driving.IngestOptions) error {
	ctx := cmd.Context()
	conn := filesystem.New(dir)
	defer conn.Close()

	changes, err := conn.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	cmd.Printf("Watching %s (Ctrl+C to stop)\n", dir)

	for change := range changes {
		switch change.Type {
		case filesystem.ChangeCreated, filesystem.ChangeUpdated:
			_ = ingestOne(cmd, change.Path, opts)
		case filesystem.ChangeDeleted:
			n, err := ingestService.Forget(ctx, change.Path)
			if err != nil {
				cmd.PrintErrf("%s %s: %v\n", styled(cmd, errorStyle, "failed"), change.Path, err)
				continue
			}
			if n > 0 {
				cmd.Printf("removed %s\n", change.Path)
			}
		}
	}
	return nil
}

func printRecordLine(cmd *cobra.Command, record *domain.DocumentRecord) {
	cmd.Printf("%s  %s  %s\n",
		styled(cmd, mutedStyle, record.ID),
		styled(cmd, categoryStyle, record.Category),
		record.SourceURI)
}

func isDir(arg string) bool {
	if !filesystem.IsLocal(arg) {
		return false
	}
	info, err := os.Stat(filesystem.ResolvePath(arg))
	return err == nil && info.IsDir()
}
