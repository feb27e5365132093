// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// export.go - Transcript export command handler.
//
// Command: export
// Short:   Write the saved conversation to a Markdown or JSON file
//
// Examples:
//   chatptq export
//   chatptq export --format json -o ~/notes
//   chatptq export --stdout --no-metadata | less
//
// Flags:
//   --format FORMAT     markdown (default) or json
//   -o, --output DIR    Directory to write to
//   --stdout            Print instead of writing a file
//   --title TEXT        Title of the export
//   --all               Include entries that were not sent
//   --no-metadata       Leave out the metadata header
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/jeranaias/chatptq/internal/export"
	"github.com/jeranaias/chatptq/internal/ui/styles"
)

// HandleExport handles the "export" command.
func HandleExport(_ context.Context, env *Env, args Args) error {
	p := NewArgParser(args.Raw, "stdout", "all", "no-metadata")

	format, err := export.ParseFormat(p.Flag("format"))
	if err != nil {
		return NewValidationErrorWithExample("--format", p.Flag("format"), "must be markdown or json", "--format json")
	}
	exporter, err := export.NewExporter(format, &export.Options{
		IncludeMetadata: !p.BoolFlag("no-metadata"),
		IncludeFailed:   p.BoolFlag("all"),
	})
	if err != nil {
		return err
	}

	cfg := env.Store.Current()
	transcript := export.Transcript{
		Title:     p.FlagOrDefault("title", cfg.GPTName),
		Assistant: cfg.GPTName,
		Model:     cfg.Model,
		Entries:   env.OpenSession().Conversations(),
	}

	if p.BoolFlag("stdout") {
		content, err := exporter.Export(transcript)
		if errors.Is(err, export.ErrEmptyTranscript) {
			return NewCommandError("export", "render", "nothing to export", err)
		}
		if err != nil {
			return err
		}
		_, err = env.Out.Write(content)
		return err
	}

	dir := p.FlagOrDefault("output", p.FlagOrDefault("o", "."))
	path, err := export.ExportToFile(transcript, exporter, dir)
	if errors.Is(err, export.ErrEmptyTranscript) {
		return NewCommandError("export", "render", "nothing to export", err)
	}
	if err != nil {
		return NewCommandError("export", "write", "could not write "+dir, err)
	}

	if args.JSON {
		return NewJSONResponse("export", map[string]string{"path": path, "format": string(format)}).Print(env.Out)
	}
	if args.Quiet {
		fmt.Fprintln(env.Out, path)
		return nil
	}
	fmt.Fprintf(env.Out, "%s Exported to %s\n", SuccessStyle.Render(styles.StatusIndicators.Success), path)
	return nil
}
