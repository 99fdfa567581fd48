package main

import (
	"context"
	"errors"
	"io/fs"

	"folio/internal/models"
)

func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}

	lines := []string{err.Error()}

	switch models.KindOf(err) {
	case models.KindValidation:
		lines = append(lines, "hint: check the command arguments; run with --help for usage.")
	case models.KindNotFound:
		lines = append(lines, "hint: run `folio list` to see existing publication ids.")
	case models.KindRateLimited:
		lines = append(lines, "hint: too many comments in a short time; wait a minute and retry.")
	case models.KindCorruption:
		lines = append(lines, "hint: persisted data is unreadable; `folio export` the records before repairing.")
	case models.KindStorage:
		lines = append(lines,
			"hint: verify FOLIO_DB and FOLIO_BLOB_DIR point to writable locations.",
			"hint: run `folio migrate --inspect` to check the database schema.",
		)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		lines = append(lines, "hint: the operation was interrupted before completing.")
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		lines = append(lines, "hint: check that "+pathErr.Path+" exists and is readable.")
	}

	return uniqueLines(lines)
}

func uniqueLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
