package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"folio/internal/format"
	"folio/internal/media"
	"folio/internal/models"
)

var outputFormatter format.Formatter = format.JSONFormatter{}

func writeJSON(payload any) error {
	return outputFormatter.Write(os.Stdout, payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(os.Stdout, format, args...)
	return err
}

func writePublicationList(pubs []models.Publication) error {
	if len(pubs) == 0 {
		return writePlain("No publications.\n")
	}
	for _, pub := range pubs {
		if err := writePlain("%s\n", formatPublicationLine(pub)); err != nil {
			return err
		}
	}
	return nil
}

func writePublicationDetail(pub models.Publication) error {
	lines := []string{
		fmt.Sprintf("id: %s", pub.ID),
		fmt.Sprintf("title: %s", pub.Title),
		fmt.Sprintf("description: %s", pub.Description),
	}
	if pub.Category != "" {
		lines = append(lines, fmt.Sprintf("category: %s", pub.Category))
	}
	if pub.Author != "" {
		lines = append(lines, fmt.Sprintf("author: %s", pub.Author))
	}
	if pub.Date != "" {
		lines = append(lines, fmt.Sprintf("date: %s", pub.Date))
	}
	if pub.PrimaryImage != nil {
		lines = append(lines, fmt.Sprintf("primary_image: %s", pub.PrimaryImage.Locator))
	}
	if !pub.File.IsNone() {
		lines = append(lines, fmt.Sprintf("file: %s (%s) %s", pub.File.Name, pub.File.Kind, pub.File.Locator))
	}
	if len(pub.Media) > 0 {
		lines = append(lines, "media:")
		for _, m := range pub.Media {
			line := fmt.Sprintf("  - %s: %s", m.Kind, m.Locator)
			if m.Name != "" {
				line += fmt.Sprintf(" (%s)", m.Name)
			}
			lines = append(lines, line)
		}
	}
	lines = append(lines, "", pub.Content)

	return writePlain("%s\n", strings.Join(lines, "\n"))
}

func formatPublicationLine(pub models.Publication) string {
	category := pub.Category
	if category == "" {
		category = "-"
	}
	extras := ""
	if n := len(pub.Media); n > 0 {
		extras = fmt.Sprintf(" +%d media", n)
	}
	if !pub.File.IsNone() {
		extras += " +file"
	}
	return fmt.Sprintf("○ %s [%s] %s - %s%s", pub.ID, category, pub.Date, pub.Title, extras)
}

func writeMediaEntries(entries []media.Entry) error {
	for _, e := range entries {
		if err := writePlain("%s  %-5s  %8s  %s  %s\n", e.ID, e.Kind, formatBytes(e.SizeBytes), e.Name, e.Locator); err != nil {
			return err
		}
	}
	return nil
}

func writeBlob(b models.Blob) error {
	name := b.Name
	if name == "" {
		name = "-"
	}
	return writePlain("id:       %s\nowner:    %s\nname:     %s\nkind:     %s\ntype:     %s\nsize:     %s\nsha256:   %s\ncreated:  %s\n",
		b.ID, b.OwnerID, name, b.Kind, b.MimeType, formatBytes(b.SizeBytes), b.SHA256, formatAge(b.CreatedAt))
}

func writeReaction(r models.Reaction) error {
	line := fmt.Sprintf("%s: %d", r.PublicationID, r.Count)
	if r.ActiveType != "" {
		line += fmt.Sprintf(" (last: %s)", r.ActiveType)
	}
	if r.ActorReaction != "" {
		line += fmt.Sprintf(" [you: %s]", r.ActorReaction)
	}
	return writePlain("%s\n", line)
}

func writeComments(comments []models.Comment) error {
	if len(comments) == 0 {
		return writePlain("No comments.\n")
	}
	for _, c := range comments {
		if err := writePlain("%s, %s:\n  %s\n", c.Author, formatAge(c.CreatedAt), c.Content); err != nil {
			return err
		}
	}
	return nil
}

func writeSettings(v models.SchoolSettings) error {
	lines := []string{
		fmt.Sprintf("name: %s", v.Name),
		fmt.Sprintf("subtitle: %s", v.Subtitle),
		fmt.Sprintf("description: %s", v.Description),
		fmt.Sprintf("mission: %s", v.Mission),
		fmt.Sprintf("stats.graduates: %s", v.Stats.Graduates),
		fmt.Sprintf("stats.experience: %s", v.Stats.Experience),
		fmt.Sprintf("stats.teachers: %s", v.Stats.Teachers),
		fmt.Sprintf("stats.success_rate: %s", v.Stats.SuccessRate),
	}
	if len(v.Advantages) > 0 {
		lines = append(lines, "advantages:")
		for _, a := range v.Advantages {
			lines = append(lines, fmt.Sprintf("  - %s: %s", a.Title, a.Description))
		}
	}
	return writePlain("%s\n", strings.Join(lines, "\n"))
}

func formatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

func formatAge(t time.Time) string {
	if t.IsZero() {
		return "unknown time"
	}
	return humanize.Time(t)
}
