package publication

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"folio/internal/models"
)

// rawRecord is one persisted record in whatever shape its schema version used.
type rawRecord map[string]any

// recordMigration rewrites one record from version N to N+1.
type recordMigration func(rawRecord) (rawRecord, error)

// recordMigrations is keyed by the source version of each transition.
var recordMigrations = map[int]recordMigration{
	1: migrateFlatToRefs,
	2: migrateRefsToVariant,
}

// parseSchemaVersion reads the persisted version token. Tokens from the first
// releases ("2.0") compare by their major number.
func parseSchemaVersion(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if major, _, ok := strings.Cut(raw, "."); ok {
		raw = major
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid schema version %q", raw)
	}
	return v, nil
}

// migrateRecords upgrades raw records from version from to CurrentSchemaVersion.
func migrateRecords(raw []rawRecord, from int) ([]models.Publication, error) {
	if from > CurrentSchemaVersion {
		return nil, fmt.Errorf("schema version %d is newer than supported version %d", from, CurrentSchemaVersion)
	}
	for v := from; v < CurrentSchemaVersion; v++ {
		step, ok := recordMigrations[v]
		if !ok {
			return nil, fmt.Errorf("no migration from schema version %d", v)
		}
		for i := range raw {
			next, err := step(raw[i])
			if err != nil {
				return nil, fmt.Errorf("migrate record %d from v%d: %w", i, v, err)
			}
			raw[i] = next
		}
	}
	return decodeCurrent(raw)
}

func decodeCurrent(raw []rawRecord) ([]models.Publication, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var out []models.Publication
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].File = out[i].File.Normalize()
	}
	return out, nil
}

// migrateFlatToRefs turns the flat v1 shape (image, fileUrl, fileName, media[].url,
// media[].mediaId) into v2 references.
func migrateFlatToRefs(rec rawRecord) (rawRecord, error) {
	out := rawRecord{}
	for k, v := range rec {
		switch k {
		case "image", "fileUrl", "fileName", "file", "media":
		default:
			out[k] = v
		}
	}
	if id, ok := out["id"]; ok {
		out["id"] = fmt.Sprint(id)
	}

	if image := stringField(rec, "image"); image != "" {
		out["primary_image"] = map[string]any{"locator": image}
	}
	if url := stringField(rec, "fileUrl"); url != "" {
		out["file_locator"] = url
		out["file_name"] = stringField(rec, "fileName")
	}

	items, err := listField(rec, "media")
	if err != nil {
		return nil, err
	}
	if items != nil {
		media := make([]any, 0, len(items))
		for _, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("media entry is %T, want object", item)
			}
			entry := map[string]any{
				"type":    stringField(m, "type"),
				"locator": stringField(m, "url"),
			}
			copyString(entry, "name", m, "name")
			copyString(entry, "alt", m, "alt")
			copyString(entry, "blob_id", m, "mediaId")
			media = append(media, entry)
		}
		out["media"] = media
	}
	return out, nil
}

// migrateRefsToVariant renames media type to kind and folds the file_* fields into
// the tagged attachment slot.
func migrateRefsToVariant(rec rawRecord) (rawRecord, error) {
	out := rawRecord{}
	for k, v := range rec {
		switch k {
		case "file_locator", "file_name", "file_mime_type", "file_blob_id", "media":
		default:
			out[k] = v
		}
	}

	if locator := stringField(rec, "file_locator"); locator != "" {
		file := map[string]any{"kind": string(models.AttachmentFile), "locator": locator}
		copyString(file, "name", rec, "file_name")
		copyString(file, "mime_type", rec, "file_mime_type")
		copyString(file, "blob_id", rec, "file_blob_id")
		out["file"] = file
	} else {
		out["file"] = map[string]any{"kind": string(models.AttachmentNone)}
	}

	items, err := listField(rec, "media")
	if err != nil {
		return nil, err
	}
	if items != nil {
		media := make([]any, 0, len(items))
		for _, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("media entry is %T, want object", item)
			}
			entry := map[string]any{}
			for k, v := range m {
				if k != "type" {
					entry[k] = v
				}
			}
			kind, err := models.ParseMediaKind(stringField(m, "type"))
			if err != nil || !kind.IsVisual() {
				kind = models.MediaKindImage
			}
			entry["kind"] = string(kind)
			media = append(media, entry)
		}
		out["media"] = media
	}
	return out, nil
}

func stringField(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func copyString(dst map[string]any, dstKey string, src map[string]any, srcKey string) {
	if v := stringField(src, srcKey); v != "" {
		dst[dstKey] = v
	}
}

func listField(m map[string]any, key string) ([]any, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%s is %T, want array", key, v)
	}
	return items, nil
}
