package publication

import (
	_ "embed"
	"fmt"
	"io"
	"sync"

	"gopkg.in/yaml.v3"

	"folio/internal/models"
)

//go:embed seed.yaml
var seedYAML []byte

var (
	seedOnce    sync.Once
	seedRecords []models.Publication
	seedErr     error
)

// SeedSet returns a copy of the built-in sample publications.
func SeedSet() ([]models.Publication, error) {
	seedOnce.Do(func() {
		var records []models.Publication
		if err := yaml.Unmarshal(seedYAML, &records); err != nil {
			seedErr = fmt.Errorf("decode seed set: %w", err)
			return
		}
		for i := range records {
			records[i].File = records[i].File.Normalize()
		}
		seedRecords = records
	})
	if seedErr != nil {
		return nil, seedErr
	}
	return cloneAll(seedRecords), nil
}

func (s *Store) seed() ([]models.Publication, error) {
	if s.opts.Seed != nil {
		return cloneAll(s.opts.Seed), nil
	}
	return SeedSet()
}

func encodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
