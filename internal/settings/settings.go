// Package settings persists the flat school presentation record.
package settings

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"folio/internal/models"
	"folio/internal/store"
)

const settingsKey = "school-settings"

// Defaults returns the built-in settings.
func Defaults() models.SchoolSettings {
	return models.SchoolSettings{
		Name:        "Collège Adventiste Bilingue",
		Subtitle:    "Maranatha de Yaoundé",
		Description: "Excellence académique • Valeurs chrétiennes • Formation intégrale",
		Mission: "Le Collège Adventiste Bilingue Maranatha de Yaoundé s'engage à offrir une éducation de qualité supérieure, " +
			"alliant excellence académique et valeurs chrétiennes adventistes. Nous formons des jeunes équilibrés, " +
			"prêts à servir leur communauté et à exceller dans leurs domaines d'études.",
		Stats: models.SchoolStats{
			Graduates:   "500+",
			Experience:  "25",
			Teachers:    "40",
			SuccessRate: "98%",
		},
		Advantages: []models.Advantage{
			{Title: "Enseignement bilingue", Description: "Formation en français et anglais pour une ouverture internationale"},
			{Title: "Encadrement personnalisé", Description: "Suivi individuel de chaque apprenant pour sa réussite"},
			{Title: "Valeurs adventistes", Description: "Éducation basée sur les principes chrétiens adventistes"},
		},
	}
}

// Store reads and writes the settings record.
type Store struct {
	kv     store.KVStore
	logger *slog.Logger
	mu     sync.Mutex
}

// New constructs a settings store.
func New(kv store.KVStore, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: kv, logger: logger.With("component", "settings")}
}

// Get returns the persisted settings merged over the defaults. Defaults are
// persisted on first use.
func (s *Store) Get(ctx context.Context) (models.SchoolSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) load(ctx context.Context) (models.SchoolSettings, error) {
	raw, ok, err := s.kv.GetValue(ctx, settingsKey)
	if err != nil {
		return models.SchoolSettings{}, models.StorageError("settings.get", err)
	}
	if ok {
		merged := Defaults()
		decodeErr := json.Unmarshal([]byte(raw), &merged)
		if decodeErr == nil {
			return merged, nil
		}
		s.logger.Warn("stored settings are unreadable, restoring defaults", "err", decodeErr)
	}
	defaults := Defaults()
	if err := s.save(ctx, defaults); err != nil {
		return models.SchoolSettings{}, err
	}
	return defaults, nil
}

func (s *Store) save(ctx context.Context, value models.SchoolSettings) error {
	data, err := json.Marshal(value)
	if err != nil {
		return models.StorageError("settings.save", err)
	}
	if err := s.kv.PutValue(ctx, settingsKey, string(data)); err != nil {
		return models.StorageError("settings.save", err)
	}
	return nil
}

// Update applies fn to the current settings and persists the result.
func (s *Store) Update(ctx context.Context, fn func(*models.SchoolSettings) error) (models.SchoolSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx)
	if err != nil {
		return current, err
	}
	if err := fn(&current); err != nil {
		return models.SchoolSettings{}, err
	}
	if err := s.save(ctx, current); err != nil {
		return models.SchoolSettings{}, err
	}
	return current, nil
}

// Reset restores the defaults.
func (s *Store) Reset(ctx context.Context) (models.SchoolSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defaults := Defaults()
	if err := s.save(ctx, defaults); err != nil {
		return models.SchoolSettings{}, err
	}
	return defaults, nil
}

var fieldSetters = map[string]func(*models.SchoolSettings, string){
	"name":               func(v *models.SchoolSettings, s string) { v.Name = s },
	"subtitle":           func(v *models.SchoolSettings, s string) { v.Subtitle = s },
	"description":        func(v *models.SchoolSettings, s string) { v.Description = s },
	"mission":            func(v *models.SchoolSettings, s string) { v.Mission = s },
	"stats.graduates":    func(v *models.SchoolSettings, s string) { v.Stats.Graduates = s },
	"stats.experience":   func(v *models.SchoolSettings, s string) { v.Stats.Experience = s },
	"stats.teachers":     func(v *models.SchoolSettings, s string) { v.Stats.Teachers = s },
	"stats.success_rate": func(v *models.SchoolSettings, s string) { v.Stats.SuccessRate = s },
}

// Keys lists the fields accepted by Set.
func Keys() []string {
	keys := make([]string, 0, len(fieldSetters))
	for k := range fieldSetters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set updates one scalar field by its dotted key.
func (s *Store) Set(ctx context.Context, key, value string) (models.SchoolSettings, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	setter, ok := fieldSetters[key]
	if !ok {
		return models.SchoolSettings{}, models.ValidationError("settings.set", "unknown settings key %q (allowed: %s)", key, strings.Join(Keys(), ", "))
	}
	value = strings.TrimSpace(value)
	return s.Update(ctx, func(v *models.SchoolSettings) error {
		if value == "" && (key == "name" || key == "mission") {
			return models.ValidationError("settings.set", "%s cannot be empty", key)
		}
		setter(v, value)
		return nil
	})
}

// SetAdvantages replaces the advantage list.
func (s *Store) SetAdvantages(ctx context.Context, advantages []models.Advantage) (models.SchoolSettings, error) {
	for i, a := range advantages {
		if strings.TrimSpace(a.Title) == "" {
			return models.SchoolSettings{}, models.ValidationError("settings.advantages", "advantage %d needs a title", i+1)
		}
	}
	return s.Update(ctx, func(v *models.SchoolSettings) error {
		v.Advantages = append([]models.Advantage(nil), advantages...)
		return nil
	})
}
