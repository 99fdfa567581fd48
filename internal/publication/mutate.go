package publication

import (
	"context"
	"strings"

	"github.com/maruel/ksid"

	"folio/internal/models"
)

// Create validates a draft, stores its payloads and prepends the new record.
func (s *Store) Create(ctx context.Context, draft models.Draft) (models.Publication, error) {
	const op = "publication.create"
	var zero models.Publication

	title := strings.TrimSpace(draft.Title)
	description := strings.TrimSpace(draft.Description)
	content := strings.TrimSpace(draft.Content)
	if err := requireText(op, map[string]string{"title": title, "description": description, "content": content}); err != nil {
		return zero, err
	}
	if err := s.validateFile(op, draft.File); err != nil {
		return zero, err
	}
	if err := s.validateMedia(op, draft.Media); err != nil {
		return zero, err
	}
	if err := s.waitReady(ctx); err != nil {
		return zero, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pub := models.Publication{
		ID:          s.newID(),
		Title:       title,
		Description: description,
		Content:     content,
		Category:    strings.TrimSpace(draft.Category),
		Author:      strings.TrimSpace(draft.Author),
		Date:        strings.TrimSpace(draft.Date),
		File:        models.NoAttachment(),
	}
	if locator := strings.TrimSpace(draft.PrimaryImage); locator != "" {
		pub.PrimaryImage = &models.ImageRef{Locator: locator}
	}

	var written []string
	rollback := func() {
		s.deleteBlobs(ctx, written)
	}

	if draft.File != nil {
		file, err := s.storeAttachment(ctx, pub.ID, draft.File)
		if err != nil {
			return zero, err
		}
		written = append(written, file.BlobID)
		pub.File = file
		if pub.PrimaryImage == nil && models.KindFromMIME(file.MimeType) == models.MediaKindImage {
			pub.PrimaryImage = &models.ImageRef{Locator: file.Locator, BlobID: file.BlobID}
		}
	}

	media, stored, err := s.storeMedia(ctx, pub.ID, pub.Title, draft.Media)
	written = append(written, stored...)
	if err != nil {
		rollback()
		return zero, err
	}
	pub.Media = media

	next := append([]models.Publication{pub}, s.records...)
	if err := s.persist(ctx, next); err != nil {
		rollback()
		return zero, err
	}
	s.records = next

	s.logger.Info("publication created", "id", pub.ID, "media", len(pub.Media), "attachment", !pub.File.IsNone())
	return pub.Clone(), nil
}

// Update merges changes into an existing record. A new attachment replaces the old
// one; a new media list replaces every owned media blob.
func (s *Store) Update(ctx context.Context, id string, changes models.Changes) (models.Publication, error) {
	const op = "publication.update"
	var zero models.Publication

	if err := s.waitReady(ctx); err != nil {
		return zero, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return zero, models.NotFoundError(op, "publication", id)
	}

	text := map[string]string{}
	for name, v := range map[string]*string{"title": changes.Title, "description": changes.Description, "content": changes.Content} {
		if v != nil {
			text[name] = strings.TrimSpace(*v)
		}
	}
	if err := requireText(op, text); err != nil {
		return zero, err
	}
	if err := s.validateFile(op, changes.File); err != nil {
		return zero, err
	}
	if changes.ReplacesMedia() {
		if err := s.validateMedia(op, changes.Media); err != nil {
			return zero, err
		}
	}

	current := s.records[i]
	next := current.Clone()
	applyText(&next.Title, changes.Title)
	applyText(&next.Description, changes.Description)
	applyText(&next.Content, changes.Content)
	applyText(&next.Category, changes.Category)
	applyText(&next.Author, changes.Author)
	applyText(&next.Date, changes.Date)
	if changes.PrimaryImage != nil {
		if locator := strings.TrimSpace(*changes.PrimaryImage); locator != "" {
			next.PrimaryImage = &models.ImageRef{Locator: locator}
		} else {
			next.PrimaryImage = nil
		}
	}

	var written, obsolete []string
	var released []string

	if changes.File != nil {
		file, err := s.storeAttachment(ctx, id, changes.File)
		if err != nil {
			return zero, err
		}
		written = append(written, file.BlobID)
		old := current.File
		next.File = file
		if !old.IsNone() {
			obsolete = append(obsolete, old.BlobID)
			released = append(released, old.Locator)
		}
		if next.PrimaryImage != nil && old.BlobID != "" && next.PrimaryImage.BlobID == old.BlobID {
			next.PrimaryImage = nil
		}
		if next.PrimaryImage == nil && models.KindFromMIME(file.MimeType) == models.MediaKindImage {
			next.PrimaryImage = &models.ImageRef{Locator: file.Locator, BlobID: file.BlobID}
		}
	}

	if changes.ReplacesMedia() {
		media, stored, err := s.storeMedia(ctx, id, next.Title, changes.Media)
		written = append(written, stored...)
		if err != nil {
			s.deleteBlobs(ctx, written)
			return zero, err
		}
		obsolete = append(obsolete, current.OwnedMediaBlobIDs()...)
		for _, m := range current.Media {
			released = append(released, m.Locator)
		}
		next.Media = media
	}

	records := cloneAll(s.records)
	records[i] = next
	if err := s.persist(ctx, records); err != nil {
		s.deleteBlobs(ctx, written)
		return zero, err
	}
	s.records = records

	s.deleteBlobs(ctx, obsolete)
	for _, locator := range released {
		s.blobs.Release(locator)
	}

	s.logger.Info("publication updated", "id", id, "replaced_blobs", len(obsolete))
	return next.Clone(), nil
}

// Delete removes a record together with every blob it owns.
func (s *Store) Delete(ctx context.Context, id string) error {
	const op = "publication.delete"

	if err := s.waitReady(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.NotFoundError(op, "publication", id)
	}
	pub := s.records[i]

	records := make([]models.Publication, 0, len(s.records)-1)
	records = append(records, s.records[:i]...)
	records = append(records, s.records[i+1:]...)
	if err := s.persist(ctx, records); err != nil {
		return err
	}
	s.records = records

	owned := pub.OwnedMediaBlobIDs()
	if !pub.File.IsNone() {
		owned = append(owned, pub.File.BlobID)
	}
	if pub.PrimaryImage != nil {
		owned = append(owned, pub.PrimaryImage.BlobID)
	}
	s.deleteBlobs(ctx, owned)
	s.releaseLocators(pub)

	s.logger.Info("publication deleted", "id", id, "blobs", len(owned))
	return nil
}

func (s *Store) newID() string {
	for {
		id := ksid.NewID().String()
		if s.indexOf(id) < 0 {
			return id
		}
	}
}

func (s *Store) storeAttachment(ctx context.Context, pubID string, payload models.FilePayload) (models.FileAttachment, error) {
	stored, err := s.blobs.Store(ctx, payload, models.AttachmentOwnerTag(pubID))
	if err != nil {
		return models.FileAttachment{}, err
	}
	name := strings.TrimSpace(payload.Name())
	if name == "" {
		name = stored.Name
	}
	return models.FileAttachment{
		Kind:     models.AttachmentFile,
		Locator:  stored.Locator,
		Name:     name,
		MimeType: stored.MimeType,
		BlobID:   stored.ID,
	}, nil
}

// storeMedia turns inputs into refs, storing payload-bearing items under pubID. It
// returns the ids written so far even on failure.
func (s *Store) storeMedia(ctx context.Context, pubID, title string, inputs []models.MediaInput) ([]models.MediaRef, []string, error) {
	if len(inputs) == 0 {
		return nil, nil, nil
	}
	var written []string
	refs := make([]models.MediaRef, 0, len(inputs))
	for i, in := range inputs {
		alt := strings.TrimSpace(in.Alt)
		if alt == "" {
			alt = title
		}
		if in.Payload == nil {
			kind := in.Kind
			if kind == "" {
				kind = models.MediaKindImage
			}
			refs = append(refs, models.MediaRef{
				Kind:    kind,
				Locator: strings.TrimSpace(in.Locator),
				Name:    strings.TrimSpace(in.Name),
				Alt:     alt,
				Meta:    in.Meta,
			})
			continue
		}

		stored, err := s.blobs.Store(ctx, in.Payload, pubID)
		if err != nil {
			return nil, written, err
		}
		written = append(written, stored.ID)

		kind := stored.Kind
		if !kind.IsVisual() {
			kind = in.Kind
		}
		if !kind.IsVisual() {
			return nil, written, models.ValidationError("publication.media", "media item %d is neither an image nor a video", i+1)
		}
		name := strings.TrimSpace(in.Name)
		if name == "" {
			name = stored.Name
		}
		refs = append(refs, models.MediaRef{
			Kind:    kind,
			Locator: stored.Locator,
			Name:    name,
			Alt:     alt,
			BlobID:  stored.ID,
			Meta:    in.Meta,
		})
	}
	return refs, written, nil
}

func (s *Store) validateFile(op string, payload models.FilePayload) error {
	if payload == nil {
		return nil
	}
	if payload.Size() > s.opts.MaxFileBytes {
		return models.ValidationError(op, "file %s exceeds the %d byte limit", payload.Name(), s.opts.MaxFileBytes)
	}
	return nil
}

func (s *Store) validateMedia(op string, inputs []models.MediaInput) error {
	if len(inputs) > s.opts.MaxMediaItems {
		return models.ValidationError(op, "at most %d media items are allowed, got %d", s.opts.MaxMediaItems, len(inputs))
	}
	for i, in := range inputs {
		kind := in.Kind
		if in.Payload == nil {
			if strings.TrimSpace(in.Locator) == "" {
				return models.ValidationError(op, "media item %d needs a payload or a locator", i+1)
			}
			if kind != "" && !kind.IsVisual() {
				return models.ValidationError(op, "media item %d is neither an image nor a video", i+1)
			}
			continue
		}
		if in.Payload.Size() > s.opts.MaxMediaBytes {
			return models.ValidationError(op, "media item %d exceeds the %d byte limit", i+1, s.opts.MaxMediaBytes)
		}
		if kind == "" {
			kind = models.KindFromMIME(in.Payload.MimeType())
			if strings.TrimSpace(in.Payload.MimeType()) == "" {
				continue
			}
		}
		if !kind.IsVisual() {
			return models.ValidationError(op, "media item %d is neither an image nor a video", i+1)
		}
	}
	return nil
}

func requireText(op string, fields map[string]string) error {
	for _, name := range []string{"title", "description", "content"} {
		if v, ok := fields[name]; ok && v == "" {
			return models.ValidationError(op, "%s is required", name)
		}
	}
	return nil
}

func applyText(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}
