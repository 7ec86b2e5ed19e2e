package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cycleconnect/server/internal/domain"
	"github.com/google/uuid"
)

const maxImageSize = 10 * 1024 * 1024 // 10MB

// CycleService orchestrates cycle registration, search, and detail lookup.
type CycleService struct {
	cycles domain.CycleRepository
	media  domain.MediaStore
}

// NewCycleService creates a new CycleService.
func NewCycleService(cycles domain.CycleRepository, media domain.MediaStore) *CycleService {
	return &CycleService{cycles: cycles, media: media}
}

// RegisterCycleInput carries the fields of a cycle registration request.
type RegisterCycleInput struct {
	Model       string
	CycleType   string
	Landmark    string
	Filename    string
	ContentType string
	Data        []byte
}

// Register creates the caller's cycle listing. The preconditions run in a
// fixed order, each failing independently: no existing cycle for the owner,
// model and cycleType present, an image attached, and a successful upload to
// the media store. The created record is read back before being returned so
// a silent write failure surfaces as an error.
func (s *CycleService) Register(ctx context.Context, ownerID int64, in RegisterCycleInput) (*domain.Cycle, error) {
	_, err := s.cycles.GetByOwner(ctx, ownerID)
	if err == nil {
		return nil, domain.ErrCycleExists
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check existing cycle: %w", err)
	}

	model := strings.TrimSpace(in.Model)
	cycleType := strings.TrimSpace(in.CycleType)
	if model == "" || cycleType == "" {
		return nil, fmt.Errorf("%w: model and cycleType are required", domain.ErrInvalidInput)
	}

	if len(in.Data) == 0 {
		return nil, fmt.Errorf("%w: cycle image is required", domain.ErrInvalidInput)
	}
	if err := validateImage(in.ContentType, in.Data); err != nil {
		return nil, err
	}

	key := storageKey("cycles")
	imageURL, err := s.media.Upload(ctx, key, in.ContentType, in.Data)
	if err != nil {
		slog.Error("upload cycle image", "key", key, "error", err)
		return nil, fmt.Errorf("%w: could not upload cycle image", domain.ErrInvalidInput)
	}

	cycle := &domain.Cycle{
		OwnerID:   ownerID,
		Model:     model,
		CycleType: cycleType,
		Landmark:  strings.TrimSpace(in.Landmark),
		ImageURL:  imageURL,
		ImageKey:  key,
		IsActive:  true,
	}

	if err := s.cycles.Create(ctx, cycle); err != nil {
		// The uploaded object has no cycle row pointing at it now. There is
		// no compensation step; flag the orphan so it can be reaped.
		slog.Warn("cycle insert failed after image upload, object orphaned",
			"key", key, "owner", ownerID, "error", err)
		if errors.Is(err, domain.ErrCycleExists) {
			return nil, err
		}
		return nil, fmt.Errorf("create cycle: %w", err)
	}

	// A read-back miss means the write silently failed; that is an
	// internal fault, not a client-visible not-found.
	created, err := s.cycles.GetByID(ctx, cycle.ID)
	if err != nil {
		return nil, fmt.Errorf("read back cycle %d: %v", cycle.ID, err)
	}

	return created, nil
}

// Search returns all active cycles at the given landmark, each enriched with
// the owner's id and full name. A cycleType of "both" matches every type.
// Blank filters are rejected.
func (s *CycleService) Search(ctx context.Context, landmark, cycleType string) ([]domain.Cycle, error) {
	landmark = strings.TrimSpace(landmark)
	cycleType = strings.TrimSpace(cycleType)
	if landmark == "" || cycleType == "" {
		return nil, fmt.Errorf("%w: landmark and cycleType are required", domain.ErrInvalidInput)
	}

	filter := domain.CycleFilter{
		Landmark:   landmark,
		CycleType:  cycleType,
		ActiveOnly: true,
	}
	return s.cycles.Search(ctx, filter, domain.OwnerSummary)
}

// Detail returns the cycle with the given id enriched with the owner's full
// contact subset. The result is a zero- or one-element slice; an empty slice
// means no such cycle and is not an error. The active flag is not checked.
func (s *CycleService) Detail(ctx context.Context, cycleID int64) ([]domain.Cycle, error) {
	return s.cycles.FindDetailed(ctx, cycleID, domain.OwnerContact)
}

func validateImage(contentType string, data []byte) error {
	if contentType != "image/jpeg" && contentType != "image/png" {
		return fmt.Errorf("%w: only JPEG and PNG images are accepted", domain.ErrInvalidInput)
	}
	if len(data) > maxImageSize {
		return fmt.Errorf("%w: image exceeds 10MB limit", domain.ErrInvalidInput)
	}
	return nil
}

// storageKey builds a date-partitioned object key under the given prefix.
func storageKey(prefix string) string {
	d := time.Now().UTC()
	return fmt.Sprintf("%s/%d/%02d/%02d/%s", prefix, d.Year(), d.Month(), d.Day(), uuid.New())
}
