package domain

import (
	"context"
	"time"
)

// CycleTypeAny is the search filter value that matches every cycle type.
const CycleTypeAny = "both"

// Cycle is a single listing: one cycle offered by one owner.
type Cycle struct {
	ID        int64
	OwnerID   int64
	Model     string
	CycleType string
	Landmark  string
	ImageURL  string // public URL served to clients
	ImageKey  string // object-store key behind ImageURL
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time

	// Owner is populated by enriched reads (Search, FindDetailed) according
	// to the requested projection. Plain reads leave it nil.
	Owner *OwnerProfile
}

// OwnerProfile is the subset of the owner's user record exposed alongside
// a cycle. Which fields are filled depends on the OwnerProjection used.
type OwnerProfile struct {
	ID          int64
	FullName    string
	Avatar      string
	PhoneNumber string
	Email       string
	UpiID       string
}

// OwnerProjection selects how much of the owner's profile an enriched read
// returns. Search results only ever carry the summary; the detail view
// carries the full contact subset.
type OwnerProjection int

const (
	// OwnerSummary projects id and full name only.
	OwnerSummary OwnerProjection = iota
	// OwnerContact projects the full contact and payment subset.
	OwnerContact
)

// CycleFilter describes a cycle search. Landmark is an exact match.
// A CycleType of CycleTypeAny matches every type.
type CycleFilter struct {
	Landmark   string
	CycleType  string
	ActiveOnly bool
}

// CycleRepository defines persistence operations for cycles.
type CycleRepository interface {
	Create(ctx context.Context, cycle *Cycle) error
	GetByID(ctx context.Context, id int64) (*Cycle, error)
	// GetByOwner returns the owner's cycle regardless of its active flag.
	GetByOwner(ctx context.Context, ownerID int64) (*Cycle, error)
	// Search returns all cycles matching the filter, each enriched with an
	// owner profile per the projection, in id order.
	Search(ctx context.Context, filter CycleFilter, projection OwnerProjection) ([]Cycle, error)
	// FindDetailed returns a zero- or one-element slice holding the cycle
	// with the given id enriched per the projection. It does not filter on
	// the active flag.
	FindDetailed(ctx context.Context, id int64, projection OwnerProjection) ([]Cycle, error)
}
