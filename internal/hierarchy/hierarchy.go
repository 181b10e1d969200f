// Package hierarchy resolves delegated administrative authority over
// geographic entities. A district or block designates exactly one officer;
// routes scoped to an entity compare that binding against the requesting
// principal instead of relying on the global role alone.
package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a district or block id does not resolve.
var ErrNotFound = errors.New("hierarchy: not found")

// OfficerBinding designates the single user administering an entity.
type OfficerBinding struct {
	UserID     string    `json:"user_id"`
	Name       string    `json:"name,omitempty"`
	AssignedAt time.Time `json:"assigned_at,omitempty"`
}

// District is a top-level administrative unit.
type District struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	State     string         `json:"state"`
	Officer   OfficerBinding `json:"district_officer"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Block is a subdivision of a district. DistrictID always references an
// existing district; the store enforces the link.
type Block struct {
	ID         string         `json:"id"`
	DistrictID string         `json:"district_id"`
	Name       string         `json:"name"`
	Officer    OfficerBinding `json:"block_officer"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Store is the persistence surface for hierarchy entities.
type Store interface {
	FindDistrict(ctx context.Context, id string) (*District, error)
	FindBlock(ctx context.Context, id string) (*Block, error)
	UpdateDistrict(ctx context.Context, d *District) error
	UpdateBlock(ctx context.Context, b *Block) error
	SetBlockOfficer(ctx context.Context, blockID string, officer OfficerBinding) error
}

// EntityKind names the entity a route is scoped to.
type EntityKind string

const (
	EntityDistrict EntityKind = "district"
	EntityBlock    EntityKind = "block"
)

// Descriptor declares which officer binding authorizes a route. With
// ParentAuthority set on a block-scoped route, authority is resolved two
// hops away: block -> parent district -> district officer.
type Descriptor struct {
	Entity          EntityKind
	ParentAuthority bool
}

// Resolution is the outcome of an officer lookup. The loaded entities are
// carried along so the handler does not query them again.
type Resolution struct {
	District      *District
	Block         *Block
	OfficerUserID string
}

// Service performs descriptor-driven officer resolution.
type Service struct {
	store Store
}

// NewService constructs the resolution service.
func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, errors.New("hierarchy: store is required")
	}
	return &Service{store: store}, nil
}

// Store exposes the underlying store for handlers performing writes.
func (s *Service) Store() Store { return s.store }

// ResolveOfficer loads the entity named by the descriptor and returns the
// user id bound as its authorizing officer.
func (s *Service) ResolveOfficer(ctx context.Context, desc Descriptor, entityID string) (Resolution, error) {
	switch desc.Entity {
	case EntityDistrict:
		district, err := s.store.FindDistrict(ctx, entityID)
		if err != nil {
			return Resolution{}, err
		}
		return Resolution{District: district, OfficerUserID: district.Officer.UserID}, nil

	case EntityBlock:
		block, err := s.store.FindBlock(ctx, entityID)
		if err != nil {
			return Resolution{}, err
		}
		if !desc.ParentAuthority {
			return Resolution{Block: block, OfficerUserID: block.Officer.UserID}, nil
		}
		district, err := s.store.FindDistrict(ctx, block.DistrictID)
		if err != nil {
			return Resolution{}, err
		}
		return Resolution{
			District:      district,
			Block:         block,
			OfficerUserID: district.Officer.UserID,
		}, nil

	default:
		return Resolution{}, fmt.Errorf("hierarchy: unknown entity kind %q", desc.Entity)
	}
}
