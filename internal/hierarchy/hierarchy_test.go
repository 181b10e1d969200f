package hierarchy

import (
	"context"
	"errors"
	"testing"
)

type fakeStore struct {
	districts map[string]*District
	blocks    map[string]*Block
}

func (f *fakeStore) FindDistrict(ctx context.Context, id string) (*District, error) {
	d, ok := f.districts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return d, nil
}

func (f *fakeStore) FindBlock(ctx context.Context, id string) (*Block, error) {
	b, ok := f.blocks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

func (f *fakeStore) UpdateDistrict(ctx context.Context, d *District) error { return nil }
func (f *fakeStore) UpdateBlock(ctx context.Context, b *Block) error       { return nil }
func (f *fakeStore) SetBlockOfficer(ctx context.Context, blockID string, officer OfficerBinding) error {
	return nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	store := &fakeStore{
		districts: map[string]*District{
			"d1": {ID: "d1", Name: "Kamrup", Officer: OfficerBinding{UserID: "do1"}},
		},
		blocks: map[string]*Block{
			"b1": {ID: "b1", DistrictID: "d1", Name: "Rani", Officer: OfficerBinding{UserID: "bo1"}},
			"b2": {ID: "b2", DistrictID: "missing", Name: "Orphan", Officer: OfficerBinding{UserID: "bo2"}},
		},
	}
	svc, err := NewService(store)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestResolveDistrictOfficer(t *testing.T) {
	svc := newTestService(t)

	res, err := svc.ResolveOfficer(context.Background(), Descriptor{Entity: EntityDistrict}, "d1")
	if err != nil {
		t.Fatalf("ResolveOfficer: %v", err)
	}
	if res.OfficerUserID != "do1" {
		t.Fatalf("officer = %q, want do1", res.OfficerUserID)
	}
	if res.District == nil || res.District.ID != "d1" {
		t.Fatalf("expected district attached to resolution")
	}
}

func TestResolveBlockOfficer(t *testing.T) {
	svc := newTestService(t)

	res, err := svc.ResolveOfficer(context.Background(), Descriptor{Entity: EntityBlock}, "b1")
	if err != nil {
		t.Fatalf("ResolveOfficer: %v", err)
	}
	if res.OfficerUserID != "bo1" {
		t.Fatalf("officer = %q, want bo1", res.OfficerUserID)
	}
	if res.Block == nil || res.Block.ID != "b1" {
		t.Fatalf("expected block attached to resolution")
	}
}

func TestResolveBlockParentAuthority(t *testing.T) {
	svc := newTestService(t)

	res, err := svc.ResolveOfficer(context.Background(), Descriptor{Entity: EntityBlock, ParentAuthority: true}, "b1")
	if err != nil {
		t.Fatalf("ResolveOfficer: %v", err)
	}
	// Two-hop resolution lands on the district officer, not the block officer.
	if res.OfficerUserID != "do1" {
		t.Fatalf("officer = %q, want do1", res.OfficerUserID)
	}
	if res.Block == nil || res.District == nil {
		t.Fatalf("expected both hops attached to resolution")
	}
}

func TestResolveMissingEntity(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.ResolveOfficer(context.Background(), Descriptor{Entity: EntityDistrict}, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.ResolveOfficer(context.Background(), Descriptor{Entity: EntityBlock}, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	// Parent hop missing is still a 404-class failure.
	if _, err := svc.ResolveOfficer(context.Background(), Descriptor{Entity: EntityBlock, ParentAuthority: true}, "b2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing parent district, got %v", err)
	}
}

func TestResolveUnknownKind(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.ResolveOfficer(context.Background(), Descriptor{Entity: EntityKind("village")}, "v1"); err == nil {
		t.Fatalf("expected error for unknown entity kind")
	}
}
