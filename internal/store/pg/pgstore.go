// Package pg implements the user, hierarchy and report stores on
// PostgreSQL via database/sql with the pgx driver.
package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"swasthya.org/internal/auth"
	"swasthya.org/internal/hierarchy"
	"swasthya.org/internal/report"
)

var (
	_ auth.UserStore  = (*Store)(nil)
	_ hierarchy.Store = (*Store)(nil)
	_ report.Store    = (*Store)(nil)
)

// Store bundles all persistence operations on one connection pool.
type Store struct {
	db *sql.DB
}

// New constructs a Store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Users ---------------------------------------------------------------------

const userColumns = `id, email, password_hash, email_verified, role, district_id, block_id, village_id, status, created_at, updated_at`

func (s *Store) FindUser(ctx context.Context, id string) (*auth.User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id=$1`, id)
	return scanUser(row)
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where email=$1`, email)
	return scanUser(row)
}

// CreateUser inserts a new account.
func (s *Store) CreateUser(ctx context.Context, u *auth.User) error {
	_, err := s.db.ExecContext(ctx,
		`insert into users(id, email, password_hash, email_verified, role, district_id, block_id, village_id, status)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		u.ID, u.Email, u.PasswordHash, u.EmailVerified, string(u.RoleInfo.Role),
		nullable(u.RoleInfo.Hierarchy.DistrictID),
		nullable(u.RoleInfo.Hierarchy.BlockID),
		nullable(u.RoleInfo.Hierarchy.VillageID),
		u.Status,
	)
	return err
}

// SetUserStatus flips the account status. "Deletion" is a status change;
// rows are never removed.
func (s *Store) SetUserStatus(ctx context.Context, userID, status string) error {
	res, err := s.db.ExecContext(ctx,
		`update users set status=$2, updated_at=now() where id=$1`, userID, status)
	if err != nil {
		return err
	}
	return oneRowAffected(res, auth.ErrNotFound)
}

func scanUser(row *sql.Row) (*auth.User, error) {
	var (
		u          auth.User
		role       string
		districtID sql.NullString
		blockID    sql.NullString
		villageID  sql.NullString
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.EmailVerified, &role,
		&districtID, &blockID, &villageID, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrNotFound
		}
		return nil, err
	}
	parsed, err := auth.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("pg: user %s carries %w", u.ID, err)
	}
	u.RoleInfo = auth.RoleInfo{
		Role: parsed,
		Hierarchy: auth.Hierarchy{
			DistrictID: districtID.String,
			BlockID:    blockID.String,
			VillageID:  villageID.String,
		},
	}
	return &u, nil
}

// Districts -----------------------------------------------------------------

func (s *Store) FindDistrict(ctx context.Context, id string) (*hierarchy.District, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, name, state, officer_user_id, officer_name, officer_assigned_at, created_at, updated_at
		 from districts where id=$1`, id)

	var (
		d          hierarchy.District
		officer    sql.NullString
		name       sql.NullString
		assignedAt sql.NullTime
	)
	err := row.Scan(&d.ID, &d.Name, &d.State, &officer, &name, &assignedAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, hierarchy.ErrNotFound
		}
		return nil, err
	}
	d.Officer = hierarchy.OfficerBinding{
		UserID:     officer.String,
		Name:       name.String,
		AssignedAt: assignedAt.Time,
	}
	return &d, nil
}

func (s *Store) UpdateDistrict(ctx context.Context, d *hierarchy.District) error {
	res, err := s.db.ExecContext(ctx,
		`update districts set name=$2, state=$3, officer_user_id=$4, officer_name=$5, updated_at=now()
		 where id=$1`,
		d.ID, d.Name, d.State, nullable(d.Officer.UserID), nullable(d.Officer.Name))
	if err != nil {
		return err
	}
	return oneRowAffected(res, hierarchy.ErrNotFound)
}

// Blocks --------------------------------------------------------------------

func (s *Store) FindBlock(ctx context.Context, id string) (*hierarchy.Block, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, district_id, name, officer_user_id, officer_name, officer_assigned_at, created_at, updated_at
		 from blocks where id=$1`, id)

	var (
		b          hierarchy.Block
		officer    sql.NullString
		name       sql.NullString
		assignedAt sql.NullTime
	)
	err := row.Scan(&b.ID, &b.DistrictID, &b.Name, &officer, &name, &assignedAt, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, hierarchy.ErrNotFound
		}
		return nil, err
	}
	b.Officer = hierarchy.OfficerBinding{
		UserID:     officer.String,
		Name:       name.String,
		AssignedAt: assignedAt.Time,
	}
	return &b, nil
}

func (s *Store) UpdateBlock(ctx context.Context, b *hierarchy.Block) error {
	res, err := s.db.ExecContext(ctx,
		`update blocks set name=$2, officer_user_id=$3, officer_name=$4, updated_at=now()
		 where id=$1`,
		b.ID, b.Name, nullable(b.Officer.UserID), nullable(b.Officer.Name))
	if err != nil {
		return err
	}
	return oneRowAffected(res, hierarchy.ErrNotFound)
}

func (s *Store) SetBlockOfficer(ctx context.Context, blockID string, officer hierarchy.OfficerBinding) error {
	assignedAt := officer.AssignedAt
	if assignedAt.IsZero() {
		assignedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`update blocks set officer_user_id=$2, officer_name=$3, officer_assigned_at=$4, updated_at=now()
		 where id=$1`,
		blockID, nullable(officer.UserID), nullable(officer.Name), assignedAt)
	if err != nil {
		return err
	}
	return oneRowAffected(res, hierarchy.ErrNotFound)
}

// Reports -------------------------------------------------------------------

func (s *Store) CreateReport(ctx context.Context, r *report.Report) error {
	symptoms, err := json.Marshal(r.Symptoms)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`insert into reports(id, user_id, district_id, block_id, symptoms, water_source, severity, description)
		 values($1,$2,$3,$4,$5,$6,$7,$8)`,
		r.ID, r.UserID, r.DistrictID, nullable(r.BlockID), symptoms,
		nullable(r.WaterSource), r.Severity, nullable(r.Description))
	return err
}

func (s *Store) FindReport(ctx context.Context, id string) (*report.Report, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, user_id, district_id, block_id, symptoms, water_source, severity, description, created_at, updated_at
		 from reports where id=$1`, id)

	var (
		r           report.Report
		blockID     sql.NullString
		symptoms    []byte
		waterSource sql.NullString
		description sql.NullString
	)
	err := row.Scan(&r.ID, &r.UserID, &r.DistrictID, &blockID, &symptoms,
		&waterSource, &r.Severity, &description, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, report.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(symptoms, &r.Symptoms); err != nil {
		return nil, fmt.Errorf("pg: decode symptoms for report %s: %w", r.ID, err)
	}
	r.BlockID = blockID.String
	r.WaterSource = waterSource.String
	r.Description = description.String
	return &r, nil
}

func (s *Store) ListReports(ctx context.Context, districtID string, limit int) ([]*report.Report, error) {
	query := `select id, user_id, district_id, block_id, symptoms, water_source, severity, description, created_at, updated_at
		 from reports`
	args := []any{}
	if districtID != "" {
		query += ` where district_id=$1`
		args = append(args, districtID)
	}
	query += fmt.Sprintf(` order by created_at desc limit %d`, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*report.Report
	for rows.Next() {
		var (
			r           report.Report
			blockID     sql.NullString
			symptoms    []byte
			waterSource sql.NullString
			description sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.DistrictID, &blockID, &symptoms,
			&waterSource, &r.Severity, &description, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(symptoms, &r.Symptoms); err != nil {
			return nil, fmt.Errorf("pg: decode symptoms for report %s: %w", r.ID, err)
		}
		r.BlockID = blockID.String
		r.WaterSource = waterSource.String
		r.Description = description.String
		res = append(res, &r)
	}
	return res, rows.Err()
}

func (s *Store) UpdateReport(ctx context.Context, r *report.Report) error {
	symptoms, err := json.Marshal(r.Symptoms)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`update reports set symptoms=$2, water_source=$3, severity=$4, description=$5, updated_at=now()
		 where id=$1`,
		r.ID, symptoms, nullable(r.WaterSource), r.Severity, nullable(r.Description))
	if err != nil {
		return err
	}
	return oneRowAffected(res, report.ErrNotFound)
}

func (s *Store) DeleteReport(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from reports where id=$1`, id)
	if err != nil {
		return err
	}
	return oneRowAffected(res, report.ErrNotFound)
}

// helpers -------------------------------------------------------------------

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func oneRowAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
