package pg

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"swasthya.org/internal/auth"
	"swasthya.org/internal/hierarchy"
	"swasthya.org/internal/report"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	return New(db), mock, func() { _ = db.Close() }
}

var userCols = []string{"id", "email", "password_hash", "email_verified", "role", "district_id", "block_id", "village_id", "status", "created_at", "updated_at"}

func TestFindUser(t *testing.T) {
	store, mock, done := newMock(t)
	defer done()

	now := time.Now()
	mock.ExpectQuery("select .* from users where id=").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u1", "asha@example.org", "hash", true, "asha_worker", "d1", "b1", nil, "active", now, now))

	u, err := store.FindUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("FindUser: %v", err)
	}
	if u.RoleInfo.Role != auth.RoleASHAWorker {
		t.Fatalf("role = %q, want asha_worker", u.RoleInfo.Role)
	}
	if u.RoleInfo.Hierarchy.DistrictID != "d1" || u.RoleInfo.Hierarchy.BlockID != "b1" {
		t.Fatalf("hierarchy not mapped: %+v", u.RoleInfo.Hierarchy)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFindUserNotFound(t *testing.T) {
	store, mock, done := newMock(t)
	defer done()

	mock.ExpectQuery("select .* from users where id=").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := store.FindUser(context.Background(), "missing")
	if !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected auth.ErrNotFound, got %v", err)
	}
}

func TestFindUserRejectsUnknownRole(t *testing.T) {
	store, mock, done := newMock(t)
	defer done()

	now := time.Now()
	mock.ExpectQuery("select .* from users where id=").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u1", "x@example.org", "hash", true, "overlord", nil, nil, nil, "active", now, now))

	if _, err := store.FindUser(context.Background(), "u1"); err == nil {
		t.Fatalf("expected error for role outside the closed set")
	}
}

func TestCreateUser(t *testing.T) {
	store, mock, done := newMock(t)
	defer done()

	mock.ExpectExec("insert into users").
		WithArgs("u1", "new@example.org", "hash", false, "citizen", "d1", nil, nil, "active").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.CreateUser(context.Background(), &auth.User{
		ID:           "u1",
		Email:        "new@example.org",
		PasswordHash: "hash",
		Status:       auth.StatusActive,
		RoleInfo: auth.RoleInfo{
			Role:      auth.RoleCitizen,
			Hierarchy: auth.Hierarchy{DistrictID: "d1"},
		},
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSetUserStatus(t *testing.T) {
	store, mock, done := newMock(t)
	defer done()

	// A status flip must be an update, never a delete.
	mock.ExpectExec("update users set status=").
		WithArgs("u1", "deleted").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.SetUserStatus(context.Background(), "u1", "deleted"); err != nil {
		t.Fatalf("SetUserStatus: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSetUserStatusMissingUser(t *testing.T) {
	store, mock, done := newMock(t)
	defer done()

	mock.ExpectExec("update users set status=").
		WithArgs("missing", "suspended").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.SetUserStatus(context.Background(), "missing", "suspended")
	if !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected auth.ErrNotFound, got %v", err)
	}
}

func TestFindDistrict(t *testing.T) {
	store, mock, done := newMock(t)
	defer done()

	now := time.Now()
	mock.ExpectQuery("select .* from districts where id=").
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "state", "officer_user_id", "officer_name", "officer_assigned_at", "created_at", "updated_at"}).
			AddRow("d1", "Kamrup", "Assam", "u9", "Dr. Sharma", now, now, now))

	d, err := store.FindDistrict(context.Background(), "d1")
	if err != nil {
		t.Fatalf("FindDistrict: %v", err)
	}
	if d.Officer.UserID != "u9" {
		t.Fatalf("officer = %q, want u9", d.Officer.UserID)
	}
}

func TestFindBlockNotFound(t *testing.T) {
	store, mock, done := newMock(t)
	defer done()

	mock.ExpectQuery("select .* from blocks where id=").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := store.FindBlock(context.Background(), "missing")
	if !errors.Is(err, hierarchy.ErrNotFound) {
		t.Fatalf("expected hierarchy.ErrNotFound, got %v", err)
	}
}

func TestSetBlockOfficer(t *testing.T) {
	store, mock, done := newMock(t)
	defer done()

	mock.ExpectExec("update blocks set officer_user_id=").
		WithArgs("b1", "u5", "Officer Rao", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.SetBlockOfficer(context.Background(), "b1", hierarchy.OfficerBinding{UserID: "u5", Name: "Officer Rao"})
	if err != nil {
		t.Fatalf("SetBlockOfficer: %v", err)
	}
}

func TestSetBlockOfficerMissingBlock(t *testing.T) {
	store, mock, done := newMock(t)
	defer done()

	mock.ExpectExec("update blocks set officer_user_id=").
		WithArgs("missing", "u5", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.SetBlockOfficer(context.Background(), "missing", hierarchy.OfficerBinding{UserID: "u5"})
	if !errors.Is(err, hierarchy.ErrNotFound) {
		t.Fatalf("expected hierarchy.ErrNotFound, got %v", err)
	}
}

func TestCreateAndFindReport(t *testing.T) {
	store, mock, done := newMock(t)
	defer done()

	mock.ExpectExec("insert into reports").
		WithArgs("r1", "u1", "d1", nil, []byte(`["fever","diarrhea"]`), nil, "moderate", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.CreateReport(context.Background(), &report.Report{
		ID:         "r1",
		UserID:     "u1",
		DistrictID: "d1",
		Symptoms:   []string{"fever", "diarrhea"},
		Severity:   report.SeverityModerate,
	})
	if err != nil {
		t.Fatalf("CreateReport: %v", err)
	}

	now := time.Now()
	mock.ExpectQuery("select .* from reports where id=").
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "district_id", "block_id", "symptoms", "water_source", "severity", "description", "created_at", "updated_at"}).
			AddRow("r1", "u1", "d1", nil, []byte(`["fever","diarrhea"]`), "well", "moderate", nil, now, now))

	r, err := store.FindReport(context.Background(), "r1")
	if err != nil {
		t.Fatalf("FindReport: %v", err)
	}
	if len(r.Symptoms) != 2 || r.Symptoms[0] != "fever" {
		t.Fatalf("symptoms not mapped: %v", r.Symptoms)
	}
	if r.WaterSource != "well" {
		t.Fatalf("water source = %q, want well", r.WaterSource)
	}
}

func TestFindReportCorruptSymptoms(t *testing.T) {
	store, mock, done := newMock(t)
	defer done()

	now := time.Now()
	mock.ExpectQuery("select .* from reports where id=").
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "district_id", "block_id", "symptoms", "water_source", "severity", "description", "created_at", "updated_at"}).
			AddRow("r1", "u1", "d1", nil, []byte(`{broken`), nil, "low", nil, now, now))

	if _, err := store.FindReport(context.Background(), "r1"); err == nil {
		t.Fatal("corrupt symptoms column must surface as an error, not an empty slice")
	}
}

func TestDeleteReportNotFound(t *testing.T) {
	store, mock, done := newMock(t)
	defer done()

	mock.ExpectExec("delete from reports where id=").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.DeleteReport(context.Background(), "missing"); !errors.Is(err, report.ErrNotFound) {
		t.Fatalf("expected report.ErrNotFound, got %v", err)
	}
}
