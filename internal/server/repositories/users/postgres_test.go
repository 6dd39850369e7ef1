package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/authwall/internal/common"
	"github.com/dmitrijs2005/authwall/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const insertQuery = `(?s)^INSERT\s+INTO\s+users\s*\(name,\s*email,\s*normalized_email,\s*password_hash,\s*salt,\s*email_confirmation_secret\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6\)\s*RETURNING\s+id\s*$`

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id"}).AddRow("u-1")
	mock.ExpectQuery(insertQuery).
		WithArgs("Alice", "Alice@Example.com", "alice@example.com", []byte("hash"), []byte("salt"),
			sql.NullString{String: "secret", Valid: true}).
		WillReturnRows(rows)

	u := &models.User{
		Name:                    "Alice",
		Email:                   "Alice@Example.com",
		NormalizedEmail:         "alice@example.com",
		PasswordHash:            []byte("hash"),
		Salt:                    []byte("salt"),
		EmailConfirmationSecret: "secret",
	}
	got, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "u-1" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestCreate_UniqueViolation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQuery).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_normalized_email_key"})

	_, err := repo.Create(context.Background(), &models.User{Name: "Alice"})
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("want common.ErrorAlreadyExists, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQuery).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Name: "Alice"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestFindByNormalizedEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+.+\s+FROM\s+users\s+WHERE\s+normalized_email\s*=\s*\$1\s*$`

	rows := sqlmock.NewRows([]string{"id", "name", "email", "normalized_email", "password_hash", "salt", "email_confirmed", "email_confirmation_secret"}).
		AddRow("u-1", "Alice", "Alice@Example.com", "alice@example.com", []byte("hash"), []byte("salt"), false, "secret")
	mock.ExpectQuery(q).WithArgs("alice@example.com").WillReturnRows(rows)

	got, err := repo.FindByNormalizedEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("FindByNormalizedEmail error: %v", err)
	}
	if got.ID != "u-1" || got.EmailConfirmationSecret != "secret" || got.EmailConfirmed {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestFindByNormalizedEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+.+\s+FROM\s+users\s+WHERE\s+normalized_email\s*=\s*\$1\s*$`
	mock.ExpectQuery(q).WithArgs("ghost@example.com").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByNormalizedEmail(context.Background(), "ghost@example.com")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestGetByID_NullSecret(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+.+\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`

	rows := sqlmock.NewRows([]string{"id", "name", "email", "normalized_email", "password_hash", "salt", "email_confirmed", "email_confirmation_secret"}).
		AddRow("u-1", "Alice", "a@example.com", "a@example.com", []byte("hash"), []byte("salt"), true, nil)
	mock.ExpectQuery(q).WithArgs("u-1").WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if !got.EmailConfirmed || got.EmailConfirmationSecret != "" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetByIDs_BuildsPlaceholders(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+.+\s+FROM\s+users\s+WHERE\s+id\s+IN\s*\(\$1,\s*\$2\)\s*$`

	rows := sqlmock.NewRows([]string{"id", "name", "email", "normalized_email", "password_hash", "salt", "email_confirmed", "email_confirmation_secret"}).
		AddRow("u-1", "Alice", "a@example.com", "a@example.com", []byte("h"), []byte("s"), false, nil).
		AddRow("u-2", "Bob", "b@example.com", "b@example.com", []byte("h"), []byte("s"), true, nil)
	mock.ExpectQuery(q).WithArgs("u-1", "u-2").WillReturnRows(rows)

	got, err := repo.GetByIDs(context.Background(), []string{"u-1", "u-2"})
	if err != nil {
		t.Fatalf("GetByIDs error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "u-1" || got[1].ID != "u-2" {
		t.Fatalf("unexpected users: %+v", got)
	}
}

func TestGetByIDs_Empty(t *testing.T) {
	repo, _, db := newRepoWithMock(t)
	defer db.Close()

	got, err := repo.GetByIDs(context.Background(), nil)
	if err != nil || got != nil {
		t.Fatalf("expected empty result without query, got %v, %v", got, err)
	}
}

func TestConfirmEmail_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+users\s+SET\s+email_confirmed\s*=\s*true,\s*email_confirmation_secret\s*=\s*NULL\s+WHERE\s+id\s*=\s*\$1\s*$`
	mock.ExpectExec(q).WithArgs("u-1").WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.ConfirmEmail(context.Background(), "u-1"); err != nil {
		t.Fatalf("ConfirmEmail error: %v", err)
	}
}

func TestConfirmEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+users\s+SET\s+email_confirmed\s*=\s*true,\s*email_confirmation_secret\s*=\s*NULL\s+WHERE\s+id\s*=\s*\$1\s*$`
	mock.ExpectExec(q).WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.ConfirmEmail(context.Background(), "ghost"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}
