// internal/storage/postgres/postgres.go
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"expense-hive/internal/domain"
	"expense-hive/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const uniqueViolation = "23505"

type Storage struct {
	db *pgxpool.Pool
}

var _ storage.Storage = (*Storage)(nil)

func NewStorage(db *pgxpool.Pool) *Storage {
	return &Storage{db: db}
}

// Connect opens a pool and checks that the server answers.
func Connect(ctx context.Context, conn string) (*Storage, error) {
	pool, err := pgxpool.New(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	s := NewStorage(pool)
	if err := s.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Migrate applies the embedded goose migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Migrate runs the migrations over the storage's own pool.
func (s *Storage) Migrate(ctx context.Context) error {
	return Migrate(ctx, stdlib.OpenDBFromPool(s.db))
}

func (s *Storage) Name() string { return "postgres" }

func (s *Storage) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return wrap("ping", err)
	}
	return nil
}

func (s *Storage) Close(ctx context.Context) error {
	s.db.Close()
	return nil
}

// === AccountStorage ===

func (s *Storage) CreateAccount(ctx context.Context, account domain.Account) (*domain.Account, error) {
	account.ID = domain.NewID()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO accounts (id, email, password, created_at)
		VALUES ($1, $2, $3, $4)
	`, account.ID, account.Email, account.PasswordHash, account.CreatedAt)
	if err != nil {
		if isUnique(err) {
			return nil, &domain.ConflictError{Messages: []string{"Email already exists"}}
		}
		return nil, wrap("insert account", err)
	}
	return &account, nil
}

func (s *Storage) FindAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return s.findAccount(ctx, "email", email)
}

func (s *Storage) FindAccountByID(ctx context.Context, id string) (*domain.Account, error) {
	return s.findAccount(ctx, "id", id)
}

func (s *Storage) findAccount(ctx context.Context, column, value string) (*domain.Account, error) {
	var a domain.Account
	err := s.db.QueryRow(ctx,
		"SELECT id, email, password, created_at FROM accounts WHERE "+column+" = $1", value,
	).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("find account", err)
	}
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}

// === CategoryStorage ===

func (s *Storage) ListCategories(ctx context.Context, accountID string) ([]domain.Category, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, account_id, name, color
		FROM categories
		WHERE account_id = $1
		ORDER BY seq
	`, accountID)
	if err != nil {
		return nil, wrap("query categories", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Account, &c.Name, &c.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("read categories", err)
	}
	return categories, nil
}

func (s *Storage) InsertCategories(ctx context.Context, accountID string, categories []domain.Category) ([]domain.Category, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, wrap("begin tx", err)
	}
	defer tx.Rollback(ctx)

	created := make([]domain.Category, 0, len(categories))
	for _, c := range categories {
		c.ID = domain.NewID()
		c.Account = accountID
		_, err := tx.Exec(ctx, `
			INSERT INTO categories (id, account_id, name, color)
			VALUES ($1, $2, $3, $4)
		`, c.ID, c.Account, c.Name, c.Color)
		if err != nil {
			if isUnique(err) {
				return nil, categoryConflict(err, c)
			}
			return nil, wrap("insert category", err)
		}
		created = append(created, c)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, wrap("commit categories", err)
	}
	return created, nil
}

func (s *Storage) UpdateCategory(ctx context.Context, accountID string, category domain.Category) (*domain.Category, error) {
	var c domain.Category
	err := s.db.QueryRow(ctx, `
		UPDATE categories SET name = $3, color = $4
		WHERE id = $1 AND account_id = $2
		RETURNING id, account_id, name, color
	`, category.ID, accountID, category.Name, category.Color).Scan(&c.ID, &c.Account, &c.Name, &c.Color)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if isUnique(err) {
			return nil, categoryConflict(err, category)
		}
		return nil, wrap("update category", err)
	}
	return &c, nil
}

// DeleteCategories also unlinks the account's expenses from the removed
// categories so a later category of the same name can claim them.
func (s *Storage) DeleteCategories(ctx context.Context, accountID string, ids []string) (int64, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, wrap("begin tx", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx,
		"DELETE FROM categories WHERE account_id = $1 AND id = ANY($2)", accountID, ids)
	if err != nil {
		return 0, wrap("delete categories", err)
	}
	_, err = tx.Exec(ctx,
		"UPDATE expenses SET category_id = NULL WHERE account_id = $1 AND category_id = ANY($2)", accountID, ids)
	if err != nil {
		return 0, wrap("unlink expenses", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, wrap("commit category delete", err)
	}
	return result.RowsAffected(), nil
}

func categoryConflict(err error, c domain.Category) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.ConstraintName == "categories_account_color_key" {
		return &domain.ConflictError{Messages: []string{fmt.Sprintf("category color %q already in use", c.Color)}}
	}
	return &domain.ConflictError{Messages: []string{fmt.Sprintf("category name %q already exists", c.Name)}}
}

// === ExpenseStorage ===

func (s *Storage) ListExpenses(ctx context.Context, accountID string) ([]domain.Expense, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, account_id, name, amount::float8, date, category, category_id
		FROM expenses
		WHERE account_id = $1
		ORDER BY seq
	`, accountID)
	if err != nil {
		return nil, wrap("query expenses", err)
	}
	defer rows.Close()

	expenses := []domain.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("read expenses", err)
	}
	return expenses, nil
}

func (s *Storage) InsertExpenses(ctx context.Context, accountID string, expenses []domain.Expense) ([]domain.Expense, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, wrap("begin tx", err)
	}
	defer tx.Rollback(ctx)

	created := make([]domain.Expense, 0, len(expenses))
	for _, e := range expenses {
		date, err := domain.ParseDate(e.Date)
		if err != nil {
			return nil, domain.NewValidationError(err.Error())
		}
		e.ID = domain.NewID()
		e.Account = accountID
		e.Date = domain.FormatDate(date)

		_, err = tx.Exec(ctx, `
			INSERT INTO expenses (id, account_id, name, amount, date, category, category_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, e.ID, accountID, e.Name, e.Amount, date, e.Category, nullable(e.CategoryID))
		if err != nil {
			return nil, wrap("insert expense", err)
		}
		created = append(created, e)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, wrap("commit expenses", err)
	}
	return created, nil
}

func (s *Storage) UpdateExpense(ctx context.Context, accountID string, expense domain.Expense) (*domain.Expense, error) {
	date, err := domain.ParseDate(expense.Date)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	row := s.db.QueryRow(ctx, `
		UPDATE expenses
		SET name = $3, amount = $4, date = $5, category = $6, category_id = $7
		WHERE id = $1 AND account_id = $2
		RETURNING id, account_id, name, amount::float8, date, category, category_id
	`, expense.ID, accountID, expense.Name, expense.Amount, date, expense.Category, nullable(expense.CategoryID))

	e, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (s *Storage) DeleteExpenses(ctx context.Context, accountID string, ids []string) (int64, error) {
	result, err := s.db.Exec(ctx,
		"DELETE FROM expenses WHERE account_id = $1 AND id = ANY($2)", accountID, ids)
	if err != nil {
		return 0, wrap("delete expenses", err)
	}
	return result.RowsAffected(), nil
}

func (s *Storage) RenameCategory(ctx context.Context, accountID, categoryID, oldName, newName string) (int64, error) {
	result, err := s.db.Exec(ctx, `
		UPDATE expenses SET category = $4, category_id = $2
		WHERE account_id = $1
		  AND (category_id = $2 OR (category_id IS NULL AND category = $3))
	`, accountID, categoryID, oldName, newName)
	if err != nil {
		return 0, wrap("rename expense category", err)
	}
	return result.RowsAffected(), nil
}

func scanExpense(row pgx.Row) (domain.Expense, error) {
	var (
		e          domain.Expense
		date       time.Time
		categoryID *string
	)
	if err := row.Scan(&e.ID, &e.Account, &e.Name, &e.Amount, &date, &e.Category, &categoryID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return e, err
		}
		return e, wrap("scan expense", err)
	}
	e.Date = domain.FormatDate(date)
	if categoryID != nil {
		e.CategoryID = *categoryID
	}
	return e, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func isUnique(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// wrap marks connection failures and timeouts as transient.
func wrap(op string, err error) error {
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) {
		return fmt.Errorf("%s: %w: %v", op, domain.ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
