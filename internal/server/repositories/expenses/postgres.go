package expenses

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/expensekeeper/internal/common"
	"github.com/dmitrijs2005/expensekeeper/internal/dbx"
	"github.com/dmitrijs2005/expensekeeper/internal/server/models"
)

// PostgresRepository implements expense storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts e and fills in its id. A missing owner is common.ErrorNotFound.
func (r *PostgresRepository) Create(ctx context.Context, e *models.Expense) (*models.Expense, error) {
	query := `
		INSERT INTO expenses (user_id, transaction_date, transaction_category, transaction_description,
			transaction_currency, transaction_amount, is_recurring, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		e.UserID, e.Date, e.Category, e.Description, e.Currency, e.Amount, e.IsRecurring, e.IsActive).Scan(&e.ID)
	if err != nil {
		// the owner was deleted while its token is still valid
		if dbx.IsForeignKeyViolation(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Expense, error) {
	query := `
		SELECT id, user_id, transaction_date, transaction_category, transaction_description,
			transaction_currency, transaction_amount, is_recurring, is_active
		FROM expenses
		WHERE user_id = $1
		ORDER BY transaction_date DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select expenses: %w", err)
	}
	defer rows.Close()

	result := []*models.Expense{}
	for rows.Next() {
		var item models.Expense
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.Date, &item.Category, &item.Description,
			&item.Currency, &item.Amount, &item.IsRecurring, &item.IsActive,
		); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, expenseID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1 AND user_id = $2`, expenseID, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
