package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vibast-solutions/ms-go-accounts/app/entity"

	"github.com/go-sql-driver/mysql"
	"github.com/samber/oops"
)

const mysqlDuplicateEntry = 1062

const selectAccountColumns = `
		SELECT id, email, password_hash, is_verified, verification_token, reset_token, created_at, updated_at
		FROM accounts`

type AccountRepository struct {
	db DBTX
}

func NewAccountRepository(db DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, account *entity.Account) error {
	query := `
		INSERT INTO accounts (email, password_hash, is_verified, verification_token, reset_token, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		account.Email,
		account.PasswordHash,
		account.IsVerified,
		account.VerificationToken,
		account.ResetToken,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return ErrDuplicateKey
		}
		return oops.Code("ACCOUNT_CREATE").In("repository").With("email", account.Email).Wrap(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return oops.Code("ACCOUNT_CREATE").In("repository").Wrap(err)
	}
	account.ID = uint64(id)
	return nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	query := selectAccountColumns + ` WHERE email = ?`
	return r.findOne(ctx, query, email)
}

func (r *AccountRepository) FindByEmailAndVerificationToken(ctx context.Context, email, token string) (*entity.Account, error) {
	query := selectAccountColumns + ` WHERE email = ? AND verification_token = ?`
	return r.findOne(ctx, query, email, token)
}

func (r *AccountRepository) FindByEmailAndResetToken(ctx context.Context, email, token string) (*entity.Account, error) {
	query := selectAccountColumns + ` WHERE email = ? AND reset_token = ?`
	return r.findOne(ctx, query, email, token)
}

// SetResetToken overwrites the outstanding reset token. Other columns are
// left untouched so a concurrent verification is never rolled back.
func (r *AccountRepository) SetResetToken(ctx context.Context, id uint64, token string) error {
	query := `UPDATE accounts SET reset_token = ?, updated_at = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, token, time.Now(), id); err != nil {
		return oops.Code("ACCOUNT_SET_RESET_TOKEN").In("repository").With("account_id", id).Wrap(err)
	}
	return nil
}

// ConsumeVerificationToken marks the account verified only while token is
// still the stored verification token. It reports whether a row changed.
func (r *AccountRepository) ConsumeVerificationToken(ctx context.Context, id uint64, token string) (bool, error) {
	query := `
		UPDATE accounts SET is_verified = 1, verification_token = NULL, updated_at = ?
		WHERE id = ? AND verification_token = ?
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id, token)
	if err != nil {
		return false, oops.Code("ACCOUNT_CONSUME_VERIFICATION").In("repository").With("account_id", id).Wrap(err)
	}
	return rowsChanged(result)
}

// ConsumeResetToken replaces the password hash only while token is still the
// stored reset token. It reports whether a row changed.
func (r *AccountRepository) ConsumeResetToken(ctx context.Context, id uint64, token, passwordHash string) (bool, error) {
	query := `
		UPDATE accounts SET password_hash = ?, reset_token = NULL, updated_at = ?
		WHERE id = ? AND reset_token = ?
	`
	result, err := r.db.ExecContext(ctx, query, passwordHash, time.Now(), id, token)
	if err != nil {
		return false, oops.Code("ACCOUNT_CONSUME_RESET").In("repository").With("account_id", id).Wrap(err)
	}
	return rowsChanged(result)
}

func (r *AccountRepository) findOne(ctx context.Context, query string, args ...any) (*entity.Account, error) {
	account := &entity.Account{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.IsVerified,
		&account.VerificationToken,
		&account.ResetToken,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_LOOKUP").In("repository").Wrap(err)
	}
	return account, nil
}

func rowsChanged(result sql.Result) (bool, error) {
	affected, err := result.RowsAffected()
	if err != nil {
		return false, oops.Code("ACCOUNT_ROWS_AFFECTED").In("repository").Wrap(err)
	}
	return affected > 0, nil
}

func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
