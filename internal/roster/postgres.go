package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"gatehouse/pkg/sentinel"
)

// PostgresStore persists the four record sets in PostgreSQL. The store is
// pure I/O; all flow decisions belong in the verification engine. Queries use
// database/sql so the store works under both the pgx stdlib driver and
// lib/pq.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

var _ Store = (*PostgresStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS pending (
	identity  BIGINT PRIMARY KEY,
	shortcode TEXT NOT NULL,
	realname  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS manual (
	identity  BIGINT PRIMARY KEY,
	shortcode TEXT NOT NULL,
	nickname  TEXT NOT NULL,
	realname  TEXT NOT NULL,
	fresher   TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS members (
	identity  BIGINT PRIMARY KEY,
	shortcode TEXT NOT NULL,
	nickname  TEXT NOT NULL,
	realname  TEXT NOT NULL,
	fresher   TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS extras (
	identity    BIGINT PRIMARY KEY,
	name        TEXT NOT NULL,
	institution TEXT NOT NULL
);
`

// EnsureSchema creates the tables if they do not exist. Schema evolution
// beyond this belongs to external tooling.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// isUniqueViolation matches SQLSTATE 23505 under either postgres driver.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

func (s *PostgresStore) Pending(ctx context.Context, id Identity) (*PendingRecord, error) {
	var rec PendingRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT identity, shortcode, realname FROM pending WHERE identity = $1`, int64(id),
	).Scan(&rec.Identity, &rec.Shortcode, &rec.Realname)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get pending: %w", err)
	}
	return &rec, nil
}

func (s *PostgresStore) InsertPending(ctx context.Context, rec PendingRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pending (identity, shortcode, realname) VALUES ($1, $2, $3)`,
		int64(rec.Identity), strings.ToLower(rec.Shortcode), rec.Realname,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert pending: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeletePending(ctx context.Context, id Identity) (bool, error) {
	return s.deleteByIdentity(ctx, "pending", id)
}

func (s *PostgresStore) AllPending(ctx context.Context) ([]PendingRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT identity, shortcode, realname FROM pending ORDER BY identity`)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	defer rows.Close()

	var out []PendingRecord
	for rows.Next() {
		var rec PendingRecord
		if err := rows.Scan(&rec.Identity, &rec.Shortcode, &rec.Realname); err != nil {
			return nil, fmt.Errorf("scan pending: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountPending(ctx context.Context) (int64, error) {
	return s.countTable(ctx, "pending")
}

func (s *PostgresStore) Manual(ctx context.Context, id Identity) (*ManualRecord, error) {
	var rec ManualRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT identity, shortcode, nickname, realname, fresher FROM manual WHERE identity = $1`, int64(id),
	).Scan(&rec.Identity, &rec.Shortcode, &rec.Nickname, &rec.Realname, &rec.Fresher)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get manual: %w", err)
	}
	return &rec, nil
}

func (s *PostgresStore) InsertManual(ctx context.Context, rec ManualRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO manual (identity, shortcode, nickname, realname, fresher) VALUES ($1, $2, $3, $4, $5)`,
		int64(rec.Identity), strings.ToLower(rec.Shortcode), rec.Nickname, rec.Realname, string(rec.Fresher),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert manual: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteManual(ctx context.Context, id Identity) (bool, error) {
	return s.deleteByIdentity(ctx, "manual", id)
}

func (s *PostgresStore) AllManual(ctx context.Context) ([]ManualRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT identity, shortcode, nickname, realname, fresher FROM manual ORDER BY identity`)
	if err != nil {
		return nil, fmt.Errorf("list manual: %w", err)
	}
	defer rows.Close()

	var out []ManualRecord
	for rows.Next() {
		var rec ManualRecord
		if err := rows.Scan(&rec.Identity, &rec.Shortcode, &rec.Nickname, &rec.Realname, &rec.Fresher); err != nil {
			return nil, fmt.Errorf("scan manual: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountManual(ctx context.Context) (int64, error) {
	return s.countTable(ctx, "manual")
}

func (s *PostgresStore) Member(ctx context.Context, id Identity) (*MemberRecord, error) {
	return s.scanMember(s.db.QueryRowContext(ctx,
		`SELECT identity, shortcode, nickname, realname, fresher FROM members WHERE identity = $1`, int64(id)))
}

func (s *PostgresStore) MemberByShortcode(ctx context.Context, shortcode string) (*MemberRecord, error) {
	return s.scanMember(s.db.QueryRowContext(ctx,
		`SELECT identity, shortcode, nickname, realname, fresher FROM members WHERE shortcode = $1`,
		strings.ToLower(shortcode)))
}

func (s *PostgresStore) scanMember(row *sql.Row) (*MemberRecord, error) {
	var rec MemberRecord
	err := row.Scan(&rec.Identity, &rec.Shortcode, &rec.Nickname, &rec.Realname, &rec.Fresher)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get member: %w", err)
	}
	return &rec, nil
}

func (s *PostgresStore) InsertMember(ctx context.Context, rec MemberRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO members (identity, shortcode, nickname, realname, fresher) VALUES ($1, $2, $3, $4, $5)`,
		int64(rec.Identity), strings.ToLower(rec.Shortcode), rec.Nickname, rec.Realname, string(rec.Fresher),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteMember(ctx context.Context, id Identity) (bool, error) {
	return s.deleteByIdentity(ctx, "members", id)
}

func (s *PostgresStore) UpdateMemberNickname(ctx context.Context, id Identity, nickname string) (bool, error) {
	return s.updateMemberField(ctx, "nickname",
		`UPDATE members SET nickname = $2 WHERE identity = $1`, int64(id), nickname)
}

func (s *PostgresStore) UpdateMemberShortcode(ctx context.Context, id Identity, shortcode string) (bool, error) {
	return s.updateMemberField(ctx, "shortcode",
		`UPDATE members SET shortcode = $2 WHERE identity = $1`, int64(id), strings.ToLower(shortcode))
}

func (s *PostgresStore) UpdateMemberFresher(ctx context.Context, id Identity, fresher FresherStatus) (bool, error) {
	return s.updateMemberField(ctx, "fresher",
		`UPDATE members SET fresher = $2 WHERE identity = $1`, int64(id), string(fresher))
}

func (s *PostgresStore) updateMemberField(ctx context.Context, field, query string, args ...any) (bool, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update member %s: %w", field, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update member %s rows: %w", field, err)
	}
	return n == 1, nil
}

func (s *PostgresStore) AllMembers(ctx context.Context) ([]MemberRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT identity, shortcode, nickname, realname, fresher FROM members ORDER BY identity`)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var out []MemberRecord
	for rows.Next() {
		var rec MemberRecord
		if err := rows.Scan(&rec.Identity, &rec.Shortcode, &rec.Nickname, &rec.Realname, &rec.Fresher); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountMembers(ctx context.Context) (int64, error) {
	return s.countTable(ctx, "members")
}

// PromotePending moves a pending row to members in one transaction. The
// DELETE ... RETURNING hands back the source payload so the member row is
// built without a second read; no row means the pending record was already
// consumed and nothing is changed.
func (s *PostgresStore) PromotePending(ctx context.Context, id Identity, nickname string, fresher FresherStatus) (*MemberRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("promote pending begin: %w", err)
	}
	defer tx.Rollback()

	var src PendingRecord
	err = tx.QueryRowContext(ctx,
		`DELETE FROM pending WHERE identity = $1 RETURNING identity, shortcode, realname`, int64(id),
	).Scan(&src.Identity, &src.Shortcode, &src.Realname)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("promote pending delete: %w", err)
	}

	member := MemberRecord{
		Identity:  id,
		Shortcode: src.Shortcode,
		Nickname:  nickname,
		Realname:  src.Realname,
		Fresher:   fresher,
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO members (identity, shortcode, nickname, realname, fresher) VALUES ($1, $2, $3, $4, $5)`,
		int64(member.Identity), member.Shortcode, member.Nickname, member.Realname, string(member.Fresher),
	); err != nil {
		if isUniqueViolation(err) {
			return nil, sentinel.ErrConflict
		}
		return nil, fmt.Errorf("promote pending insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("promote pending commit: %w", err)
	}
	return &member, nil
}

// PromoteManual moves a manual row to members in one transaction, carrying
// every field of the submission.
func (s *PostgresStore) PromoteManual(ctx context.Context, id Identity) (*MemberRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("promote manual begin: %w", err)
	}
	defer tx.Rollback()

	var src ManualRecord
	err = tx.QueryRowContext(ctx,
		`DELETE FROM manual WHERE identity = $1 RETURNING identity, shortcode, nickname, realname, fresher`, int64(id),
	).Scan(&src.Identity, &src.Shortcode, &src.Nickname, &src.Realname, &src.Fresher)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("promote manual delete: %w", err)
	}

	member := MemberRecord(src)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO members (identity, shortcode, nickname, realname, fresher) VALUES ($1, $2, $3, $4, $5)`,
		int64(member.Identity), member.Shortcode, member.Nickname, member.Realname, string(member.Fresher),
	); err != nil {
		if isUniqueViolation(err) {
			return nil, sentinel.ErrConflict
		}
		return nil, fmt.Errorf("promote manual insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("promote manual commit: %w", err)
	}
	return &member, nil
}

func (s *PostgresStore) Extra(ctx context.Context, id Identity) (*ExtraRecord, error) {
	var rec ExtraRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT identity, name, institution FROM extras WHERE identity = $1`, int64(id),
	).Scan(&rec.Identity, &rec.Name, &rec.Institution)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get extra: %w", err)
	}
	return &rec, nil
}

func (s *PostgresStore) InsertExtra(ctx context.Context, rec ExtraRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO extras (identity, name, institution) VALUES ($1, $2, $3)`,
		int64(rec.Identity), rec.Name, rec.Institution,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert extra: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteExtra(ctx context.Context, id Identity) (bool, error) {
	return s.deleteByIdentity(ctx, "extras", id)
}

func (s *PostgresStore) UpdateExtraName(ctx context.Context, id Identity, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE extras SET name = $2 WHERE identity = $1`, int64(id), name)
	if err != nil {
		return false, fmt.Errorf("update extra name: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update extra name rows: %w", err)
	}
	return n == 1, nil
}

func (s *PostgresStore) UpdateExtraInstitution(ctx context.Context, id Identity, institution string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE extras SET institution = $2 WHERE identity = $1`, int64(id), institution)
	if err != nil {
		return false, fmt.Errorf("update extra institution: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update extra institution rows: %w", err)
	}
	return n == 1, nil
}

func (s *PostgresStore) AllExtras(ctx context.Context) ([]ExtraRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT identity, name, institution FROM extras ORDER BY identity`)
	if err != nil {
		return nil, fmt.Errorf("list extras: %w", err)
	}
	defer rows.Close()

	var out []ExtraRecord
	for rows.Next() {
		var rec ExtraRecord
		if err := rows.Scan(&rec.Identity, &rec.Name, &rec.Institution); err != nil {
			return nil, fmt.Errorf("scan extra: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountExtras(ctx context.Context) (int64, error) {
	return s.countTable(ctx, "extras")
}

func (s *PostgresStore) deleteByIdentity(ctx context.Context, table string, id Identity) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM `+table+` WHERE identity = $1`, int64(id))
	if err != nil {
		return false, fmt.Errorf("delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete from %s rows: %w", table, err)
	}
	return n == 1, nil
}

func (s *PostgresStore) countTable(ctx context.Context, table string) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}
