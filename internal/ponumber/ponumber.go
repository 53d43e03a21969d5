// Package ponumber allocates per-day purchase-order numbers for jobs.
//
// A PO number is the day a job was received (MMDDYY) plus a sequence that
// restarts every day. Sequences run 1..MaxSeq; the one after MaxSeq wraps
// back to 1, so a day with more than MaxSeq jobs repeats numbers.
package ponumber

import (
	"context"
	"fmt"
	"time"

	"github.com/crowngraphics/portal/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	MaxSeq    = 99
	keyLayout = "010206"
)

// Key encodes d as MMDDYY.
func Key(d time.Time) string {
	return d.Format(keyLayout)
}

// Display renders "{key}-{seq:02d}", or "" when either part is unset.
func Display(key string, seq int) string {
	if key == "" || seq <= 0 {
		return ""
	}
	return fmt.Sprintf("%s-%02d", key, seq)
}

// Next returns the PO key and sequence for a job received on d. It must run
// inside the transaction that stores the job so concurrent allocations for
// the same day are serialized.
func Next(ctx context.Context, tx *gorm.DB, d time.Time) (string, int, error) {
	key := Key(d)
	if err := lockKey(ctx, tx, key); err != nil {
		return "", 0, fmt.Errorf("lock po key %s: %w", key, err)
	}

	var maxSeq int
	err := tx.WithContext(ctx).Raw(
		`SELECT COALESCE(MAX(po_seq), 0) FROM jobs WHERE po_date_key = ?`,
		key,
	).Scan(&maxSeq).Error
	if err != nil {
		return "", 0, err
	}

	return key, nextSeq(maxSeq), nil
}

func nextSeq(maxSeq int) int {
	next := maxSeq + 1
	if next > MaxSeq {
		next = 1
	}
	return next
}

func lockKey(ctx context.Context, tx *gorm.DB, key string) error {
	switch db.DialectName(tx) {
	case db.TypePostgres:
		return tx.WithContext(ctx).Exec(`SELECT pg_advisory_xact_lock(hashtext(?))`, "po:"+key).Error
	case db.TypeMySQL:
		var seqs []int
		return tx.WithContext(ctx).
			Table("jobs").
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("po_date_key = ?", key).
			Pluck("po_seq", &seqs).Error
	default:
		// SQLite runs with a single pooled connection, so transactions are
		// already serialized.
		return nil
	}
}
