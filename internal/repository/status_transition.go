package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/djschool-api/internal/models"
	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
)

// transitionStatus moves the row id of table from one of from to to and scans
// the updated row into dest. A row in another state yields a precondition
// error naming the current state.
func transitionStatus(ctx context.Context, db *sqlx.DB, table, column, what, id string, from []models.RecordStatus, to models.RecordStatus, dest interface{}) error {
	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}

	update := fmt.Sprintf(`UPDATE %s SET %s = $2, updated_at = $3 WHERE id = $1 AND %s = ANY($4) RETURNING *`, table, column, column)
	err := db.GetContext(ctx, dest, update, id, to, time.Now().UTC(), pq.Array(allowed))
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return storeErr(err, "update "+what+" status")
	}

	var current models.RecordStatus
	lookup := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, column, table)
	if err := db.GetContext(ctx, &current, lookup, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound(what)
		}
		return storeErr(err, "find "+what+" status")
	}
	return appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("%s is %s", what, current))
}
