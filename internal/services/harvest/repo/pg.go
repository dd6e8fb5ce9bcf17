package repo

import (
	"context"

	"breachwatch/internal/modkit/repokit"
	perr "breachwatch/internal/platform/errors"

	"breachwatch/internal/core/record"
	"breachwatch/internal/services/harvest/domain"
)

// NewArchiveBinder returns a Binder producing the Postgres archive repo
func NewArchiveBinder() repokit.Binder[domain.ArchiveRepo] {
	return repokit.BindFunc[domain.ArchiveRepo](func(q repokit.Queryer) domain.ArchiveRepo {
		return &pgArchive{q: q}
	})
}

type pgArchive struct {
	q repokit.Queryer
}

const insertRecordSQL = `
	INSERT INTO breach_records
		(hash_id, source, content, type, author, message_id, observed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (hash_id) DO NOTHING`

// InsertRecords mirrors recs into breach_records. Rows already present (by
// hash_id) are left untouched and counted as deduped
func (r *pgArchive) InsertRecords(ctx context.Context, recs []record.Record) (domain.ArchiveStats, error) {
	var st domain.ArchiveStats
	for _, rec := range recs {
		tag, err := r.q.Exec(ctx, insertRecordSQL,
			rec.HashID, rec.Source, rec.Content, rec.Type,
			rec.Author, rec.MessageID, rec.Timestamp)
		if err != nil {
			return st, perr.FromDB(err, "archive: insert record")
		}
		if tag.RowsAffected() > 0 {
			st.Inserted++
		} else {
			st.Deduped++
		}
	}
	return st, nil
}
