package store

import (
	"context"
	"database/sql"
	"encoding/json"
)

// CustomSynonyms loads the user-editable synonym overlay.
// Keys and values are stored lowercased.
func (s *Store) CustomSynonyms(ctx context.Context) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT canonical_term, synonyms FROM custom_synonyms")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]string)
	for rows.Next() {
		var canonical, synonymsJSON string
		if err := rows.Scan(&canonical, &synonymsJSON); err != nil {
			return nil, err
		}
		var syns []string
		if err := json.Unmarshal([]byte(synonymsJSON), &syns); err != nil {
			continue
		}
		result[canonical] = syns
	}
	return result, rows.Err()
}

// SaveCustomSynonyms upserts the given synonym entries. When replace is
// true all existing rows are dropped first. Returns the number saved.
func (s *Store) SaveCustomSynonyms(ctx context.Context, synonyms map[string][]string, replace bool) (int, error) {
	var count int
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if replace {
			if _, err := tx.ExecContext(ctx, "DELETE FROM custom_synonyms"); err != nil {
				return err
			}
		}
		for canonical, syns := range synonyms {
			if len(syns) == 0 {
				continue
			}
			b, err := json.Marshal(syns)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO custom_synonyms (canonical_term, synonyms, updated_at)
				VALUES (?, ?, datetime('now'))
				ON CONFLICT(canonical_term) DO UPDATE SET
					synonyms = excluded.synonyms,
					updated_at = datetime('now')`,
				canonical, string(b)); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	return count, err
}

// DeleteCustomSynonym removes one canonical term from the overlay.
// Returns true if a row was deleted.
func (s *Store) DeleteCustomSynonym(ctx context.Context, canonical string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM custom_synonyms WHERE canonical_term = ?", canonical)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
