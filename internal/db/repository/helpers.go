// Package repository implements the domain repositories on the SQLite metastore.
package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/populationgenomics/seqr/internal/domain"
)

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func mapDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound("resource not found")
	}
	if strings.Contains(err.Error(), "CHECK constraint failed") {
		return domain.ErrValidation("invalid value: %v", err)
	}
	return err
}

// placeholders returns n comma separated bind markers.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
