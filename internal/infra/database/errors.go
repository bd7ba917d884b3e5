package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgInvalidText         = "22P02"
)

var (
	ErrDuplicate      = errors.New("record already exists")
	ErrUnknownLead    = errors.New("referenced lead does not exist")
	ErrCheckViolation = errors.New("value rejected by database constraint")
)

// pgCode extrai o SQLSTATE independente do driver (pgx ou lib/pq).
func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// classify troca violações conhecidas por erros do pacote, mantendo a causa.
func classify(err error) error {
	if err == nil {
		return nil
	}
	switch pgCode(err) {
	case pgUniqueViolation:
		return errors.Join(ErrDuplicate, err)
	case pgForeignKeyViolation:
		return errors.Join(ErrUnknownLead, err)
	case pgCheckViolation:
		return errors.Join(ErrCheckViolation, err)
	}
	return err
}
