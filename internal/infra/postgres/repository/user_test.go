package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type execOnlyDB struct {
	tag string
	err error
}

func (db execOnlyDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(db.tag), db.err
}

func (db execOnlyDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (db execOnlyDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return fakeRow{err: errors.New("not implemented")}
}

func TestDeactivate(t *testing.T) {
	ctx := context.Background()

	require.NoError(t, NewUserRepository(execOnlyDB{tag: "UPDATE 1"}).Deactivate(ctx, 1))

	err := NewUserRepository(execOnlyDB{tag: "UPDATE 0"}).Deactivate(ctx, 1)
	assert.ErrorIs(t, err, ErrUserNotFound)

	err = NewUserRepository(execOnlyDB{err: errors.New("conn closed")}).Deactivate(ctx, 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUserNotFound)
}
