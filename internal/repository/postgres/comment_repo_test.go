package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"communityevents/internal/domain"
)

var commentCols = []string{"id", "event_id", "user_id", "user_name", "text", "score", "created_at"}

func TestCommentRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts and mints an id", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewCommentRepository(db)

		c := domain.NewComment("ev-1", "u-1", "Ana", "buen evento", 5, time.Now())
		mock.ExpectExec(`INSERT INTO comments`).
			WithArgs(sqlmock.AnyArg(), "ev-1", "u-1", "Ana", "buen evento", 5, c.CreatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Create(ctx, c))
		assert.NotEmpty(t, c.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation maps to duplicate comment", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewCommentRepository(db)

		mock.ExpectExec(`INSERT INTO comments`).
			WillReturnError(&pq.Error{Code: "23505"})

		c := domain.NewComment("ev-1", "u-1", "Ana", "otra vez", 4, time.Now())
		require.ErrorIs(t, repo.Create(ctx, c), domain.ErrDuplicateComment)
	})
}

func TestCommentRepository_ListByEventID(t *testing.T) {
	ctx := context.Background()
	db, mock := newMock(t)
	repo := NewCommentRepository(db)

	now := time.Now()
	mock.ExpectQuery(`SELECT .+ FROM comments\s+WHERE event_id = \$1\s+ORDER BY created_at DESC`).
		WithArgs("ev-1").
		WillReturnRows(sqlmock.NewRows(commentCols).
			AddRow("c-2", "ev-1", "u-2", "Luis", "más reciente", 4, now).
			AddRow("c-1", "ev-1", "u-1", "Ana", "más antiguo", 5, now.Add(-time.Hour)))

	comments, err := repo.ListByEventID(ctx, "ev-1")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "más reciente", comments[0].Text)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepository_HasCommentByUser(t *testing.T) {
	ctx := context.Background()
	db, mock := newMock(t)
	repo := NewCommentRepository(db)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("ev-1", "u-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.HasCommentByUser(ctx, "ev-1", "u-1")
	require.NoError(t, err)
	assert.True(t, exists)
}
