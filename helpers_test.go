package orm

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMock returns a Manager over sqlmock matching statements exactly. Unmet
// expectations fail the test at cleanup.
func newMock(t *testing.T, d *Dialect, opts ...Option) (*Manager, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})

	opts = append([]Option{WithLogger(zerolog.Nop())}, opts...)
	return Open(db, d, opts...), mock
}

func widgetSchema() *Schema {
	return NewSchema("widgets",
		Field{Name: "name", Kind: KindString},
		Field{Name: "qty", Kind: KindInt},
		Field{Name: "price", Kind: KindFloat, Nullable: true},
	)
}

func visitorSchema() *Schema {
	return NewSchema("visitors",
		Field{Name: "id", Kind: KindString},
		Field{Name: "name", Kind: KindString},
	)
}

func bookingSchema(visitors *Schema) *Schema {
	return NewSchema("bookings",
		Field{Name: "visitor_id", Kind: KindString, Nullable: true},
		Field{Name: "seats", Kind: KindInt},
	).BelongsTo("visitor", visitors)
}
