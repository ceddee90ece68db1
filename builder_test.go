package orm

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alqosama35/orm/qb"
)

func TestBuilderToSQL(t *testing.T) {
	tests := []struct {
		name     string
		dialect  *Dialect
		build    func(b *Builder) *Builder
		wantSQL  string
		wantArgs []Value
	}{
		{
			name:    "bare select",
			dialect: MySQL,
			build:   func(b *Builder) *Builder { return b },
			wantSQL: "SELECT * FROM `widgets`",
		},
		{
			name:    "where or order limit offset",
			dialect: MySQL,
			build: func(b *Builder) *Builder {
				return b.Where("name", "=", String("Vase")).
					OrWhere("qty", ">", Int(2)).
					OrderBy("qty", "DESC").
					OrderBy("name").
					Limit(10).
					Offset(20)
			},
			wantSQL:  "SELECT * FROM `widgets` WHERE `name` = ? OR `qty` > ? ORDER BY `qty` DESC, `name` ASC LIMIT 10 OFFSET 20",
			wantArgs: []Value{String("Vase"), Int(2)},
		},
		{
			name:    "or where null binds nothing",
			dialect: MySQL,
			build: func(b *Builder) *Builder {
				return b.Where("qty", ">", Int(0)).OrWhereNull("price").WhereNotNull("name")
			},
			wantSQL:  "SELECT * FROM `widgets` WHERE `qty` > ? OR `price` IS NULL AND `name` IS NOT NULL",
			wantArgs: []Value{Int(0)},
		},
		{
			name:    "null comparison becomes is null",
			dialect: MySQL,
			build: func(b *Builder) *Builder {
				return b.Where("price", "=", Null()).OrWhere("name", "!=", Null())
			},
			wantSQL: "SELECT * FROM `widgets` WHERE `price` IS NULL OR `name` IS NOT NULL",
		},
		{
			name:    "first predicate added with or",
			dialect: MySQL,
			build: func(b *Builder) *Builder {
				return b.OrWhere("name", "like", String("%vase%"))
			},
			wantSQL:  "SELECT * FROM `widgets` WHERE `name` LIKE ?",
			wantArgs: []Value{String("%vase%")},
		},
		{
			name:    "columns and joins",
			dialect: MySQL,
			build: func(b *Builder) *Builder {
				return b.Select("widgets.*", "makers.name").
					Join("makers", "widgets.maker_id", "=", "makers.id").
					LeftJoin("stock", "stock.widget_id", "=", "widgets.id").
					Where("makers.name", "<>", String("Acme"))
			},
			wantSQL: "SELECT `widgets`.*, `makers`.`name` FROM `widgets`" +
				" INNER JOIN `makers` ON `widgets`.`maker_id` = `makers`.`id`" +
				" LEFT JOIN `stock` ON `stock`.`widget_id` = `widgets`.`id`" +
				" WHERE `makers`.`name` <> ?",
			wantArgs: []Value{String("Acme")},
		},
		{
			name:    "postgres placeholders",
			dialect: Postgres,
			build: func(b *Builder) *Builder {
				return b.Where("name", "=", String("Vase")).Where("qty", "<=", Int(4)).Limit(1)
			},
			wantSQL:  `SELECT * FROM "widgets" WHERE "name" = $1 AND "qty" <= $2 LIMIT 1`,
			wantArgs: []Value{String("Vase"), Int(4)},
		},
		{
			name:    "prebuilt predicates",
			dialect: MySQL,
			build: func(b *Builder) *Builder {
				return b.WhereExpr(
					qb.Gt("qty", 2),
					qb.Like("name", "vase").Or(),
					qb.NotNull("price"),
					qb.Eq("price", nil),
				).OrderBy("price", "desc")
			},
			wantSQL:  "SELECT * FROM `widgets` WHERE `qty` > ? OR `name` LIKE ? AND `price` IS NOT NULL AND `price` IS NULL ORDER BY `price` DESC",
			wantArgs: []Value{Int(2), String("%vase%")},
		},
		{
			name:    "limit zero is rendered",
			dialect: SQLite,
			build:   func(b *Builder) *Builder { return b.Limit(0) },
			wantSQL: `SELECT * FROM "widgets" LIMIT 0`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newMock(t, tt.dialect)

			sql, args, err := tt.build(NewBuilder(m, widgetSchema())).ToSQL()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			if tt.wantArgs == nil {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}

func TestBuilderInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *Builder) *Builder
		field string
		is    error
	}{
		{
			name:  "unknown operator",
			build: func(b *Builder) *Builder { return b.Where("qty", "IN", Int(1)) },
			field: "qty",
			is:    qb.ErrOperator,
		},
		{
			name:  "injected column",
			build: func(b *Builder) *Builder { return b.Where("qty = 1 OR 1", "=", Int(1)) },
			field: "qty = 1 OR 1",
			is:    qb.ErrColumn,
		},
		{
			name:  "bad null column",
			build: func(b *Builder) *Builder { return b.WhereNull("price;") },
			field: "price;",
			is:    qb.ErrColumn,
		},
		{
			name:  "bad order column",
			build: func(b *Builder) *Builder { return b.OrderBy("qty desc") },
			field: "qty desc",
			is:    qb.ErrColumn,
		},
		{
			name:  "bad order direction",
			build: func(b *Builder) *Builder { return b.OrderBy("qty", "sideways") },
			field: "qty",
		},
		{
			name: "prebuilt predicate with bad operator",
			build: func(b *Builder) *Builder {
				return b.WhereExpr(qb.Predicate{Column: "price", Op: "IS MAYBE", NoArg: true})
			},
			field: "price",
			is:    qb.ErrOperator,
		},
		{
			name:  "prebuilt predicate with unbindable value",
			build: func(b *Builder) *Builder { return b.WhereExpr(qb.Eq("qty", struct{}{})) },
			field: "qty",
		},
		{
			name:  "bad join",
			build: func(b *Builder) *Builder { return b.Join("makers m", "a", "=", "b") },
			is:    qb.ErrColumn,
		},
		{
			name:  "negative limit",
			build: func(b *Builder) *Builder { return b.Limit(-1) },
		},
		{
			name: "first error wins",
			build: func(b *Builder) *Builder {
				return b.Where("qty", "~", Int(1)).Where("bad col", "=", Int(1))
			},
			field: "qty",
			is:    qb.ErrOperator,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// no expectations: any statement reaching the mock fails the test
			m, _ := newMock(t, MySQL)
			b := tt.build(NewBuilder(m, widgetSchema()))

			_, _, err := b.ToSQL()
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, "widgets", ve.Table)
			assert.Equal(t, tt.field, ve.Field)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}

			_, err = b.Get(context.Background())
			assert.ErrorAs(t, err, &ve)

			_, err = b.Count(context.Background())
			assert.ErrorAs(t, err, &ve)
		})
	}
}

func TestBuilderGet(t *testing.T) {
	m, mock := newMock(t, MySQL)

	mock.ExpectQuery("SELECT * FROM `widgets` WHERE `qty` >= ? ORDER BY `name` ASC").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "qty", "price"}).
			AddRow(int64(1), []byte("Lamp"), []byte("4"), nil).
			AddRow(int64(2), []byte("Vase"), []byte("3"), []byte("19.95")))

	records, err := NewModel(m, widgetSchema()).
		Where("qty", ">=", Int(2)).
		OrderBy("name").
		Get(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	for _, r := range records {
		assert.True(t, r.Exists())
		assert.False(t, r.IsDirty())
	}

	assert.True(t, Int(1).Equal(records[0].ID()))
	assert.True(t, String("Lamp").Equal(records[0].Get("name")))
	assert.True(t, Int(4).Equal(records[0].Get("qty")))
	assert.True(t, records[0].Get("price").IsNull())
	assert.True(t, Float(19.95).Equal(records[1].Get("price")))
}

func TestBuilderFirst(t *testing.T) {
	m, mock := newMock(t, MySQL)

	mock.ExpectQuery("SELECT * FROM `widgets` WHERE `name` = ? LIMIT 1").
		WithArgs("Nope").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "qty"}))

	r, err := NewModel(m, widgetSchema()).Where("name", "=", String("Nope")).First(context.Background())
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestBuilderCountIgnoresPaging(t *testing.T) {
	m, mock := newMock(t, MySQL)

	mock.ExpectQuery("SELECT COUNT(*) FROM `widgets` WHERE `qty` > ?").
		WithArgs(0).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(int64(4)))

	q := NewModel(m, widgetSchema()).
		Where("qty", ">", Int(0)).
		OrderBy("name").
		Limit(5).
		Offset(10)

	n, err := q.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	sql, _, err := q.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM `widgets` WHERE `qty` > ? ORDER BY `name` ASC LIMIT 5 OFFSET 10", sql)
}

func TestBuilderSum(t *testing.T) {
	t.Run("decimal text", func(t *testing.T) {
		m, mock := newMock(t, MySQL)
		mock.ExpectQuery("SELECT SUM(`price`) FROM `widgets` WHERE `qty` > ?").
			WithArgs(0).
			WillReturnRows(sqlmock.NewRows([]string{"SUM(`price`)"}).AddRow([]byte("12.50")))

		total, err := NewModel(m, widgetSchema()).Where("qty", ">", Int(0)).Limit(1).Sum(context.Background(), "price")
		require.NoError(t, err)
		assert.Equal(t, 12.5, total)
	})

	t.Run("no rows sum to zero", func(t *testing.T) {
		m, mock := newMock(t, MySQL)
		mock.ExpectQuery("SELECT SUM(`qty`) FROM `widgets`").
			WillReturnRows(sqlmock.NewRows([]string{"SUM(`qty`)"}).AddRow(nil))

		total, err := NewModel(m, widgetSchema()).Sum(context.Background(), "qty")
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("invalid column", func(t *testing.T) {
		m, _ := newMock(t, MySQL)

		_, err := NewModel(m, widgetSchema()).Sum(context.Background(), "qty) FROM users --")
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.ErrorIs(t, err, qb.ErrColumn)
	})
}

func TestBuilderQueryError(t *testing.T) {
	m, mock := newMock(t, MySQL)

	mock.ExpectQuery("SELECT * FROM `widgets`").WillReturnError(errors.New("table doesn't exist"))

	_, err := NewModel(m, widgetSchema()).All(context.Background())

	var se *StatementError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "select", se.Op)
	assert.Equal(t, "widgets", se.Table)
	assert.Equal(t, "SELECT * FROM `widgets`", se.SQL)
	assert.Contains(t, err.Error(), "table doesn't exist")
}

func TestBuilderWrites(t *testing.T) {
	m, _ := newMock(t, Postgres)

	a := NewAttributes()
	a.Set("name", String("Vase"))
	a.Set("qty", Int(3))

	sql, args, err := NewBuilder(m, widgetSchema()).Insert(a, a.Keys())
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "widgets" ("name", "qty") VALUES ($1, $2)`, sql)
	assert.Equal(t, []Value{String("Vase"), Int(3)}, args)

	sql, args, err = NewBuilder(m, widgetSchema()).Where("id", "=", Int(7)).Update(a, []string{"qty"})
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "widgets" SET "qty" = $1 WHERE "id" = $2`, sql)
	assert.Equal(t, []Value{Int(3), Int(7)}, args)

	sql, args, err = NewBuilder(m, widgetSchema()).Where("id", "=", Int(7)).Delete()
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "widgets" WHERE "id" = $1`, sql)
	assert.Equal(t, []Value{Int(7)}, args)

	_, _, err = NewBuilder(m, widgetSchema()).Update(a, []string{"qty"})
	assert.ErrorIs(t, err, errNoWhere)

	_, _, err = NewBuilder(m, widgetSchema()).Delete()
	assert.ErrorIs(t, err, errNoWhere)
}

func TestBuilderGetWithJoinKeepsBaseColumns(t *testing.T) {
	ctx := context.Background()
	m, mock := newMock(t, MySQL)

	mock.ExpectQuery("SELECT * FROM `widgets` INNER JOIN `makers` ON `widgets`.`maker_id` = `makers`.`id` WHERE `widgets`.`id` = ? LIMIT 1").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "qty", "maker_id", "id", "name"}).
			AddRow(int64(1), "Vase", int64(10), int64(2), int64(2), "Acme"))
	mock.ExpectExec("UPDATE `widgets` SET `qty` = ? WHERE `id` = ?").
		WithArgs(99, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	r, err := NewModel(m, widgetSchema()).Query().
		Join("makers", "widgets.maker_id", "=", "makers.id").
		Where("widgets.id", "=", Int(1)).
		First(ctx)
	require.NoError(t, err)
	require.NotNil(t, r)

	assert.True(t, Int(1).Equal(r.ID()))
	assert.True(t, String("Vase").Equal(r.Get("name")))

	require.NoError(t, r.Set("qty", Int(99)))
	require.NoError(t, r.Save(ctx))
}
