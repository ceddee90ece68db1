package orm

import "errors"

// annotate fills in the operation, table and key on statement and integrity
// errors that left the executor without that context.
func annotate(err error, op, table string, key Value) error {
	var se *StatementError
	if errors.As(err, &se) {
		if se.Op == "" || se.Op == "exec" || se.Op == "query" {
			se.Op = op
		}
		se.Table = table
		if se.Key.IsNull() {
			se.Key = key
		}
		return err
	}

	var ie *IntegrityError
	if errors.As(err, &ie) {
		ie.Op = op
		ie.Table = table
		if ie.Key.IsNull() {
			ie.Key = key
		}
	}
	return err
}
