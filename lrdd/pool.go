package lrdd

import "github.com/ab180/tsvchunk/internal/pool"

// GetRows returns a pooled row batch with zero length and at least given capacity.
func GetRows(capacity int) *[]*Row {
	rows := rowsPool.Get()
	if cap(*rows) < capacity {
		*rows = make([]*Row, 0, capacity)
	}
	return rows
}

// PutRows releases the batch back to the pool. Rows in the batch are not reused.
func PutRows(rows *[]*Row) {
	rowsPool.ResetAndPut(rows)
}

var rowsPool = pool.NewWithResetter(
	func() *[]*Row {
		return &[]*Row{}
	},
	func(rows **[]*Row) {
		for i := range **rows {
			(**rows)[i] = nil
		}
		**rows = (**rows)[:0]
	},
)
