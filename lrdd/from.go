package lrdd

// From builds rows from records, keying each row by the field at keyIndex.
// A negative keyIndex leaves rows unkeyed.
func From(keyIndex int, records ...[]string) (rows []*Row) {
	for _, rec := range records {
		row := Value(rec...)
		if keyIndex >= 0 {
			row.Key = row.Field(keyIndex)
		}
		rows = append(rows, row)
	}
	return
}
