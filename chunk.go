package tsvchunk

// Chunk accumulates whole groups until it is flushed into an output file.
type Chunk struct {
	Keys []string
	Rows int
}

// Add appends a group of the key having n rows.
func (c *Chunk) Add(key string, n int) {
	c.Keys = append(c.Keys, key)
	c.Rows += n
}

func (c *Chunk) Empty() bool {
	return len(c.Keys) == 0
}

// Fits reports whether a group of n rows can be added without exceeding maxRows.
// Any group fits into an empty chunk.
func (c *Chunk) Fits(n, maxRows int) bool {
	return c.Empty() || c.Rows+n <= maxRows
}

// Oversized reports whether the chunk is a single group larger than maxRows.
func (c *Chunk) Oversized(maxRows int) bool {
	return len(c.Keys) == 1 && c.Rows > maxRows
}

// Reset empties the chunk. Keys of the chunk are not reused.
func (c *Chunk) Reset() {
	c.Keys = nil
	c.Rows = 0
}
