package phonemize

// Chunks splits lines into at most n chunks for parallel dispatch, returning
// each chunk with the index of its first line in the original slice. The
// first m-1 chunks have equal size; the last one takes the remainder and can
// be longer.
func Chunks(lines []string, n int) ([][]string, []int) {
	if len(lines) == 0 {
		return nil, nil
	}
	if n < 1 {
		n = 1
	}

	size := len(lines) / n
	if size < 1 {
		size = 1
	}
	m := min(n, len(lines))

	var chunks [][]string
	var offsets []int
	for i := 0; i < m-1; i++ {
		chunks = append(chunks, lines[i*size:(i+1)*size])
		offsets = append(offsets, i*size)
	}
	if last := lines[(m-1)*size:]; len(last) > 0 {
		chunks = append(chunks, last)
		offsets = append(offsets, (m-1)*size)
	}
	return chunks, offsets
}
