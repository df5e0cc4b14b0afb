package queue

// FirstNonEmpty returns the first non-empty string, or "" if all are
// empty.
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
