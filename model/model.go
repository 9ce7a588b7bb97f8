package model

// Summary holds the results of an operation for display.
type Summary struct {
	Created []string
	Updated []string
	Moved   []string
	Deleted []string
	Failed  []string
	Message string
}

// Total returns the number of files the operation touched.
func (s Summary) Total() int {
	return len(s.Created) + len(s.Updated) + len(s.Moved) + len(s.Deleted)
}

// Empty reports whether the summary carries nothing to display.
func (s Summary) Empty() bool {
	return s.Total() == 0 && len(s.Failed) == 0 && s.Message == ""
}
