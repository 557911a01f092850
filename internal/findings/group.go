package findings

// Group holds the findings of one file in aggregation order.
type Group struct {
	FilePath string
	Findings []Finding
}

// GroupByFile groups findings by FilePath. Groups appear in order of the first
// finding of each file and keep insertion order within a group.
func GroupByFile(list []Finding) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, f := range list {
		i, ok := index[f.FilePath]
		if !ok {
			i = len(groups)
			index[f.FilePath] = i
			groups = append(groups, Group{FilePath: f.FilePath})
		}
		groups[i].Findings = append(groups[i].Findings, f)
	}
	return groups
}
