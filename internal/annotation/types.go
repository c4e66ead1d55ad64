package annotation

// Block is one annotated span of source lines.
type Block struct {
	Spec      string `json:"specification"`
	Source    string `json:"source"`
	FilePath  string `json:"filePath"`
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine"`
}

// Rule is a named group of blocks. Block order is discovery order.
type Rule struct {
	Name   string  `json:"name"`
	Blocks []Block `json:"blocks"`
}

// FilePaths returns the distinct file paths referenced by the rule's blocks,
// in first-seen order.
func (r Rule) FilePaths() []string {
	seen := make(map[string]bool)
	var paths []string
	for _, b := range r.Blocks {
		if !seen[b.FilePath] {
			seen[b.FilePath] = true
			paths = append(paths, b.FilePath)
		}
	}
	return paths
}
