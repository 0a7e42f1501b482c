package types

// Config is a docset configuration as loaded from docset.yml.
//
// Extend lists configuration fragments merged into the docset before the
// rest of the document is interpreted; remote entries must be restored to
// the cache first. References lists external dependencies and may mix
// remote URLs, git hrefs, and local paths.
type Config struct {
	Name       string   `yaml:"name"`
	Extend     []string `yaml:"extend"`
	References []string `yaml:"references"`
}

// GitRef is a parsed git reference string.
type GitRef struct {
	// Href is the original reference string, including any #ref fragment.
	Href string
	// URL is the clone URL with the fragment stripped.
	URL string
	// Ref is the branch or tag named by the fragment; empty means the
	// remote default branch.
	Ref string
}
