package types

// LockRecordVersion is the current docset.lock schema version.
const LockRecordVersion = 1

// LockRecord is the persisted outcome of restoring one docset: the
// resolved URL and git mappings. A written record is sufficient to
// re-extend the docset's configuration without network access.
type LockRecord struct {
	Version     int               `yaml:"version"`
	GeneratedAt string            `yaml:"generated_at"`
	URLs        map[string]string `yaml:"urls,omitempty"`
	Git         map[string]string `yaml:"git,omitempty"`
}
