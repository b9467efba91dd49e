package domain

// Artifact is an immutable build output exchanged between stages.
// Once stored it is only ever overwritten by a fresh run of its
// producer stage; downstream stages consume it read-only.
type Artifact struct {
	Name     string `json:"name"`
	Content  []byte `json:"-"`
	Producer string `json:"producer"`
	Checksum string `json:"checksum"`
}

// ArtifactInfo is the metadata of a stored artifact, without its content.
type ArtifactInfo struct {
	Name     string `json:"name"`
	Producer string `json:"producer"`
	Checksum string `json:"checksum"`
	Size     int64  `json:"size"`
}
