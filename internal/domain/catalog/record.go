package catalog

// RawRecord is one record as returned by the remote tabular catalog
// provider. The field set is not fixed in advance.
type RawRecord struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// FieldMeta describes one remote field's declared name and type.
type FieldMeta struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// AttachmentDescriptor references a remote binary asset: a bare URL or
// a {url, filename} pair.
type AttachmentDescriptor struct {
	URL      string `json:"url"`
	Filename string `json:"filename,omitempty"`
}
