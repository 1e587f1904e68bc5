package config

// Section prefixes and ini keys recognised in the version-record store.
const (
	// TemplatePrefix marks a section as a template rather than a tracked artifact.
	TemplatePrefix = "template:"

	KeyTemplate        = "template"
	KeyPageURL         = "page_url"
	KeyAnchorTag       = "anchor_tag"
	KeyAnchorText      = "anchor_text"
	KeyVersionTag      = "version_tag"
	KeyArchiveMember   = "target_filename_to_extract_from_archive"
	KeyDesiredFilename = "desired_filename"
	KeyVersion         = "version"
	KeyMethod          = "method"
	KeyChecksumSuffix  = "checksum_suffix"
	KeySignatureSuffix = "signature_suffix"
	KeyKeyring         = "keyring"
)
