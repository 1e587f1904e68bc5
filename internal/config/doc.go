// Package config loads lifter's ini configuration and resolves each section
// into an EntrySpec.
//
// # File layout
//
// Every section except DEFAULT names one tracked artifact. Sections whose
// name starts with "template:" declare reusable field sets:
//
//	[template:github_release]
//	page_url = https://github.com/{project}/releases
//	anchor_tag = html main div.Box a
//	version_tag = html main div.Box h1
//
//	[ripgrep]
//	template = github_release
//	project = BurntSushi/ripgrep
//	anchor_text = ripgrep-(\d+\.\d+\.\d+)-x86_64-unknown-linux-musl.tar.gz
//	target_filename_to_extract_from_archive = rg
//	version = 13.0.0
//
// Inline comments and line continuations are disabled so regular
// expressions containing '#', ';' or a trailing backslash survive.
//
// # Substitution
//
// Field values may reference other fields as {name}. Template values are
// substituted against the section's raw fields; section values against the
// merged result. Platform values (os, arch, platform, family) are available
// at the lowest precedence. Only identifiers are placeholders, so regex
// quantifiers such as \d{1,3} are left alone; {{ and }} produce literal
// braces.
//
// # Version record
//
// Store.SetVersion is the only writer. It re-reads the file under an
// in-process mutex and a lock file beside the store, sets one key, and
// replaces the file atomically.
package config
