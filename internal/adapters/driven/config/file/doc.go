// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - PromptStore: User-editable prompt templates with embedded defaults
//   - LoadTaxonomy: TOML or YAML taxonomy definitions
package file

// DefaultDirName is the directory under the user's home holding doctag's files.
const DefaultDirName = ".doctag"
