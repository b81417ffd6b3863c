// Package graph parses the textual volume specification, instantiates
// typed translators, resolves the tree, and drives init/notify.
package graph

import "github.com/pkg/errors"

// VolumeSpec is one parsed `volume ... end-volume` block.
type VolumeSpec struct {
	Name       string
	Type       string
	Options    []OptionSpec
	Subvolumes []string
}

// OptionSpec is one `option key value` line, kept ordered because later
// duplicate keys within the same file-level block shadow earlier ones,
// the same shadowing rule command-line overrides apply to file-level
// options, applied transitively to the file itself.
type OptionSpec struct {
	Key   string
	Value string
}

// OptionOverride is a parsed `<vol>.<key>=<value>` command-line override.
type OptionOverride struct {
	Volume string
	Key    string
	Value  string
}

// ErrUnresolvedSubvolume is returned when a subvolumes reference does not
// name a previously declared volume.
var ErrUnresolvedSubvolume = errors.New("graph: subvolumes reference does not resolve to a previously declared volume")
