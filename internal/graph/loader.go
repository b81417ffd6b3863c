package graph

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/volgraph/volgraph/internal/dict"
	"github.com/volgraph/volgraph/internal/xlator"
)

// Options configure a single Load call.
type Options struct {
	// VolumeName overrides which declared volume becomes the graph's top
	// translator; defaults to the last declared volume.
	VolumeName string
	// Overrides are command-line --xlator-option arguments, applied after
	// file-level options, shadowing them.
	Overrides []OptionOverride
	Logger    *logrus.Logger
}

// Load parses r, instantiates typed translators for every declared volume,
// wires parent/child links per subvolumes references, and returns the top
// translator. It does not call Init — see InitGraph.
func Load(r io.Reader, opts Options) (xlator.Translator, error) {
	specs, err := Parse(r)
	if err != nil {
		return nil, err
	}
	return Build(specs, opts)
}

// Build turns parsed volume specs into a wired translator tree without
// touching a reader, letting callers construct VolumeSpec slices directly
// (used by tests and by the spec-fetch subsystem's minimal two-node graph).
func Build(specs []VolumeSpec, opts Options) (xlator.Translator, error) {
	if len(specs) == 0 {
		return nil, errors.New("graph: no volumes declared")
	}

	byName := make(map[string]VolumeSpec, len(specs))
	order := make([]string, 0, len(specs))
	for _, s := range specs {
		if _, dup := byName[s.Name]; dup {
			return nil, errors.Errorf("graph: duplicate volume name %q", s.Name)
		}
		byName[s.Name] = s
		order = append(order, s.Name)
	}

	// every subvolumes reference must resolve to a previously declared
	// volume.
	seen := make(map[string]bool, len(specs))
	for _, name := range order {
		seen[name] = true
		for _, sub := range byName[name].Subvolumes {
			if !seen[sub] {
				return nil, errors.Wrapf(ErrUnresolvedSubvolume, "volume %q references %q", name, sub)
			}
		}
	}

	overridesByVolume := make(map[string][]OptionOverride)
	for _, o := range opts.Overrides {
		overridesByVolume[o.Volume] = append(overridesByVolume[o.Volume], o)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}

	built := make(map[string]xlator.Translator, len(specs))
	for _, name := range order {
		spec := byName[name]
		if !xlator.Known(spec.Type) {
			return nil, errors.Errorf("graph: volume %q has unknown translator type %q", name, spec.Type)
		}

		optDict := dict.New()
		for _, o := range spec.Options {
			optDict.SetString(o.Key, o.Value)
		}
		for _, o := range overridesByVolume[name] {
			optDict.SetString(o.Key, o.Value) // file-level options shadowed by cmdline overrides
		}

		t, err := xlator.New(spec.Type, name, optDict, logger)
		if err != nil {
			return nil, errors.Wrapf(err, "graph: constructing volume %q", name)
		}
		built[name] = t
	}

	for _, name := range order {
		for _, sub := range byName[name].Subvolumes {
			xlator.Link(built[name], built[sub])
		}
	}

	topName := opts.VolumeName
	if topName == "" {
		topName = order[len(order)-1]
	}
	top, ok := built[topName]
	if !ok {
		return nil, errors.Errorf("graph: volume-name override %q does not name a declared volume", topName)
	}
	return top, nil
}

// InitGraph walks the graph in post-order (leaves first), calling Init on
// each translator. On any failure the walk stops and already-initialized
// translators have Fini called in reverse order.
func InitGraph(root xlator.Translator) error {
	var initialized []xlator.Translator
	var walk func(t xlator.Translator) error
	walk = func(t xlator.Translator) error {
		for _, c := range xlator.Children(t) {
			if err := walk(c); err != nil {
				return err
			}
		}
		if err := t.Init(); err != nil {
			return errors.Wrapf(err, "graph: init failed for volume %q", t.Name())
		}
		t.SetReady(true)
		initialized = append(initialized, t)
		return nil
	}

	if err := walk(root); err != nil {
		for i := len(initialized) - 1; i >= 0; i-- {
			if finiErr := initialized[i].Fini(); finiErr != nil {
				root.Log().WithError(finiErr).Warn("graph: fini failed while unwinding partial init")
			}
		}
		return err
	}
	return nil
}

// FiniGraph releases every translator's private state in reverse
// post-order, used on clean shutdown.
func FiniGraph(root xlator.Translator) {
	var order []xlator.Translator
	var walk func(t xlator.Translator)
	walk = func(t xlator.Translator) {
		for _, c := range xlator.Children(t) {
			walk(c)
		}
		order = append(order, t)
	}
	walk(root)
	for i := len(order) - 1; i >= 0; i-- {
		if err := order[i].Fini(); err != nil {
			order[i].Log().WithError(err).Warn("graph: fini failed")
		}
	}
}
