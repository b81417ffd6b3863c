package graph

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Parse reads the volume specification grammar:
//
//	volume NAME
//	    type TYPE
//	    option KEY VALUE
//	    subvolumes NAME1 NAME2 ...
//	end-volume
//
// blocks, arbitrarily nested by reference, comments beginning with '#',
// whitespace insignificant between tokens. No general parser-combinator
// library from the retrieval pack targets this exact line-oriented,
// block-delimited shape (the nearest analogues — rclone's INI-style
// fs/config — are key=value, not space-separated multi-token lines), so
// this is a small hand-written scanner; see DESIGN.md for the stdlib
// justification.
func Parse(r io.Reader) ([]VolumeSpec, error) {
	scanner := bufio.NewScanner(r)
	var specs []VolumeSpec
	var cur *VolumeSpec
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		keyword := fields[0]

		switch keyword {
		case "volume":
			if cur != nil {
				return nil, errors.Errorf("graph: line %d: nested volume without end-volume", lineNo)
			}
			if len(fields) != 2 {
				return nil, errors.Errorf("graph: line %d: volume expects exactly one name", lineNo)
			}
			cur = &VolumeSpec{Name: fields[1]}
		case "end-volume":
			if cur == nil {
				return nil, errors.Errorf("graph: line %d: end-volume without matching volume", lineNo)
			}
			if cur.Type == "" {
				return nil, errors.Errorf("graph: line %d: volume %q declared no type", lineNo, cur.Name)
			}
			specs = append(specs, *cur)
			cur = nil
		case "type":
			if cur == nil {
				return nil, errors.Errorf("graph: line %d: type outside volume block", lineNo)
			}
			if len(fields) != 2 {
				return nil, errors.Errorf("graph: line %d: type expects exactly one value", lineNo)
			}
			cur.Type = fields[1]
		case "option":
			if cur == nil {
				return nil, errors.Errorf("graph: line %d: option outside volume block", lineNo)
			}
			if len(fields) < 3 {
				return nil, errors.Errorf("graph: line %d: option expects a key and a value", lineNo)
			}
			cur.Options = append(cur.Options, OptionSpec{
				Key:   fields[1],
				Value: strings.Join(fields[2:], " "),
			})
		case "subvolumes":
			if cur == nil {
				return nil, errors.Errorf("graph: line %d: subvolumes outside volume block", lineNo)
			}
			cur.Subvolumes = append(cur.Subvolumes, fields[1:]...)
		default:
			return nil, errors.Errorf("graph: line %d: unrecognized keyword %q", lineNo, keyword)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "graph: scanning volume spec")
	}
	if cur != nil {
		return nil, errors.Errorf("graph: unterminated volume block %q", cur.Name)
	}
	return specs, nil
}

// ParseOverride parses one `<vol>.<key>=<value>` command-line
// --xlator-option argument.
func ParseOverride(s string) (OptionOverride, error) {
	eq := strings.IndexByte(s, '=')
	if eq < 0 {
		return OptionOverride{}, errors.Errorf("graph: malformed xlator-option %q, expected VOL.KEY=VALUE", s)
	}
	left, value := s[:eq], s[eq+1:]
	dot := strings.IndexByte(left, '.')
	if dot < 0 {
		return OptionOverride{}, errors.Errorf("graph: malformed xlator-option %q, expected VOL.KEY=VALUE", s)
	}
	return OptionOverride{Volume: left[:dot], Key: left[dot+1:], Value: value}, nil
}
