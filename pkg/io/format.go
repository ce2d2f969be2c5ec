package io

import (
	"path/filepath"
	"strings"

	"github.com/matzehuels/bandorder/pkg/errors"
)

// Format names a graph file format.
type Format string

const (
	FormatJSON         Format = "json"
	FormatEdgeList     Format = "edgelist"
	FormatMatrixMarket Format = "mtx"
)

// Formats lists the supported graph formats.
var Formats = []Format{FormatJSON, FormatEdgeList, FormatMatrixMarket}

var formatByExt = map[string]Format{
	".json":     FormatJSON,
	".txt":      FormatEdgeList,
	".el":       FormatEdgeList,
	".edges":    FormatEdgeList,
	".edgelist": FormatEdgeList,
	".mtx":      FormatMatrixMarket,
}

// ParseFormat validates a format name. Matching is case-insensitive.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatJSON, FormatEdgeList, FormatMatrixMarket:
		return f, nil
	}
	return "", errors.New(errors.ErrCodeUnsupported, "unknown graph format %q (want json, edgelist or mtx)", s)
}

// DetectFormat infers the format of path from its extension.
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := formatByExt[ext]; ok {
		return f, nil
	}
	return "", errors.New(errors.ErrCodeUnsupported, "cannot detect graph format of %s; use --format", filepath.Base(path))
}
