// Package manifest reads and patches the version key of an integration
// manifest.json without disturbing any other byte of the document.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/buger/jsonparser"
	"github.com/spf13/afero"

	"github.com/tbckr/stamp/internal/apperr"
)

// VersionKey is the top-level manifest key holding the integration version.
const VersionKey = "version"

// Manifest is a parsed manifest file. Raw keeps the original bytes so that
// SetVersion can patch in place.
type Manifest struct {
	Path    string
	Version string
	Raw     []byte
}

// Read loads and validates the manifest at path. A manifest without a version
// key is valid; Version is then empty.
func Read(fsys afero.Fs, path string) (*Manifest, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.Path = path
	return m, nil
}

// Parse validates data as a JSON object and extracts its version.
func Parse(data []byte) (*Manifest, error) {
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: not valid JSON", apperr.ErrManifest)
	}
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: top-level value must be an object", apperr.ErrManifest)
	}

	// Decoders disagree on which duplicate wins; Home Assistant takes the
	// last one while jsonparser patches the first.
	n, err := countKey(data, VersionKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrManifest, err)
	}
	if n > 1 {
		return nil, fmt.Errorf("%w: %q appears %d times at the top level", apperr.ErrManifest, VersionKey, n)
	}

	m := &Manifest{Raw: data}
	value, dataType, _, err := jsonparser.Get(data, VersionKey)
	switch {
	case errors.Is(err, jsonparser.KeyPathNotFoundError):
		return m, nil
	case err != nil:
		return nil, fmt.Errorf("%w: reading %q: %v", apperr.ErrManifest, VersionKey, err)
	case dataType != jsonparser.String:
		return nil, fmt.Errorf("%w: %q must be a string, got %s", apperr.ErrManifest, VersionKey, dataType)
	}

	version, err := jsonparser.ParseString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %q: %v", apperr.ErrManifest, VersionKey, err)
	}
	m.Version = version
	return m, nil
}

func countKey(data []byte, key string) (int, error) {
	n := 0
	err := jsonparser.ObjectEach(data, func(k, _ []byte, _ jsonparser.ValueType, _ int) error {
		if string(k) == key {
			n++
		}
		return nil
	})
	return n, err
}

// SetVersion returns a copy of the manifest bytes with the top-level version
// value replaced by version. Key order, indentation and every other value are
// left untouched. A missing version key is appended as the last member, laid
// out like the existing ones.
func (m *Manifest) SetVersion(version string) ([]byte, error) {
	encoded, err := json.Marshal(version)
	if err != nil {
		return nil, fmt.Errorf("encoding version: %w", err)
	}
	if m.Version == "" {
		if _, _, _, err := jsonparser.Get(m.Raw, VersionKey); errors.Is(err, jsonparser.KeyPathNotFoundError) {
			return appendMember(m.Raw, VersionKey, encoded), nil
		}
	}
	// jsonparser.Set may reuse the backing array of its input.
	src := bytes.Clone(m.Raw)
	out, err := jsonparser.Set(src, encoded, VersionKey)
	if err != nil {
		return nil, fmt.Errorf("%w: setting %q: %v", apperr.ErrManifest, VersionKey, err)
	}
	return out, nil
}

// appendMember inserts "key": value before the closing brace of the top-level
// object in data, which must be a valid JSON object. Pretty-printed documents
// get the new member on its own line with the indentation of the first one.
func appendMember(data []byte, key string, value []byte) []byte {
	open := bytes.IndexByte(data, '{')
	closing := bytes.LastIndexByte(data, '}')
	body := data[open+1 : closing]

	colon := ":"
	if bytes.Contains(data, []byte(`": `)) {
		colon = ": "
	}
	member := strconv.Quote(key) + colon + string(value)

	out := make([]byte, 0, len(data)+len(member)+16)
	if len(bytes.TrimSpace(body)) == 0 {
		out = append(out, data[:open+1]...)
		out = append(out, member...)
		return append(out, data[closing:]...)
	}

	// Lead whitespace of the first member decides the separator.
	lead := body[:len(body)-len(bytes.TrimLeft(body, " \t\r\n"))]
	sep := " "
	if i := bytes.LastIndexByte(lead, '\n'); i >= 0 {
		sep = "\n" + string(lead[i+1:])
	}

	// Insert right after the last member so trailing whitespace stays put.
	end := open + 1 + len(bytes.TrimRight(body, " \t\r\n"))
	out = append(out, data[:end]...)
	out = append(out, ',')
	out = append(out, sep...)
	out = append(out, member...)
	return append(out, data[end:]...)
}
