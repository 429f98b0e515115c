package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/tbckr/stamp/internal/fsx"
	"github.com/tbckr/stamp/internal/projdir"
)

// AliasKey is the top-level mapping in .stamp.yaml that holds command aliases.
const AliasKey = "alias"

// ErrAliasNotFound is returned when deleting an alias that is not defined.
var ErrAliasNotFound = errors.New("alias not found")

// SetValue writes key=value into the config file at path, keeping every other
// key in the file (including hand-written targets lists) untouched. It reads
// only what is already in the file, never the effective config, so a fresh
// file gets just the one key.
func SetValue(fsys afero.Fs, path, key string, value any) error {
	return editFile(fsys, path, true, func(top *yaml.Node) error {
		valNode, err := encodeNode(key, value)
		if err != nil {
			return err
		}
		setKey(top, key, valNode)
		return nil
	})
}

// LoadAliases returns the aliases defined in the config file at path. A
// missing file has no aliases. Alias names keep their case, which viper would
// fold.
func LoadAliases(fsys afero.Fs, path string) (map[string]string, error) {
	aliases := map[string]string{}
	data, err := afero.ReadFile(fsys, path)
	if errors.Is(err, os.ErrNotExist) {
		return aliases, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var raw struct {
		Alias map[string]string `yaml:"alias"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing aliases in %s: %w", path, err)
	}
	for name, expansion := range raw.Alias {
		aliases[name] = expansion
	}
	return aliases, nil
}

// SetAlias creates or replaces alias name in the config file at path.
func SetAlias(fsys afero.Fs, path, name, expansion string) error {
	return editFile(fsys, path, true, func(top *yaml.Node) error {
		aliases := lookupKey(top, AliasKey)
		if aliases == nil || aliases.Kind != yaml.MappingNode {
			aliases = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			setKey(top, AliasKey, aliases)
			aliases = lookupKey(top, AliasKey)
		}
		valNode, err := encodeNode(name, expansion)
		if err != nil {
			return err
		}
		setKey(aliases, name, valNode)
		return nil
	})
}

// DeleteAlias removes alias name from the config file at path. The alias
// mapping is dropped once it is empty.
func DeleteAlias(fsys afero.Fs, path, name string) error {
	return editFile(fsys, path, false, func(top *yaml.Node) error {
		aliases := lookupKey(top, AliasKey)
		if aliases == nil || !deleteKey(aliases, name) {
			return fmt.Errorf("%w: %q", ErrAliasNotFound, name)
		}
		if len(aliases.Content) == 0 {
			deleteKey(top, AliasKey)
		}
		return nil
	})
}

// editFile applies edit to the top-level mapping of the YAML file at path and
// writes the result back atomically. Comments and key order survive. With
// create, a missing file is created first; otherwise it is an error.
func editFile(fsys afero.Fs, path string, create bool, edit func(top *yaml.Node) error) error {
	if create {
		if err := projdir.EnsureFile(fsys, path); err != nil {
			return err
		}
	}
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var doc yaml.Node
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing config file: %w", err)
		}
	}
	if doc.Kind == 0 {
		doc.Kind = yaml.DocumentNode
	}
	if len(doc.Content) == 0 {
		doc.Content = []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}
	}
	top := doc.Content[0]
	if top.Kind != yaml.MappingNode {
		return fmt.Errorf("config file must contain a mapping at the top level")
	}
	if err := edit(top); err != nil {
		return err
	}

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := fsx.WriteFileAtomic(fsys, path, out, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func encodeNode(key string, value any) (*yaml.Node, error) {
	var n yaml.Node
	if err := n.Encode(value); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", key, err)
	}
	return &n, nil
}

func lookupKey(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// setKey replaces the value of key in mapping m, keeping the old value's
// comments, or appends key when absent.
func setKey(m *yaml.Node, key string, val *yaml.Node) {
	if old := lookupKey(m, key); old != nil {
		val.HeadComment = old.HeadComment
		val.LineComment = old.LineComment
		*old = *val
		return
	}
	m.Content = append(m.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		val,
	)
}

func deleteKey(m *yaml.Node, key string) bool {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content = append(m.Content[:i], m.Content[i+2:]...)
			return true
		}
	}
	return false
}
