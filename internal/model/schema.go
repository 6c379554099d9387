package model

import (
	"bytes"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/encoding/yaml"

	_ "embed"
)

//go:embed store.cue
var cueSource []byte

var (
	cueCtx *cue.Context
	schema cue.Value
)

func init() {
	if len(cueSource) == 0 {
		panic("variable cueSource is empty")
	}
	cueCtx = cuecontext.New()
	compiled := cueCtx.CompileBytes(cueSource)
	if compiled.Err() != nil {
		panic(compiled.Err())
	}

	if err := compiled.Validate(); err != nil {
		panic(err)
	}

	schema = compiled.LookupPath(cue.ParsePath("#Store"))
	if schema.Err() != nil {
		panic(schema.Err())
	}
	if err := schema.Validate(); err != nil {
		panic(err)
	}
}

// ValidateStore checks a serialized store against the embedded schema. JSON
// is a subset of YAML, so both store formats go through the YAML extractor.
// name is used in error positions only.
func ValidateStore(name string, raw []byte) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return fmt.Errorf("%s: empty document: %w", name, ErrStoreInvalid)
	}
	file, err := yaml.Extract(name, raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreInvalid, err)
	}
	value := cueCtx.BuildFile(file)
	if value.Err() != nil {
		return fmt.Errorf("%w: %w", ErrStoreInvalid, value.Err())
	}

	unified := schema.Unify(value)
	if err := unified.Validate(
		cue.All(),          // all constraints
		cue.Concrete(true), // no incomplete values
	); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreInvalid, err)
	}
	return nil
}
