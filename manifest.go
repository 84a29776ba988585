package tsvchunk

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ab180/tsvchunk/internal/fsutil"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type manifestCodec struct {
	marshal   func(v interface{}) ([]byte, error)
	unmarshal func(data []byte, v interface{}) error
}

var manifestCodecs = map[string]manifestCodec{
	".json": {
		marshal: func(v interface{}) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		},
		unmarshal: json.Unmarshal,
	},
	".yaml": {marshal: yaml.Marshal, unmarshal: yaml.Unmarshal},
	".yml":  {marshal: yaml.Marshal, unmarshal: yaml.Unmarshal},
}

func manifestCodecOf(path string) (manifestCodec, error) {
	codec, ok := manifestCodecs[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return manifestCodec{}, errors.Wrapf(ErrInvalidConfig, "manifest %s: extension must be .json, .yaml or .yml", path)
	}
	return codec, nil
}

// WriteManifest writes the result into the path, encoded in JSON or YAML by its extension.
func WriteManifest(path string, r *Result) error {
	codec, err := manifestCodecOf(path)
	if err != nil {
		return err
	}
	data, err := codec.marshal(r)
	if err != nil {
		return errors.Wrap(err, "encode manifest")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := fsutil.EnsureDir(dir); err != nil {
			return err
		}
	}
	return fsutil.Wrap(os.WriteFile(path, data, 0o644), "write", path)
}

// ReadManifest reads a manifest written by WriteManifest.
func ReadManifest(path string) (*Result, error) {
	codec, err := manifestCodecOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fsutil.Wrap(err, "read", path)
	}
	r := new(Result)
	if err := codec.unmarshal(data, r); err != nil {
		return nil, errors.Wrapf(err, "decode manifest %s", path)
	}
	return r, nil
}
