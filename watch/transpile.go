// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package watch

import (
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/mdhender/turkpy"
	"github.com/spf13/afero"
)

// OutputPath returns the Python file written for a source file.
func OutputPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".py"
}

// TranspileFile transpiles the source file at path and writes the result
// next to it. When the source does not transpile the previous output is
// left in place and the *turkpy.TranspileError is returned.
func TranspileFile(fs afero.Fs, path string, opts ...turkpy.Option) (string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return "", errors.Wrap(err, "read source")
	}
	out, err := turkpy.Transpile(string(data), opts...)
	if err != nil {
		return "", err
	}
	outPath := OutputPath(path)
	if outPath == path {
		return "", errors.Newf("%s: refusing to overwrite the source file", path)
	}
	if err := afero.WriteFile(fs, outPath, []byte(out), 0644); err != nil {
		return "", errors.Wrap(err, "write output")
	}
	return outPath, nil
}
