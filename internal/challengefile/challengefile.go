// Package challengefile reads matching challenges from YAML documents.
//
// A document names a list of pattern/expression pairs using a structural
// encoding of expression trees (see Node). An optional expect field holds the
// number of solutions the challenge is supposed to have.
package challengefile

import (
	"path/filepath"
	"sort"

	"github.com/gitrdm/homatch/internal/errwrap"
	"github.com/gitrdm/homatch/pkg/expr"
	"github.com/gitrdm/homatch/pkg/matching"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Ext is the extension of challenge files picked up from directories.
const Ext = ".yaml"

// File is one challenge document.
type File struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description,omitempty"`
	Constraints []Constraint `yaml:"constraints"`
	Expect      *int         `yaml:"expect,omitempty"`

	// Path is where the file was loaded from.
	Path string `yaml:"-"`
}

// Constraint is one pattern/expression pair.
type Constraint struct {
	Pattern    Node `yaml:"pattern"`
	Expression Node `yaml:"expression"`
}

// Pairs decodes the constraints of f into expressions of lang. Every
// malformed constraint is reported.
func (f *File) Pairs(lang expr.Language) ([][2]expr.Expression, error) {
	var reterr error
	pairs := make([][2]expr.Expression, 0, len(f.Constraints))
	for i := range f.Constraints {
		c := &f.Constraints[i]
		p, err := c.Pattern.Expression(lang)
		if err != nil {
			reterr = errwrap.Append(reterr, errwrap.Wrapf(err, "constraint %d pattern", i))
			continue
		}
		e, err := c.Expression.Expression(lang)
		if err != nil {
			reterr = errwrap.Append(reterr, errwrap.Wrapf(err, "constraint %d expression", i))
			continue
		}
		pairs = append(pairs, [2]expr.Expression{p, e})
	}
	if reterr != nil {
		return nil, reterr
	}
	return pairs, nil
}

// Challenge builds the matching challenge f describes.
func (f *File) Challenge(opts ...matching.Option) (*matching.MatchingChallenge, error) {
	pairs, err := f.Pairs(expr.Default)
	if err != nil {
		return nil, errwrap.Wrapf(err, "challenge %q", f.Name)
	}
	mc, err := matching.NewMatchingChallengeFromPairs(pairs, opts...)
	if err != nil {
		return nil, errwrap.Wrapf(err, "challenge %q", f.Name)
	}
	return mc, nil
}

// Check compares the number of solutions found with the expected count. A
// file without an expect field always passes.
func (f *File) Check(found int) bool {
	return f.Expect == nil || *f.Expect == found
}

// Parse decodes one challenge document.
func Parse(data []byte) (*File, error) {
	f := &File{}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, errwrap.Wrapf(err, "can't parse challenge")
	}
	if len(f.Constraints) == 0 {
		return nil, errwrap.Wrapf(ErrMalformed, "challenge %q has no constraints", f.Name)
	}
	return f, nil
}

// Loader reads challenge files from a filesystem.
type Loader struct {
	fs  afero.Fs
	log *zap.Logger
}

// NewLoader returns a loader reading from fs. A nil logger discards output.
func NewLoader(fs afero.Fs, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{fs: fs, log: log}
}

// Load reads and parses one file. A file without a name is named after its
// path.
func (l *Loader) Load(path string) (*File, error) {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, errwrap.Wrapf(err, "can't read %s", path)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, errwrap.Wrapf(err, "%s", path)
	}
	if f.Name == "" {
		f.Name = filepath.Base(path)
	}
	f.Path = path
	l.log.Debug("loaded challenge",
		zap.String("path", path),
		zap.String("name", f.Name),
		zap.Int("constraints", len(f.Constraints)))
	return f, nil
}

// LoadAll loads every path in order. A directory contributes its challenge
// files sorted by name. Files that fail to load are reported together and
// the rest are still returned.
func (l *Loader) LoadAll(paths ...string) ([]*File, error) {
	var reterr error
	var files []*File
	for _, p := range paths {
		expanded, err := l.expand(p)
		if err != nil {
			reterr = errwrap.Append(reterr, err)
			continue
		}
		for _, e := range expanded {
			f, err := l.Load(e)
			if err != nil {
				l.log.Warn("skipping challenge", zap.String("path", e), zap.Error(err))
				reterr = errwrap.Append(reterr, err)
				continue
			}
			files = append(files, f)
		}
	}
	return files, reterr
}

func (l *Loader) expand(path string) ([]string, error) {
	isDir, err := afero.IsDir(l.fs, path)
	if err != nil {
		return nil, errwrap.Wrapf(err, "can't stat %s", path)
	}
	if !isDir {
		return []string{path}, nil
	}
	matches, err := afero.Glob(l.fs, filepath.Join(path, "*"+Ext))
	if err != nil {
		return nil, errwrap.Wrapf(err, "can't list %s", path)
	}
	sort.Strings(matches)
	return matches, nil
}

// Result is the YAML form of a solved challenge.
type Result struct {
	Name      string            `yaml:"name"`
	Solvable  bool              `yaml:"solvable"`
	Solutions []map[string]Node `yaml:"solutions"`
}

// EncodeResult renders the solutions of a challenge as YAML. Each solution
// maps metavariables, keyed by matching.SolutionKey, to their encoded values.
func EncodeResult(name string, solutions []*matching.ConstraintList) ([]byte, error) {
	res := Result{Name: name, Solvable: len(solutions) > 0, Solutions: []map[string]Node{}}
	for i, sol := range solutions {
		m := map[string]Node{}
		for _, c := range sol.Contents() {
			n, err := FromExpression(c.Expression())
			if err != nil {
				return nil, errwrap.Wrapf(err, "solution %d", i)
			}
			m[matching.SolutionKey(c.Pattern())] = n
		}
		res.Solutions = append(res.Solutions, m)
	}
	return yaml.Marshal(&res)
}
