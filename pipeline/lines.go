package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"math/rand/v2"
	"slices"

	"github.com/spf13/afero"

	"github.com/kbukum/dataflow/errors"
)

const maxSegmentSize = 64 << 20

// WithDelimiter splits files on delim instead of newlines.
func WithDelimiter(delim string) SourceOption {
	return func(c *sourceConfig) {
		if delim != "" {
			c.delimiter = delim
		}
	}
}

// WithIndexRange restricts a LineSource to segments [minIndex, maxIndex)
// counted across all files. maxIndex < 0 means no upper bound.
func WithIndexRange(minIndex, maxIndex int) SourceOption {
	return func(c *sourceConfig) {
		c.minIndex = max(minIndex, 0)
		c.maxIndex = maxIndex
	}
}

// LineSource yields delimited text segments from a set of files.
//
// Reset counts the segments of every file, rebuilds the visitation order
// (shuffled when configured) and rewinds the cursor. Segments never span
// file boundaries.
type LineSource struct {
	fs    afero.Fs
	files []string
	cfg   sourceConfig
	rng   *rand.Rand
	order []int
	index int
}

// Lines creates a segment source over files on fs and counts them once.
func Lines(fs afero.Fs, files []string, opts ...SourceOption) (*LineSource, error) {
	cfg := newSourceConfig(opts)
	s := &LineSource{fs: fs, files: slices.Clone(files), cfg: cfg}
	if cfg.shuffle {
		s.rng = newRand(cfg.seed)
	}
	if err := s.Reset(); err != nil {
		return nil, err
	}
	return s, nil
}

// LinesFromDir creates a segment source over every regular file in dir.
func LinesFromDir(fs afero.Fs, dir string, opts ...SourceOption) (*LineSource, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, errors.IO("readdir", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.Mode().IsRegular() {
			files = append(files, dir+"/"+e.Name())
		}
	}
	return Lines(fs, files, opts...)
}

// Process returns up to len(in) segments following the visitation order.
func (s *LineSource) Process(_ context.Context, in []Unit) ([]string, error) {
	end := min(s.index+len(in), len(s.order))
	wanted := s.order[s.index:end]
	if len(wanted) == 0 {
		return []string{}, nil
	}

	// Scan files once, in index order, and place each hit at its output slot.
	slots := make([]int, len(wanted))
	for i := range slots {
		slots[i] = i
	}
	slices.SortFunc(slots, func(a, b int) int { return wanted[a] - wanted[b] })

	out := make([]string, len(wanted))
	next, global := 0, 0
	for _, path := range s.files {
		err := s.scan(path, func(segment []byte) bool {
			for next < len(slots) && wanted[slots[next]] == global {
				out[slots[next]] = string(segment)
				next++
			}
			global++
			return next < len(slots)
		})
		if err != nil {
			return nil, err
		}
		if next == len(slots) {
			break
		}
	}
	if next != len(slots) {
		return nil, errors.New(errors.ErrCodeIO, "corpus shrank since the last reset").
			WithDetail("expected", len(slots)).WithDetail("found", next)
	}

	s.index = end
	return out, nil
}

// Reset recounts segments, rebuilds the visitation order and rewinds.
func (s *LineSource) Reset() error {
	total := 0
	for _, path := range s.files {
		if s.cfg.maxIndex >= 0 && total >= s.cfg.maxIndex {
			break
		}
		if err := s.scan(path, func([]byte) bool { total++; return true }); err != nil {
			return err
		}
	}
	hi := total
	if s.cfg.maxIndex >= 0 {
		hi = min(hi, s.cfg.maxIndex)
	}
	lo := min(s.cfg.minIndex, hi)

	s.order = s.order[:0]
	for i := lo; i < hi; i++ {
		s.order = append(s.order, i)
	}
	if s.rng != nil {
		s.rng.Shuffle(len(s.order), func(i, j int) {
			s.order[i], s.order[j] = s.order[j], s.order[i]
		})
	}
	s.index = 0
	return nil
}

// DataRemaining ignores before and reports the segments left this epoch.
func (s *LineSource) DataRemaining(int) int {
	return len(s.order) - s.index
}

// Name implements Named.
func (s *LineSource) Name() string {
	if s.cfg.name != "" {
		return s.cfg.name
	}
	return "lines"
}

// scan streams the segments of one file to fn until fn returns false.
func (s *LineSource) scan(path string, fn func(segment []byte) bool) error {
	f, err := s.fs.Open(path)
	if err != nil {
		return errors.IO("open", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(nil, maxSegmentSize)
	if s.cfg.delimiter != "\n" {
		sc.Split(splitOn([]byte(s.cfg.delimiter)))
	}
	for sc.Scan() {
		if !fn(sc.Bytes()) {
			return nil
		}
	}
	if err := sc.Err(); err != nil {
		return errors.IO("read", path, err)
	}
	return nil
}

// splitOn is a bufio.SplitFunc that splits on an arbitrary delimiter. A
// trailing delimiter does not produce an empty final segment.
func splitOn(delim []byte) bufio.SplitFunc {
	return func(data []byte, atEOF bool) (int, []byte, error) {
		if atEOF && len(data) == 0 {
			return 0, nil, nil
		}
		if i := bytes.Index(data, delim); i >= 0 {
			return i + len(delim), data[:i], nil
		}
		if atEOF {
			return len(data), data, nil
		}
		return 0, nil, nil
	}
}
