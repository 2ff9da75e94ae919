package watcher

import (
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mapline/gantry/internal/corpus"
	"github.com/mapline/gantry/internal/extract"
)

// Refresher rebuilds the default session's corpus from the watched folders.
// One refresh reads every matching file; a single extraction failure aborts
// the rebuild and the previous corpus stays live.
type Refresher struct {
	extractor  *extract.Extractor
	store      *corpus.Store
	roots      []string
	extensions []string
	recursive  bool
	logger     *zap.Logger
}

func NewRefresher(extractor *extract.Extractor, store *corpus.Store, roots, extensions []string, recursive bool, logger *zap.Logger) *Refresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{
		extractor:  extractor,
		store:      store,
		roots:      roots,
		extensions: extensions,
		recursive:  recursive,
		logger:     logger,
	}
}

// Refresh walks the roots, extracts every matching file, and replaces the
// default session's corpus.
func (r *Refresher) Refresh() {
	var files []corpus.File
	for _, root := range r.roots {
		collected, err := r.collect(root)
		if err != nil {
			r.logger.Error("corpus refresh aborted", zap.String("root", root), zap.Error(err))
			return
		}
		files = append(files, collected...)
	}

	corpusText, names := corpus.Assemble(files)
	r.store.Put(corpus.DefaultSession, corpusText, names)
	r.logger.Info("corpus refreshed from watched folders",
		zap.Int("files", len(names)),
		zap.Int("corpus_len", len(corpusText)),
	)
}

// collect reads and extracts the matching files under one root. File names in
// the corpus are root-relative so two roots can carry files with equal base
// names without colliding.
func (r *Refresher) collect(root string) ([]corpus.File, error) {
	var files []corpus.File
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !r.recursive && path != filepath.Clean(root) {
				return fs.SkipDir
			}
			return nil
		}
		if !matchExtension(path, r.extensions) {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		name, err := filepath.Rel(root, path)
		if err != nil {
			name = filepath.Base(path)
		}
		text, err := r.extractor.ExtractUpload(filepath.Base(path), "", content)
		if err != nil {
			return err
		}
		files = append(files, corpus.File{Name: name, Text: text})
		return nil
	})
	return files, err
}
