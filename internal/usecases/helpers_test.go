package usecases

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"go-file-duplicates/internal/domain/entities"
	"go-file-duplicates/internal/domain/services"
	infraservices "go-file-duplicates/internal/infrastructure/services"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	fs       afero.Fs
	provider *infraservices.LocalStorageProvider
	hasher   *infraservices.HashService
	logger   *logrus.Logger
	hook     *test.Hook
	finder   *DuplicateFindingUseCase
	cleaner  *FileCleanupUseCase
}

func newTestEnv(t *testing.T, fs afero.Fs, partialAlgorithm string) *testEnv {
	t.Helper()

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	provider := infraservices.NewLocalStorageProvider(fs, logger)
	hasher, err := infraservices.NewHashService(provider, partialAlgorithm, "sha256")
	require.NoError(t, err)

	return &testEnv{
		fs:       fs,
		provider: provider,
		hasher:   hasher,
		logger:   logger,
		hook:     hook,
		finder:   NewDuplicateFindingUseCase(NewFileScanningUseCase(provider, logger), hasher, nil, logger),
		cleaner:  NewFileCleanupUseCase(provider, hasher, nil, logger),
	}
}

func newMemEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnv(t, afero.NewMemMapFs(), "sha256")
}

func (e *testEnv) write(t *testing.T, path string, content []byte) {
	t.Helper()
	require.NoError(t, e.fs.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, afero.WriteFile(e.fs, path, content, 0o644))
}

func (e *testEnv) writeAt(t *testing.T, path string, content []byte, modTime time.Time) {
	t.Helper()
	e.write(t, path, content)
	require.NoError(t, e.fs.Chtimes(path, modTime, modTime))
}

func (e *testEnv) exists(t *testing.T, path string) bool {
	t.Helper()
	ok, err := afero.Exists(e.fs, path)
	require.NoError(t, err)
	return ok
}

func (e *testEnv) scan(t *testing.T, root string, opts ScanOptions) *FindDuplicatesResponse {
	t.Helper()
	response, err := e.finder.FindDuplicates(context.Background(), &FindDuplicatesRequest{
		Root:    root,
		Options: opts,
	})
	require.NoError(t, err)
	return response
}

func groupPaths(groups []*entities.DuplicateGroup) [][]string {
	paths := make([][]string, len(groups))
	for i, group := range groups {
		paths[i] = group.Paths()
	}
	return paths
}

// sharedPrefix returns two buffers of size bytes that agree on the first prefix bytes only
func sharedPrefix(size, prefix int) ([]byte, []byte) {
	a := bytes.Repeat([]byte{'x'}, size)
	b := bytes.Repeat([]byte{'x'}, size)
	for i := prefix; i < size; i++ {
		b[i] = 'y'
	}
	return a, b
}

var errUnreadable = errors.New("unreadable")

// unreadableProvider fails to open the listed paths
type unreadableProvider struct {
	*infraservices.LocalStorageProvider
	paths map[string]bool
}

func (p *unreadableProvider) OpenFile(ctx context.Context, path string) (io.ReadCloser, error) {
	if p.paths[path] {
		return nil, errUnreadable
	}
	return p.LocalStorageProvider.OpenFile(ctx, path)
}

// rewritingProvider replaces file contents right after listing, as a concurrent writer would
type rewritingProvider struct {
	*infraservices.LocalStorageProvider
	fs       afero.Fs
	contents map[string][]byte
}

func (p *rewritingProvider) ListFiles(ctx context.Context, root string, opts services.ListOptions) ([]*entities.FileRecord, []*entities.ScanWarning, error) {
	records, warnings, err := p.LocalStorageProvider.ListFiles(ctx, root, opts)
	if err != nil {
		return nil, nil, err
	}
	for path, content := range p.contents {
		if err := afero.WriteFile(p.fs, path, content, 0o644); err != nil {
			return nil, nil, err
		}
	}
	return records, warnings, nil
}
