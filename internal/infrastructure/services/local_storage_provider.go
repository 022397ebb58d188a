package services

import (
	"context"
	"fmt"
	"go-file-duplicates/internal/domain/entities"
	"go-file-duplicates/internal/domain/services"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const maxLinkDepth = 40

// LocalStorageProvider implements StorageProvider on top of an afero filesystem.
// Production code uses afero.NewOsFs(); tests use afero.NewMemMapFs().
type LocalStorageProvider struct {
	fs     afero.Fs
	logger logrus.FieldLogger
}

func NewLocalStorageProvider(fs afero.Fs, logger logrus.FieldLogger) *LocalStorageProvider {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LocalStorageProvider{
		fs:     fs,
		logger: logger,
	}
}

func (p *LocalStorageProvider) GetProviderName() string {
	return "local:" + p.fs.Name()
}

func (p *LocalStorageProvider) ListFiles(ctx context.Context, root string, opts services.ListOptions) ([]*entities.FileRecord, []*entities.ScanWarning, error) {
	root, err := p.absolute(root)
	if err != nil {
		return nil, nil, err
	}

	rootInfo, err := p.fs.Stat(root)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: cannot access %s: %w", services.ErrInvalidRoot, root, err)
	}
	if !rootInfo.IsDir() {
		return nil, nil, fmt.Errorf("%w: not a directory: %s", services.ErrInvalidRoot, root)
	}

	var (
		records  []*entities.FileRecord
		warnings []*entities.ScanWarning
		// link path -> resolved target path
		links = make(map[string]string)
	)

	warn := func(path string, err error) {
		warning := entities.NewScanWarning(entities.WarningTraversal, entities.StageTraversal, path, err)
		warnings = append(warnings, warning)
		p.logger.WithField("path", path).WithError(err).Warn("⚠️ traversal warning")
	}

	walkErr := afero.Walk(p.fs, root, func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			// An unreadable directory is reported once and its contents skipped.
			warn(path, err)
			return nil
		}

		mode := info.Mode()
		switch {
		case mode.IsDir():
			if !opts.Recursive && path != root {
				return filepath.SkipDir
			}
			return nil
		case mode&os.ModeSymlink != 0:
			if !opts.FollowSymlinks {
				return nil
			}
			target, err := p.fs.Stat(path)
			if err != nil {
				warn(path, fmt.Errorf("cannot resolve symlink: %w", err))
				return nil
			}
			if !target.Mode().IsRegular() {
				return nil
			}
			resolved, err := p.resolveLink(path)
			if err != nil {
				warn(path, fmt.Errorf("cannot resolve symlink: %w", err))
				return nil
			}
			links[path] = resolved
			info = target
		case !mode.IsRegular():
			return nil
		}

		if info.Size() < opts.MinFileSize {
			return nil
		}
		records = append(records, entities.NewFileRecord(path, info.Size(), info.ModTime()))
		return nil
	})
	if walkErr != nil {
		return nil, nil, walkErr
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Path < records[j].Path
	})

	if len(links) > 0 {
		records = p.dropAliasedLinks(records, links)
	}
	return records, warnings, nil
}

// dropAliasedLinks keeps one record per underlying file. A regular file wins over the links
// pointing at it; among links to the same unlisted target the first path wins.
func (p *LocalStorageProvider) dropAliasedLinks(records []*entities.FileRecord, links map[string]string) []*entities.FileRecord {
	claimed := make(map[string]bool, len(records))
	for _, record := range records {
		if _, isLink := links[record.Path]; !isLink {
			claimed[record.Path] = true
		}
	}

	kept := records[:0]
	for _, record := range records {
		target, isLink := links[record.Path]
		if isLink {
			if claimed[target] {
				p.logger.WithFields(logrus.Fields{
					"path":   record.Path,
					"target": target,
				}).Debug("symlink target already listed, skipping")
				continue
			}
			claimed[target] = true
		}
		kept = append(kept, record)
	}
	return kept
}

// resolveLink follows the link chain at path to the first non-link path.
// Filesystems without link support resolve to path itself.
func (p *LocalStorageProvider) resolveLink(path string) (string, error) {
	reader, ok := p.fs.(afero.LinkReader)
	if !ok {
		return path, nil
	}
	lstater, ok := p.fs.(afero.Lstater)
	if !ok {
		return path, nil
	}

	current := path
	for i := 0; i < maxLinkDepth; i++ {
		target, err := reader.ReadlinkIfPossible(current)
		if err != nil {
			return "", err
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(current), target)
		}
		current = filepath.Clean(target)

		info, _, err := lstater.LstatIfPossible(current)
		if err != nil {
			return "", err
		}
		if info.Mode()&os.ModeSymlink == 0 {
			return current, nil
		}
	}
	return "", fmt.Errorf("too many levels of symbolic links: %s", path)
}

func (p *LocalStorageProvider) OpenFile(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.fs.Open(path)
}

func (p *LocalStorageProvider) StatFile(ctx context.Context, path string) (os.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if lstater, ok := p.fs.(afero.Lstater); ok {
		info, _, err := lstater.LstatIfPossible(path)
		return info, err
	}
	return p.fs.Stat(path)
}

func (p *LocalStorageProvider) DeleteFile(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.fs.Remove(path)
}

func (p *LocalStorageProvider) absolute(root string) (string, error) {
	if filepath.IsAbs(root) {
		return filepath.Clean(root), nil
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve scan root %s: %w", root, err)
	}
	return abs, nil
}
