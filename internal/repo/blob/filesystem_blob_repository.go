package blob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/mkrupp/bestiary/internal/infra/logging"
)

// ErrBytesWrittenMismatch is returned when a stored file does not match the blob size.
var ErrBytesWrittenMismatch = errors.New("bytes written mismatch")

const (
	dirPrefixLength = 2 // 16^2 = 256 directories
	dirPrefixDepth  = 2 // 256^2 = 65,536 directories
)

// FileSystemBlobRepositoryConfig holds configuration for the filesystem blob store.
type FileSystemBlobRepositoryConfig struct {
	// Basedir is the root directory for blob storage. Empty disables the store.
	Basedir string `env:"BASEDIR" default:"var/cache/blob"`
}

// NewFileSystemBlobRepository creates a store rooted at cfg.Basedir/subdir whose
// files carry the extension ext.
func NewFileSystemBlobRepository(
	ctx context.Context,
	subdir string,
	ext string,
	cfg FileSystemBlobRepositoryConfig,
) (*FileSystemRepository, error) {
	log := logging.GetLogger("repo.blob.filesystem_repository").With(
		logging.Group("repo",
			"basedir", cfg.Basedir,
			"subdir", subdir,
			"ext", ext,
		),
	)

	repo := &FileSystemRepository{
		root: filepath.Join(cfg.Basedir, subdir),
		ext:  ext,
		log:  log,
	}

	if err := os.MkdirAll(repo.root, 0o755); err != nil {
		log.ErrorContext(ctx, "init storage failed", "error", err)

		return nil, fmt.Errorf("mkdir all: %w", err)
	}

	log.DebugContext(ctx, "init storage")

	return repo, nil
}

// FileSystemRepository implements Repository on the local filesystem. Files
// are spread over a directory tree derived from the key hash:
//
//	5f/56/5f56692f0df9ff68607abdb054943ed86bcee7c9f2a2d01fdcb27032f70f3fe9.png
type FileSystemRepository struct {
	root string
	ext  string
	log  logging.Logger
}

var _ Repository = (*FileSystemRepository)(nil)

// GetFilename returns the path of the file holding key.
func (fsRepo *FileSystemRepository) GetFilename(key Key) string {
	hash := key.Hash()

	parts := []string{fsRepo.root}
	for i := range dirPrefixDepth {
		parts = append(parts, hash[i*dirPrefixLength:(i+1)*dirPrefixLength])
	}

	return filepath.Join(append(parts, hash+"."+fsRepo.ext)...)
}

func (fsRepo *FileSystemRepository) Lock(ctx context.Context, key Key, exclusive bool) (func(), error) {
	mode := syscall.LOCK_SH
	if exclusive {
		mode = syscall.LOCK_EX
	}

	release, err := fsRepo.flock(ctx, fsRepo.GetFilename(key), mode)
	if err != nil {
		return nil, fmt.Errorf("flock: %w", err)
	}

	return release, nil
}

func (fsRepo *FileSystemRepository) Exists(_ context.Context, key Key) bool {
	_, err := os.Stat(fsRepo.GetFilename(key))

	return err == nil
}

func (fsRepo *FileSystemRepository) Store(ctx context.Context, blob *Blob) (err error) {
	filename := fsRepo.GetFilename(blob.Key)

	defer func() {
		log := fsRepo.log.With(logging.Group("blob", "key", blob.Key, "filename", filename))
		if err != nil {
			log.ErrorContext(ctx, "blob store failed", "error", err)
		} else {
			log.DebugContext(ctx, "blob stored", "size", blob.Size())
		}
	}()

	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("mkdir all: %w", err)
	}

	// Write to a temporary file first so readers never see a partial blob.
	tmp, err := os.CreateTemp(filepath.Dir(filename), ".blob-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := tmp.Write(blob.Body)
	if err != nil {
		_ = tmp.Close()

		return fmt.Errorf("write: %w", err)
	}

	if int64(n) != blob.Size() {
		_ = tmp.Close()

		return fmt.Errorf("%w: expected %d, got %d", ErrBytesWrittenMismatch, blob.Size(), n)
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("sync: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}

	if err := os.Rename(tmp.Name(), filename); err != nil {
		return fmt.Errorf("rename: %w", err)
	}

	return nil
}

func (fsRepo *FileSystemRepository) Fetch(ctx context.Context, key Key) (blob *Blob, err error) {
	filename := fsRepo.GetFilename(key)

	defer func() {
		log := fsRepo.log.With(logging.Group("blob", "key", key, "filename", filename))
		if err != nil {
			log.DebugContext(ctx, "blob fetch failed", "error", err)
		} else {
			log.DebugContext(ctx, "blob fetched")
		}
	}()

	body, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrBlobNotFound
	} else if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return &Blob{Key: key, Body: body}, nil
}

func (fsRepo *FileSystemRepository) Delete(ctx context.Context, key Key) error {
	filename := fsRepo.GetFilename(key)

	if err := os.Remove(filename); errors.Is(err, os.ErrNotExist) {
		return ErrBlobNotFound
	} else if err != nil {
		fsRepo.log.ErrorContext(ctx, "blob delete failed", "key", key, "error", err)

		return fmt.Errorf("remove: %w", err)
	}

	fsRepo.log.DebugContext(ctx, "blob deleted", "key", key)

	return nil
}

func (fsRepo *FileSystemRepository) flock(ctx context.Context, filename string, mode int) (func(), error) {
	lockfile := filename + ".lock"
	log := fsRepo.log.With(logging.Group("blob", "lockfile", lockfile))

	if err := os.MkdirAll(filepath.Dir(lockfile), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir all: %w", err)
	}

	file, err := os.OpenFile(lockfile, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	if err := syscall.Flock(int(file.Fd()), mode); err != nil {
		_ = file.Close()

		log.ErrorContext(ctx, "lock failed", "error", err)

		return nil, fmt.Errorf("flock: %w", err)
	}

	log.DebugContext(ctx, "lock acquired")

	// The lock file stays on disk: removing it would let a concurrent locker
	// flock a different inode.
	return func() {
		_ = syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		_ = file.Close()

		log.DebugContext(ctx, "lock released")
	}, nil
}
