package sessions

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	fileStoreDirPerm  = 0o700
	fileStoreFilePerm = 0o600
)

var _ Store = (*FileStore)(nil)

// FileStore keeps the session record in a single JSON file.
type FileStore struct {
	path string
}

// NewFileStore returns a store writing to <folder>/<key>.json.
func NewFileStore(folder, key string) *FileStore {
	return &FileStore{
		path: filepath.Join(folder, key+".json"),
	}
}

// Path returns the file backing the store.
func (fs *FileStore) Path() string {
	return fs.path
}

func (fs *FileStore) Save(_ context.Context, s *Session) error {
	if s == nil {
		return errors.New("[FileStore Save] session is required")
	}
	data, err := NewRecord(s).Marshal()
	if err != nil {
		return errors.Wrap(err, "error marshaling session record")
	}

	folder := filepath.Dir(fs.path)
	if err := os.MkdirAll(folder, fileStoreDirPerm); err != nil {
		return errors.Wrapf(err, "error creating session folder %s", folder)
	}

	// Write to a temp file and rename so a crash never leaves a half written record
	tmp, err := os.CreateTemp(folder, filepath.Base(fs.path)+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "error creating temp file in %s", folder)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return errors.Wrapf(err, "error writing to %s", tmpName)
	}
	if err := tmp.Chmod(fileStoreFilePerm); err != nil {
		tmp.Close() //nolint:errcheck
		return errors.Wrapf(err, "error setting permissions on %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "error closing %s", tmpName)
	}
	if err := os.Rename(tmpName, fs.path); err != nil {
		return errors.Wrapf(err, "error moving session record to %s", fs.path)
	}
	return nil
}

func (fs *FileStore) Load(_ context.Context) *Record {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", fs.path).Msg("Unable to read stored session")
		}
		return nil
	}

	rec, err := ParseRecord(data)
	if err != nil {
		log.Warn().Err(err).Str("path", fs.path).Msg("Ignoring unreadable stored session")
		return nil
	}
	return rec
}

func (fs *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(fs.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "error deleting session record %s", fs.path)
	}
	return nil
}
