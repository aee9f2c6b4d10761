package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/thomas-vilte/materelease/internal/errors"
	"github.com/thomas-vilte/materelease/internal/semver"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	DefaultFile = "package.json"
	versionKey  = "version"
)

// Store reads and rewrites the version field of a JSON manifest. Everything
// else in the document, including key order and indentation, is kept as is.
type Store struct {
	path string
}

func NewStore(repoPath, file string) *Store {
	if file == "" {
		file = DefaultFile
	}
	if !filepath.IsAbs(file) {
		file = filepath.Join(repoPath, file)
	}
	return &Store{path: file}
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) CurrentVersion() (semver.Version, error) {
	data, err := s.read()
	if err != nil {
		return semver.Version{}, err
	}

	field := gjson.GetBytes(data, versionKey)
	if !field.Exists() {
		return semver.Version{}, errors.ErrVersionMissing.WithContext("file", s.path)
	}
	if field.Type != gjson.String {
		return semver.Version{}, errors.ErrVersionParse.
			WithError(fmt.Errorf("version is %s, not a string", field.Type)).
			WithContext("file", s.path)
	}

	v, err := semver.Parse(field.String())
	if err != nil {
		return semver.Version{}, errors.ErrVersionParse.WithError(err).WithContext("file", s.path)
	}
	return v, nil
}

func (s *Store) WriteVersion(v semver.Version) error {
	data, err := s.read()
	if err != nil {
		return err
	}

	updated, err := sjson.SetBytes(data, versionKey, v.String())
	if err != nil {
		return errors.ErrWriteManifest.WithError(err).WithContext("file", s.path)
	}

	info, err := os.Stat(s.path)
	if err != nil {
		return errors.ErrWriteManifest.WithError(err).WithContext("file", s.path)
	}
	if err := os.WriteFile(s.path, updated, info.Mode().Perm()); err != nil {
		return errors.ErrWriteManifest.WithError(err).WithContext("file", s.path)
	}
	return nil
}

func (s *Store) read() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrManifestMissing.WithError(err).WithContext("file", s.path)
		}
		return nil, errors.ErrManifestInvalid.WithError(err).WithContext("file", s.path)
	}
	if !gjson.ValidBytes(data) {
		return nil, errors.ErrManifestInvalid.WithContext("file", s.path)
	}
	return data, nil
}
