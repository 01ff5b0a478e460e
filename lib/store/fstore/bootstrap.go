package fstore

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ZhaoShanGeng/antigravity2api/lib/ident"
	"github.com/ZhaoShanGeng/antigravity2api/lib/store"
)

// --------------------------------------------------------------------------
// Bootstrap and Migration
// --------------------------------------------------------------------------

// ensureStore guarantees that a valid store document is readable before any
// read or write proceeds, and returns the resolved salt. The salt is cached
// for the lifetime of the process; once set it is never re-read from disk.
//
// Thread-safety: This method is thread-safe; the first caller performs the
// bootstrap, later callers return the cached salt.
func (s *fileStore) ensureStore() string {
	s.bootMu.Lock()
	defer s.bootMu.Unlock()

	if s.salt != "" {
		return s.salt
	}

	s.salt, s.saltPersisted = s.bootstrap()
	return s.salt
}

// bootstrap creates, migrates or repairs the store file as needed and
// resolves the salt. It never fails: if the file is unreadable for reasons
// other than absence, a process-local (non-persisted) salt is generated so
// callers can keep operating against a temporarily broken store.
func (s *fileStore) bootstrap() (salt string, persisted bool) {

	// Ensure the parent directory exists (idempotent)
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		logger.Errorf("failed to create data directory: %v", err)
	}

	data, err := os.ReadFile(s.path)

	// Case absent file: write a fresh document with a new salt
	if errors.Is(err, fs.ErrNotExist) {
		salt = ident.GenerateSalt()
		if werr := s.writeDocument(storeDocument{Salt: salt, Records: []store.Record{}}); werr != nil {
			logger.Errorf("failed to create store file: %v", werr)
			return salt, false
		}
		logger.Infof("created new store file at %s", s.path)
		return salt, true
	}

	// Case unreadable file: degrade to a process-local salt
	if err != nil {
		logger.Errorf("failed to read store file during bootstrap: %v", err)
		return ident.GenerateSalt(), false
	}

	doc, legacy, derr := decodeDocument(data)
	if derr != nil {
		logger.Errorf("failed to parse store file during bootstrap: %v", derr)
		return ident.GenerateSalt(), false
	}

	// Case legacy shape: wrap the bare sequence with a new salt and persist.
	// This runs once at startup, before concurrent access begins.
	if legacy {
		doc.Salt = ident.GenerateSalt()
		if werr := s.writeDocument(doc); werr != nil {
			logger.Errorf("failed to migrate legacy store file: %v", werr)
			return doc.Salt, false
		}
		logger.Infof("migrated legacy store file (%d records)", len(doc.Records))
		return doc.Salt, true
	}

	// Case current shape without a salt: inject one and persist
	if doc.Salt == "" {
		doc.Salt = ident.GenerateSalt()
		if werr := s.writeDocument(doc); werr != nil {
			logger.Errorf("failed to persist injected salt: %v", werr)
			return doc.Salt, false
		}
		logger.Infof("injected missing salt into store file")
		return doc.Salt, true
	}

	return doc.Salt, true
}

// writeDocument encodes and atomically writes a document to the store path.
func (s *fileStore) writeDocument(doc storeDocument) error {
	data, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	return writeFileAtomic(s.path, data)
}
