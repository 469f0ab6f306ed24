package store

import (
	"context"
	"fmt"
	"time"
)

const bootstrapTimeout = 30 * time.Second

// ArchiveResult holds the initialized archive and its resolved location.
type ArchiveResult struct {
	Archive   Archive
	Location  string
	StoreType StoreType
}

// NewArchive creates and initializes an archive based on the provided
// configuration. TypeFS is the default backend.
func NewArchive(ctx context.Context, cfg StoreConfig) (*ArchiveResult, error) {
	switch cfg.Type {
	case TypeObject:
		return newObjectArchive(ctx, cfg.Object)
	case TypeGit:
		return newGitArchive(cfg.Git)
	case TypeFS:
		return newFSArchive(cfg.FS)
	default:
		return nil, fmt.Errorf("store: unknown store type: %s", cfg.Type)
	}
}

func newFSArchive(cfg FSStoreConfig) (*ArchiveResult, error) {
	archive, err := NewFSArchive(cfg.Dir)
	if err != nil {
		return nil, err
	}
	return &ArchiveResult{
		Archive:   archive,
		Location:  archive.Dir(),
		StoreType: TypeFS,
	}, nil
}

func newObjectArchive(ctx context.Context, cfg ObjectStoreConfig) (*ArchiveResult, error) {
	archive, err := NewObjectArchive(cfg)
	if err != nil {
		return nil, err
	}

	bootstrapCtx, cancel := context.WithTimeout(ctx, bootstrapTimeout)
	defer cancel()

	if err := archive.Bootstrap(bootstrapCtx); err != nil {
		return nil, err
	}

	return &ArchiveResult{
		Archive:   archive,
		Location:  archive.Location(),
		StoreType: TypeObject,
	}, nil
}

func newGitArchive(cfg GitStoreConfig) (*ArchiveResult, error) {
	archive := NewGitArchive(cfg.RemoteURL, cfg.Username, cfg.Password)
	if cfg.LocalPath != "" {
		archive.SetBaseDir(cfg.LocalPath)
	}

	if err := archive.EnsureRepository(); err != nil {
		return nil, err
	}

	return &ArchiveResult{
		Archive:   archive,
		Location:  archive.Location(),
		StoreType: TypeGit,
	}, nil
}
