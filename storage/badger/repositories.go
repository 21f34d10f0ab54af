package badger

import "github.com/poiesic/caselens/storage"

// Repositories bundles the repositories sharing one backend.
type Repositories struct {
	Documents   storage.DocumentRepository
	Fragments   storage.FragmentRepository
	Checkpoints storage.CheckpointRepository
	Backend     *Backend
}

// NewRepositories creates all repositories over an open backend.
func NewRepositories(backend *Backend) (*Repositories, error) {
	docs, err := NewDocumentRepository(backend)
	if err != nil {
		return nil, err
	}
	fragments, err := NewFragmentRepository(backend)
	if err != nil {
		docs.Close()
		return nil, err
	}
	return &Repositories{
		Documents:   docs,
		Fragments:   fragments,
		Checkpoints: NewCheckpointRepository(backend),
		Backend:     backend,
	}, nil
}

// NewMemoryRepositories creates in-memory repositories for testing.
// Caller must Close the result when done.
func NewMemoryRepositories() (*Repositories, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}
	repos, err := NewRepositories(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return repos, nil
}

// Close closes the repositories, then the backend.
func (r *Repositories) Close() error {
	if err := r.Documents.Close(); err != nil {
		r.Backend.Close()
		return err
	}
	if err := r.Fragments.Close(); err != nil {
		r.Backend.Close()
		return err
	}
	return r.Backend.Close()
}
