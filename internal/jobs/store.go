package jobs

import (
	"github.com/patrickmn/go-cache"

	"tryon/internal/domain"
)

// Store keeps job snapshots in memory. Values go in and come out as copies,
// so a reader never observes a job mid-update.
type Store struct {
	c *cache.Cache
}

func NewStore() *Store {
	// no expiry and no janitor: jobs live as long as the process
	return &Store{c: cache.New(cache.NoExpiration, 0)}
}

func (s *Store) Put(job domain.Job) {
	s.c.Set(job.ID, job.Clone(), cache.NoExpiration)
}

func (s *Store) Get(id string) (domain.Job, bool) {
	v, ok := s.c.Get(id)
	if !ok {
		return domain.Job{}, false
	}
	return v.(domain.Job).Clone(), true
}

func (s *Store) Len() int {
	return s.c.ItemCount()
}
