// Package memory is a process-local record store used for demo mode and tests.
// Users and training records share one lock so that cascading deletes are atomic.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/frahmantamala/training-records/internal/auth"
	trainingDatamodel "github.com/frahmantamala/training-records/internal/core/datamodel/training"
	userDatamodel "github.com/frahmantamala/training-records/internal/core/datamodel/user"
	"github.com/frahmantamala/training-records/internal/training"
	"github.com/frahmantamala/training-records/internal/user"
)

type Store struct {
	mu        sync.RWMutex
	users     map[int64]userDatamodel.User
	records   map[int64]trainingDatamodel.Record
	nextUser  int64
	nextTrain int64
	now       func() time.Time
}

func New() *Store {
	return &Store{
		users:   make(map[int64]userDatamodel.User),
		records: make(map[int64]trainingDatamodel.Record),
		now:     time.Now,
	}
}

// Users returns the store's user.Repository view.
func (s *Store) Users() user.Repository { return &userRepo{s} }

// Trainings returns the store's training.Repository view.
func (s *Store) Trainings() training.Repository { return &trainingRepo{s} }

// Credentials returns the store's auth.RepositoryAPI view.
func (s *Store) Credentials() auth.RepositoryAPI { return &credentialRepo{s} }

// Ping reports store readiness for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

type userRepo struct{ s *Store }

func (r *userRepo) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*userDatamodel.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (r *userRepo) List(ctx context.Context, filter user.ListFilter) ([]*userDatamodel.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	result := make([]*userDatamodel.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Status != "" && u.Status != filter.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(u.Nama), search) &&
			!strings.Contains(strings.ToLower(u.Username), search) &&
			!strings.Contains(u.NIP, search) {
			continue
		}
		u := u
		result = append(result, &u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *userRepo) Create(ctx context.Context, u *userDatamodel.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if existing.Username == u.Username || existing.NIP == u.NIP {
			return user.ErrDuplicate
		}
	}

	r.s.nextUser++
	now := r.s.now()
	u.ID = r.s.nextUser
	u.CreatedAt = now
	u.UpdatedAt = now
	r.s.users[u.ID] = *u
	return nil
}

func (r *userRepo) Update(ctx context.Context, u *userDatamodel.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.users[u.ID]
	if !ok {
		return user.ErrNotFound
	}
	// identity fields never change
	u.Username = current.Username
	u.NIP = current.NIP
	u.CreatedAt = current.CreatedAt
	u.UpdatedAt = r.s.now()
	r.s.users[u.ID] = *u
	return nil
}

func (r *userRepo) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return user.ErrNotFound
	}
	for recID, rec := range r.s.records {
		if rec.OwnerID == id {
			delete(r.s.records, recID)
		}
	}
	delete(r.s.users, id)
	return nil
}

func (r *userRepo) ExistsByUsernameOrNIP(ctx context.Context, username, nip string) (bool, bool, error) {
	if err := ctx.Err(); err != nil {
		return false, false, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var usernameTaken, nipTaken bool
	for _, u := range r.s.users {
		usernameTaken = usernameTaken || u.Username == username
		nipTaken = nipTaken || u.NIP == nip
	}
	return usernameTaken, nipTaken, nil
}

type trainingRepo struct{ s *Store }

func (r *trainingRepo) GetByID(ctx context.Context, id int64) (*trainingDatamodel.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.records[id]
	if !ok {
		return nil, training.ErrNotFound
	}
	return &rec, nil
}

func (r *trainingRepo) List(ctx context.Context, filter training.ListFilter) ([]*trainingDatamodel.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]*trainingDatamodel.Record, 0, len(r.s.records))
	for _, rec := range r.s.records {
		if filter.OwnerID != nil && rec.OwnerID != *filter.OwnerID {
			continue
		}
		if filter.Year != nil && rec.StartDate.Year() != *filter.Year {
			continue
		}
		rec := rec
		result = append(result, &rec)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartDate.Equal(result[j].StartDate) {
			return result[i].StartDate.After(result[j].StartDate)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

// Create rejects records whose owner does not exist, mirroring the foreign key.
func (r *trainingRepo) Create(ctx context.Context, rec *trainingDatamodel.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[rec.OwnerID]; !ok {
		return user.ErrNotFound
	}
	r.s.nextTrain++
	now := r.s.now()
	rec.ID = r.s.nextTrain
	rec.CreatedAt = now
	rec.UpdatedAt = now
	r.s.records[rec.ID] = *rec
	return nil
}

func (r *trainingRepo) Update(ctx context.Context, rec *trainingDatamodel.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.records[rec.ID]
	if !ok {
		return training.ErrNotFound
	}
	rec.OwnerID = current.OwnerID
	rec.CreatedAt = current.CreatedAt
	rec.UpdatedAt = r.s.now()
	r.s.records[rec.ID] = *rec
	return nil
}

func (r *trainingRepo) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.records[id]; !ok {
		return training.ErrNotFound
	}
	delete(r.s.records, id)
	return nil
}

type credentialRepo struct{ s *Store }

func (r *credentialRepo) GetCredentialsByUsername(ctx context.Context, username string) (*auth.Credentials, error) {
	u, err := (&userRepo{r.s}).GetByUsername(ctx, username)
	return toCredentials(u, err)
}

func (r *credentialRepo) GetCredentialsByID(ctx context.Context, userID int64) (*auth.Credentials, error) {
	u, err := (&userRepo{r.s}).GetByID(ctx, userID)
	return toCredentials(u, err)
}

func toCredentials(u *userDatamodel.User, err error) (*auth.Credentials, error) {
	if err != nil {
		if err == user.ErrNotFound {
			return nil, auth.ErrCredentialsNotFound
		}
		return nil, err
	}
	return &auth.Credentials{
		UserID:       u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		Status:       u.Status,
	}, nil
}
