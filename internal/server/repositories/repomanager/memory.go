package repomanager

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/lingoplay/internal/common"
	"github.com/dmitrijs2005/lingoplay/internal/dbx"
	"github.com/dmitrijs2005/lingoplay/internal/server/models"
	"github.com/dmitrijs2005/lingoplay/internal/server/repositories/games"
	"github.com/dmitrijs2005/lingoplay/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/lingoplay/internal/server/repositories/users"
	"github.com/dmitrijs2005/lingoplay/internal/server/repositories/videos"
)

// InMemoryRepositoryManager keeps every table in maps. The DBTX arguments of
// the factories are ignored. WithTx calls are serialized and a failing
// callback restores the state taken before it ran; writes made outside
// WithTx while a transaction is open are not isolated from that restore.
type InMemoryRepositoryManager struct {
	txMu  sync.Mutex
	store *memStore
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{store: newMemStore()}
}

func (m *InMemoryRepositoryManager) Conn() dbx.DBTX { return nil }

func (m *InMemoryRepositoryManager) Ping(context.Context) error { return nil }

func (m *InMemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *InMemoryRepositoryManager) WithTx(ctx context.Context, fn dbx.TxFunc) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	snapshot := m.store.clone()
	if err := fn(ctx, nil); err != nil {
		m.store.restore(snapshot)
		return err
	}
	return nil
}

func (m *InMemoryRepositoryManager) Users(dbx.DBTX) users.Repository {
	return memUsers{m.store}
}

func (m *InMemoryRepositoryManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return memRefreshTokens{m.store}
}

func (m *InMemoryRepositoryManager) Videos(dbx.DBTX) videos.Repository {
	return memVideos{m.store}
}

func (m *InMemoryRepositoryManager) Games(dbx.DBTX) games.Repository {
	return memGames{m.store}
}

// DeleteUser removes a user together with its refresh token, as the
// ON DELETE CASCADE of the SQL schema does.
func (m *InMemoryRepositoryManager) DeleteUser(id int64) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	delete(m.store.users, id)
	delete(m.store.refresh, id)
}

// RefreshTokenCount returns how many refresh token rows userID has.
func (m *InMemoryRepositoryManager) RefreshTokenCount(userID int64) int {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if _, ok := m.store.refresh[userID]; ok {
		return 1
	}
	return 0
}

type memStore struct {
	mu      sync.Mutex
	lastID  int64
	users   map[int64]models.User
	refresh map[int64]models.RefreshToken
	videos  map[int64]models.Video
	games   map[int64]models.Game
}

func newMemStore() *memStore {
	return &memStore{
		users:   map[int64]models.User{},
		refresh: map[int64]models.RefreshToken{},
		videos:  map[int64]models.Video{},
		games:   map[int64]models.Game{},
	}
}

func (s *memStore) nextID() int64 {
	s.lastID++
	return s.lastID
}

func (s *memStore) clone() *memStore {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := newMemStore()
	c.lastID = s.lastID
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.refresh {
		c.refresh[k] = v
	}
	for k, v := range s.videos {
		c.videos[k] = v
	}
	for k, v := range s.games {
		c.games[k] = v
	}
	return c
}

func (s *memStore) restore(from *memStore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastID = from.lastID
	s.users = from.users
	s.refresh = from.refresh
	s.videos = from.videos
	s.games = from.games
}

type memUsers struct{ s *memStore }

func (r memUsers) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email || u.Username == user.Username {
			return nil, common.ErrDuplicateIdentity
		}
	}
	user.ID = r.s.nextID()
	user.CreatedAt = time.Now()
	r.s.users[user.ID] = *user
	return user, nil
}

func (r memUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &u, nil
}

func (r memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, common.ErrNotFound
}

type memRefreshTokens struct{ s *memStore }

func (r memRefreshTokens) Upsert(ctx context.Context, userID int64, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[userID]; !ok {
		return common.ErrNotFound
	}
	r.s.refresh[userID] = models.RefreshToken{UserID: userID, Token: token, CreatedAt: time.Now()}
	return nil
}

func (r memRefreshTokens) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, rt := range r.s.refresh {
		if rt.Token == token {
			return &rt, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r memRefreshTokens) FindByUser(ctx context.Context, userID int64) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rt, ok := r.s.refresh[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &rt, nil
}

func (r memRefreshTokens) Consume(ctx context.Context, token string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for userID, rt := range r.s.refresh {
		if rt.Token == token {
			delete(r.s.refresh, userID)
			return userID, nil
		}
	}
	return 0, common.ErrNotFound
}

func (r memRefreshTokens) Delete(ctx context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for userID, rt := range r.s.refresh {
		if rt.Token == token {
			delete(r.s.refresh, userID)
		}
	}
	return nil
}

type memVideos struct{ s *memStore }

func (r memVideos) Create(ctx context.Context, v *models.Video) (*models.Video, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.videos {
		if existing.Path == v.Path {
			return nil, common.ErrAlreadyExists
		}
	}
	v.ID = r.s.nextID()
	v.CreatedAt = time.Now()
	r.s.videos[v.ID] = *v
	return v, nil
}

func (r memVideos) ExistsByPath(ctx context.Context, path string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, v := range r.s.videos {
		if v.Path == path {
			return true, nil
		}
	}
	return false, nil
}

func (r memVideos) GetByID(ctx context.Context, userID, id int64) (*models.Video, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	v, ok := r.s.videos[id]
	if !ok || v.UserID != userID {
		return nil, common.ErrNotFound
	}
	return &v, nil
}

func (r memVideos) ListByUser(ctx context.Context, userID int64) ([]*models.Video, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var list []*models.Video
	for id := int64(1); id <= r.s.lastID; id++ {
		if v, ok := r.s.videos[id]; ok && v.UserID == userID {
			list = append(list, &v)
		}
	}
	return list, nil
}

type memGames struct{ s *memStore }

func (r memGames) Create(ctx context.Context, g *models.Game) (*models.Game, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	g.ID = r.s.nextID()
	g.CreatedAt = time.Now()
	r.s.games[g.ID] = *g
	return g, nil
}

func (r memGames) GetByID(ctx context.Context, userID, id int64) (*models.Game, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	g, ok := r.s.games[id]
	if !ok || g.UserID != userID {
		return nil, common.ErrNotFound
	}
	return &g, nil
}

func (r memGames) Search(ctx context.Context, f games.Filter) ([]*models.Game, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	title := strings.ToLower(f.Title)
	var list []*models.Game
	for id := int64(1); id <= r.s.lastID; id++ {
		g, ok := r.s.games[id]
		if !ok {
			continue
		}
		if f.UserID != nil && g.UserID != *f.UserID {
			continue
		}
		if title != "" && !strings.Contains(strings.ToLower(g.Title), title) {
			continue
		}
		list = append(list, &g)
	}
	return list, nil
}
