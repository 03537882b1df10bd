// Package memstore provides in-memory implementations of the workflow's
// store interfaces for tests that should not need MongoDB.
//
// Lookups miss with mongo.ErrNoDocuments and duplicate emails or phones fail
// with the userstore sentinels, matching the Mongo stores.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	userstore "github.com/munawwara-care/mcadmin/internal/app/store/users"
	"github.com/munawwara-care/mcadmin/internal/app/system/normalize"
	"github.com/munawwara-care/mcadmin/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// DB holds every collection behind one lock.
type DB struct {
	mu       sync.Mutex
	users    map[primitive.ObjectID]models.User
	pilgrims map[primitive.ObjectID]models.Pilgrim
	requests map[primitive.ObjectID]models.ModeratorRequest
	groups   map[primitive.ObjectID]models.Group

	calls  int
	writes int
	fail   map[string]error

	Users    *Users
	Pilgrims *Pilgrims
	Requests *Requests
	Groups   *Groups
}

// New returns an empty database.
func New() *DB {
	d := &DB{
		users:    map[primitive.ObjectID]models.User{},
		pilgrims: map[primitive.ObjectID]models.Pilgrim{},
		requests: map[primitive.ObjectID]models.ModeratorRequest{},
		groups:   map[primitive.ObjectID]models.Group{},
		fail:     map[string]error{},
	}
	d.Users = &Users{d}
	d.Pilgrims = &Pilgrims{d}
	d.Requests = &Requests{d}
	d.Groups = &Groups{d}
	return d
}

// Calls is the number of store calls made so far.
func (d *DB) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// Writes is the number of mutating store calls made so far.
func (d *DB) Writes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writes
}

// FailOn makes the named operation (e.g. "users.LinkModerator") return err.
func (d *DB) FailOn(op string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail[op] = err
}

// hit records a call; the caller must hold d.mu.
func (d *DB) hit(op string, write bool) error {
	d.calls++
	if write {
		d.writes++
	}
	return d.fail[op]
}

// Tx returns a unit of work that restores every collection when fn fails.
func (d *DB) Tx() *Tx { return &Tx{d} }

// Tx snapshots the collections before fn and rolls back on error.
type Tx struct{ d *DB }

func (t *Tx) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	d := t.d
	d.mu.Lock()
	users := cloneMap(d.users)
	pilgrims := cloneMap(d.pilgrims)
	requests := cloneMap(d.requests)
	groups := cloneMap(d.groups)
	d.mu.Unlock()

	if err := fn(ctx); err != nil {
		d.mu.Lock()
		d.users, d.pilgrims, d.requests, d.groups = users, pilgrims, requests, groups
		d.mu.Unlock()
		return err
	}
	return nil
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func sortedIDs[V any](m map[primitive.ObjectID]V) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Hex() < ids[j].Hex() })
	return ids
}

/*─────────────────────────────────────────────────────────────────────────────*
| Seeding                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// PutUser stores u as-is. It does not count as a call.
func (d *DB) PutUser(u models.User) models.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	d.users[u.ID] = u
	return u
}

// PutPilgrim stores p as-is.
func (d *DB) PutPilgrim(p models.Pilgrim) models.Pilgrim {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	d.pilgrims[p.ID] = p
	return p
}

// PutRequest stores r as-is.
func (d *DB) PutRequest(r models.ModeratorRequest) models.ModeratorRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	d.requests[r.ID] = r
	return r
}

// PutGroup stores g as-is.
func (d *DB) PutGroup(g models.Group) models.Group {
	d.mu.Lock()
	defer d.mu.Unlock()
	if g.ID.IsZero() {
		g.ID = primitive.NewObjectID()
	}
	d.groups[g.ID] = g
	return g
}

// User returns the stored user without counting a call.
func (d *DB) User(id primitive.ObjectID) (models.User, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[id]
	return u, ok
}

// Pilgrim returns the stored pilgrim without counting a call.
func (d *DB) Pilgrim(id primitive.ObjectID) (models.Pilgrim, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.pilgrims[id]
	return p, ok
}

// Request returns the stored request without counting a call.
func (d *DB) Request(id primitive.ObjectID) (models.ModeratorRequest, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.requests[id]
	return r, ok
}

// Group returns the stored group without counting a call.
func (d *DB) Group(id primitive.ObjectID) (models.Group, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	g, ok := d.groups[id]
	return g, ok
}

/*─────────────────────────────────────────────────────────────────────────────*
| Users                                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// Users mirrors userstore.Store.
type Users struct{ d *DB }

func (s *Users) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if err := s.d.hit("users.GetByID", false); err != nil {
		return nil, err
	}
	u, ok := s.d.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &u, nil
}

func (s *Users) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if err := s.d.hit("users.GetByEmail", false); err != nil {
		return nil, err
	}
	email = normalize.Email(email)
	for _, id := range sortedIDs(s.d.users) {
		if u := s.d.users[id]; u.Email == email {
			return &u, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (s *Users) EmailExists(_ context.Context, email string) (bool, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if err := s.d.hit("users.EmailExists", false); err != nil {
		return false, err
	}
	return s.emailTaken(normalize.Email(email), primitive.NilObjectID), nil
}

func (s *Users) PhoneExists(_ context.Context, phone string) (bool, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if err := s.d.hit("users.PhoneExists", false); err != nil {
		return false, err
	}
	return s.phoneTaken(normalize.Phone(phone), primitive.NilObjectID), nil
}

func (s *Users) emailTaken(email string, except primitive.ObjectID) bool {
	for id, u := range s.d.users {
		if id != except && u.Email == email {
			return true
		}
	}
	return false
}

func (s *Users) phoneTaken(phone string, except primitive.ObjectID) bool {
	if phone == "" {
		return false
	}
	for id, u := range s.d.users {
		if id != except && u.Phone() == phone {
			return true
		}
	}
	return false
}

func (s *Users) Create(_ context.Context, u models.User) (models.User, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if err := s.d.hit("users.Create", true); err != nil {
		return models.User{}, err
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.FullName = normalize.Name(u.FullName)
	u.Email = normalize.Email(u.Email)
	if s.emailTaken(u.Email, u.ID) {
		return models.User{}, userstore.ErrDuplicateEmail
	}
	if u.PhoneNumber != nil && s.phoneTaken(*u.PhoneNumber, u.ID) {
		return models.User{}, userstore.ErrDuplicatePhone
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	s.d.users[u.ID] = u
	return u, nil
}

func (s *Users) LinkModerator(_ context.Context, p models.Pilgrim) (bool, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if err := s.d.hit("users.LinkModerator", true); err != nil {
		return false, err
	}
	now := time.Now().UTC()
	if u, ok := s.d.users[p.ID]; ok {
		u.Role = models.RoleModerator
		u.UpdatedAt = now
		s.d.users[p.ID] = u
		return false, nil
	}
	email := normalize.Email(p.Email)
	if s.emailTaken(email, p.ID) {
		return false, userstore.ErrDuplicateEmail
	}
	if p.PhoneNumber != nil && s.phoneTaken(*p.PhoneNumber, p.ID) {
		return false, userstore.ErrDuplicatePhone
	}
	s.d.users[p.ID] = models.User{
		ID:          p.ID,
		FullName:    p.FullName,
		Email:       email,
		PhoneNumber: p.PhoneNumber,
		Password:    p.Password,
		Role:        models.RoleModerator,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return true, nil
}

func (s *Users) SetRole(_ context.Context, id primitive.ObjectID, role string) (int64, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if err := s.d.hit("users.SetRole", true); err != nil {
		return 0, err
	}
	u, ok := s.d.users[id]
	if !ok {
		return 0, nil
	}
	u.Role = role
	u.UpdatedAt = time.Now().UTC()
	s.d.users[id] = u
	return 1, nil
}

func (s *Users) SetActive(_ context.Context, id primitive.ObjectID, active bool) (int64, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if err := s.d.hit("users.SetActive", true); err != nil {
		return 0, err
	}
	u, ok := s.d.users[id]
	if !ok {
		return 0, nil
	}
	u.Active = active
	u.UpdatedAt = time.Now().UTC()
	s.d.users[id] = u
	return 1, nil
}

func (s *Users) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if err := s.d.hit("users.Delete", true); err != nil {
		return 0, err
	}
	if _, ok := s.d.users[id]; !ok {
		return 0, nil
	}
	delete(s.d.users, id)
	return 1, nil
}

func (s *Users) Count(_ context.Context) (int64, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if err := s.d.hit("users.Count", false); err != nil {
		return 0, err
	}
	return int64(len(s.d.users)), nil
}

func (s *Users) CountByRole(_ context.Context, role string) (int64, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if err := s.d.hit("users.CountByRole", false); err != nil {
		return 0, err
	}
	var n int64
	for _, u := range s.d.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

func (s *Users) List(_ context.Context, role string) ([]models.User, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if err := s.d.hit("users.List", false); err != nil {
		return nil, err
	}
	out := []models.User{}
	for _, id := range sortedIDs(s.d.users) {
		u := s.d.users[id]
		if role != "" && u.Role != role {
			continue
		}
		u.Password = ""
		out = append(out, u)
	}
	return out, nil
}

func (s *Users) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if err := s.d.hit("users.FindByIDs", false); err != nil {
		return nil, err
	}
	var out []models.User
	for _, id := range ids {
		if u, ok := s.d.users[id]; ok {
			out = append(out, models.User{ID: u.ID, FullName: u.FullName, Email: u.Email, Role: u.Role})
		}
	}
	return out, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Pilgrims                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// Pilgrims mirrors pilgrimstore.Store.
type Pilgrims struct{ d *DB }

func (s *Pilgrims) GetByID(_ context.Context, id primitive.ObjectID) (*models.Pilgrim, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if err := s.d.hit("pilgrims.GetByID", false); err != nil {
		return nil, err
	}
	p, ok := s.d.pilgrims[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &p, nil
}

func (s *Pilgrims) SetRole(_ context.Context, id primitive.ObjectID, role string) (int64, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if err := s.d.hit("pilgrims.SetRole", true); err != nil {
		return 0, err
	}
	p, ok := s.d.pilgrims[id]
	if !ok {
		return 0, nil
	}
	p.Role = role
	p.UpdatedAt = time.Now().UTC()
	s.d.pilgrims[id] = p
	return 1, nil
}

func (s *Pilgrims) SetActive(_ context.Context, id primitive.ObjectID, active bool) (int64, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if err := s.d.hit("pilgrims.SetActive", true); err != nil {
		return 0, err
	}
	p, ok := s.d.pilgrims[id]
	if !ok {
		return 0, nil
	}
	p.Active = active
	p.UpdatedAt = time.Now().UTC()
	s.d.pilgrims[id] = p
	return 1, nil
}

func (s *Pilgrims) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if err := s.d.hit("pilgrims.Delete", true); err != nil {
		return 0, err
	}
	if _, ok := s.d.pilgrims[id]; !ok {
		return 0, nil
	}
	delete(s.d.pilgrims, id)
	return 1, nil
}

func (s *Pilgrims) Count(_ context.Context) (int64, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if err := s.d.hit("pilgrims.Count", false); err != nil {
		return 0, err
	}
	return int64(len(s.d.pilgrims)), nil
}

func (s *Pilgrims) List(_ context.Context) ([]models.Pilgrim, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if err := s.d.hit("pilgrims.List", false); err != nil {
		return nil, err
	}
	out := []models.Pilgrim{}
	for _, id := range sortedIDs(s.d.pilgrims) {
		p := s.d.pilgrims[id]
		p.Password = ""
		out = append(out, p)
	}
	return out, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Requests                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// Requests mirrors modrequeststore.Store.
type Requests struct{ d *DB }

func (s *Requests) GetByID(_ context.Context, id primitive.ObjectID) (*models.ModeratorRequest, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if err := s.d.hit("requests.GetByID", false); err != nil {
		return nil, err
	}
	r, ok := s.d.requests[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &r, nil
}

func (s *Requests) ListPending(_ context.Context) ([]models.PendingRequest, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if err := s.d.hit("requests.ListPending", false); err != nil {
		return nil, err
	}
	out := []models.PendingRequest{}
	for _, r := range s.d.requests {
		if r.Status != models.RequestPending {
			continue
		}
		pr := models.PendingRequest{
			ID:        r.ID,
			PilgrimID: r.PilgrimID,
			Status:    r.Status,
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		}
		if p, ok := s.d.pilgrims[r.PilgrimID]; ok {
			pr.Pilgrim = &models.Requester{
				ID:            p.ID,
				FullName:      p.FullName,
				Email:         p.Email,
				PhoneNumber:   p.PhoneNumber,
				NationalID:    p.NationalID,
				EmailVerified: p.EmailVerified,
			}
		}
		out = append(out, pr)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	return out, nil
}

func (s *Requests) MarkApproved(_ context.Context, id primitive.ObjectID, at time.Time) (bool, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if err := s.d.hit("requests.MarkApproved", true); err != nil {
		return false, err
	}
	r, ok := s.d.requests[id]
	if !ok || r.Status != models.RequestPending {
		return false, nil
	}
	r.Status = models.RequestApproved
	r.UpdatedAt = at
	s.d.requests[id] = r
	return true, nil
}

func (s *Requests) MarkRejected(_ context.Context, id primitive.ObjectID, at time.Time) (int64, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if err := s.d.hit("requests.MarkRejected", true); err != nil {
		return 0, err
	}
	r, ok := s.d.requests[id]
	if !ok {
		return 0, nil
	}
	r.Status = models.RequestRejected
	r.UpdatedAt = at
	s.d.requests[id] = r
	return 1, nil
}

func (s *Requests) DeleteByPilgrim(_ context.Context, pilgrimID primitive.ObjectID) (int64, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if err := s.d.hit("requests.DeleteByPilgrim", true); err != nil {
		return 0, err
	}
	var n int64
	for id, r := range s.d.requests {
		if r.PilgrimID == pilgrimID {
			delete(s.d.requests, id)
			n++
		}
	}
	return n, nil
}

func (s *Requests) CountPending(_ context.Context) (int64, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if err := s.d.hit("requests.CountPending", false); err != nil {
		return 0, err
	}
	var n int64
	for _, r := range s.d.requests {
		if r.Status == models.RequestPending {
			n++
		}
	}
	return n, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Groups                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// Groups mirrors groupstore.Store.
type Groups struct{ d *DB }

func (s *Groups) List(_ context.Context) ([]models.Group, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if err := s.d.hit("groups.List", false); err != nil {
		return nil, err
	}
	out := []models.Group{}
	for _, id := range sortedIDs(s.d.groups) {
		out = append(out, s.d.groups[id])
	}
	return out, nil
}

func (s *Groups) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if err := s.d.hit("groups.Delete", true); err != nil {
		return 0, err
	}
	if _, ok := s.d.groups[id]; !ok {
		return 0, nil
	}
	delete(s.d.groups, id)
	return 1, nil
}

func (s *Groups) Count(_ context.Context) (int64, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if err := s.d.hit("groups.Count", false); err != nil {
		return 0, err
	}
	return int64(len(s.d.groups)), nil
}
