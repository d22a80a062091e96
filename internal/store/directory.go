package store

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"clinic-dashboard-server/internal/models"
)

// Directory supplies the patient and doctor reference lists that the edit
// form uses to resolve display names.
type Directory interface {
	Patients(ctx context.Context) ([]models.Person, error)
	Doctors(ctx context.Context) ([]models.Person, error)
}

// Invalidator is implemented by directories that cache their lists.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Lookup finds a person by id.
func Lookup(people []models.Person, id models.ID) (models.Person, bool) {
	for _, p := range people {
		if p.ID == id {
			return p, true
		}
	}
	return models.Person{}, false
}

// RemoteDirectory reads /api/users from the clinic API and splits the
// result by role.
type RemoteDirectory struct {
	client *remoteClient
}

// NewRemoteDirectory creates a RemoteDirectory.
func NewRemoteDirectory(cfg RemoteConfig) *RemoteDirectory {
	return &RemoteDirectory{client: newRemoteClient(cfg)}
}

type remoteUser struct {
	ID       models.ID `json:"id"`
	FullName string    `json:"fullName"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Phone    string    `json:"phone"`
	Role     string    `json:"role"`
}

func (u remoteUser) person() models.Person {
	name := u.FullName
	if name == "" {
		name = u.Name
	}
	return models.Person{ID: u.ID, Name: name, Email: u.Email, Phone: u.Phone, Role: models.ParseRole(u.Role)}
}

func (d *RemoteDirectory) users(ctx context.Context) ([]models.Person, error) {
	data, err := d.client.do(ctx, http.MethodGet, "/api/users", nil)
	if err != nil {
		return nil, err
	}

	var list []remoteUser
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, networkError(err, "decode users: %v", err)
		}
	} else {
		var env struct {
			Users []remoteUser `json:"users"`
		}
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, networkError(err, "decode users: %v", err)
		}
		list = env.Users
	}

	out := make([]models.Person, 0, len(list))
	for _, u := range list {
		out = append(out, u.person())
	}
	return out, nil
}

func (d *RemoteDirectory) byRole(ctx context.Context, keep func(models.Role) bool) ([]models.Person, error) {
	all, err := d.users(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Person, 0, len(all))
	for _, p := range all {
		if keep(p.Role) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Patients returns users with a patient or plain user role.
func (d *RemoteDirectory) Patients(ctx context.Context) ([]models.Person, error) {
	return d.byRole(ctx, models.Role.IsPatient)
}

// Doctors returns users with the doctor role.
func (d *RemoteDirectory) Doctors(ctx context.Context) ([]models.Person, error) {
	return d.byRole(ctx, func(r models.Role) bool { return r == models.RoleDoctor })
}

// DatabaseDirectory reads the users table.
type DatabaseDirectory struct {
	DB *gorm.DB
}

// NewDatabaseDirectory creates a DatabaseDirectory.
func NewDatabaseDirectory(db *gorm.DB) *DatabaseDirectory {
	return &DatabaseDirectory{DB: db}
}

func (d *DatabaseDirectory) byRoles(ctx context.Context, roles ...models.Role) ([]models.Person, error) {
	var users []models.User
	if err := d.DB.WithContext(ctx).Where("role IN ?", roles).Order("full_name asc").Find(&users).Error; err != nil {
		return nil, networkError(err, "Failed to fetch users: %v", err)
	}
	out := make([]models.Person, 0, len(users))
	for _, u := range users {
		out = append(out, u.ToPerson())
	}
	return out, nil
}

// Patients returns patient and plain user rows.
func (d *DatabaseDirectory) Patients(ctx context.Context) ([]models.Person, error) {
	return d.byRoles(ctx, models.RolePatient, models.RoleUser)
}

// Doctors returns doctor rows.
func (d *DatabaseDirectory) Doctors(ctx context.Context) ([]models.Person, error) {
	return d.byRoles(ctx, models.RoleDoctor)
}

// CachedDirectory keeps the reference lists in redis for TTL. Cache
// failures fall through to the wrapped directory.
type CachedDirectory struct {
	next   Directory
	redis  *redis.Client
	ttl    time.Duration
	prefix string
}

// NewCachedDirectory wraps next with a redis cache.
func NewCachedDirectory(next Directory, client *redis.Client, ttl time.Duration) *CachedDirectory {
	return &CachedDirectory{next: next, redis: client, ttl: ttl, prefix: "clinic:directory:"}
}

var _ Invalidator = (*CachedDirectory)(nil)

// Patients returns the cached patient list.
func (c *CachedDirectory) Patients(ctx context.Context) ([]models.Person, error) {
	return c.cached(ctx, "patients", c.next.Patients)
}

// Doctors returns the cached doctor list.
func (c *CachedDirectory) Doctors(ctx context.Context) ([]models.Person, error) {
	return c.cached(ctx, "doctors", c.next.Doctors)
}

// Invalidate drops both lists so the next read reloads them.
func (c *CachedDirectory) Invalidate(ctx context.Context) error {
	return c.redis.Del(ctx, c.prefix+"patients", c.prefix+"doctors").Err()
}

func (c *CachedDirectory) cached(ctx context.Context, name string, load func(context.Context) ([]models.Person, error)) ([]models.Person, error) {
	key := c.prefix + name
	data, err := c.redis.Get(ctx, key).Bytes()
	if err == nil {
		var people []models.Person
		if json.Unmarshal(data, &people) == nil {
			return people, nil
		}
	}

	people, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if buf, err := json.Marshal(people); err == nil {
		c.redis.Set(ctx, key, buf, c.ttl)
	}
	return people, nil
}
