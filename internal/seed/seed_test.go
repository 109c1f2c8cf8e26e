package seed

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/access"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/content"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/doctor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type memUsers struct {
	byEmail map[string]*domain.User
}

func (m *memUsers) Create(_ context.Context, u *domain.User) error {
	u.ID = uuid.New()
	m.byEmail[u.Email] = u
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := m.byEmail[strings.ToLower(email)]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

type memDoctors struct {
	doctor.Repository
	byUser map[uuid.UUID]*doctor.Profile
}

func (m *memDoctors) Create(_ context.Context, p *doctor.Profile) error {
	if _, ok := m.byUser[p.UserID]; ok {
		return doctor.ErrProfileExists
	}
	m.byUser[p.UserID] = p
	return nil
}

type memContent struct {
	content.Repository
	bySlug map[string]*content.Content
}

func (m *memContent) Create(_ context.Context, c *content.Content) error {
	m.bySlug[c.Slug] = c
	return nil
}

func (m *memContent) SlugExists(_ context.Context, slug string, _ *uuid.UUID) (bool, error) {
	_, ok := m.bySlug[slug]
	return ok, nil
}

func newSeeder() (*Seeder, *memUsers, *memDoctors, *memContent) {
	users := &memUsers{byEmail: make(map[string]*domain.User)}
	doctors := &memDoctors{byUser: make(map[uuid.UUID]*doctor.Profile)}
	contents := &memContent{bySlug: make(map[string]*content.Content)}
	s := NewSeeder(users, doctors, contents, zap.NewNop())
	s.cost = bcrypt.MinCost
	s.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }
	return s, users, doctors, contents
}

func TestDemoFixturesApplyOnce(t *testing.T) {
	f, err := Demo()
	require.NoError(t, err)

	s, users, doctors, contents := newSeeder()
	res, err := s.Apply(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Users)
	assert.Equal(t, 2, res.Profiles)
	assert.Equal(t, 2, res.Content)
	assert.Zero(t, res.Skipped)

	rivera := users.byEmail["dr.rivera@clinic.example"]
	require.NotNil(t, rivera)
	assert.Equal(t, access.RoleDoctor, rivera.Role)
	assert.True(t, rivera.IsActive)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(rivera.PasswordHash), []byte("change-me-doctor-2024")))
	assert.True(t, doctors.byUser[rivera.ID].IsAcceptingPatients)

	article := contents.bySlug["understanding-high-blood-pressure"]
	require.NotNil(t, article)
	assert.Equal(t, rivera.ID, article.AuthorID)
	assert.True(t, article.Published)
	require.NotNil(t, article.PublishedAt)
	assert.Positive(t, article.ReadingTime)

	res, err = s.Apply(context.Background(), f)
	require.NoError(t, err)
	assert.Zero(t, res.Users+res.Profiles+res.Content)
	assert.Equal(t, 8, res.Skipped)
}

func TestContentAuthorMustExist(t *testing.T) {
	f, err := Load(strings.NewReader(`
content:
  - title: Orphan
    body: nobody wrote this
    author: ghost@clinic.example
`))
	require.NoError(t, err)

	s, _, _, _ := newSeeder()
	_, err = s.Apply(context.Background(), f)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestLoadRejectsBadFixtures(t *testing.T) {
	cases := map[string]string{
		"unknown key":      "users:\n  - email: a@b.c\n    pasword: x\n",
		"invalid role":     "users:\n  - email: a@b.c\n    password: x\n    firstName: A\n    role: NURSE\n",
		"profile on admin": "users:\n  - email: a@b.c\n    password: x\n    firstName: A\n    role: ADMIN\n    doctor:\n      specialty: X\n",
		"missing author":   "content:\n  - title: T\n    body: B\n",
		"bad slug":         "content:\n  - title: T\n    slug: Not A Slug\n    body: B\n    author: a@b.c\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}
