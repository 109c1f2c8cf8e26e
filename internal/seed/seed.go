// Package seed loads demo users, doctor profiles and articles from YAML.
// Applying fixtures is idempotent: anything already present is skipped.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/access"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/content"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/doctor"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

//go:embed demo.yaml
var demo []byte

type Fixtures struct {
	Users   []UserFixture    `yaml:"users"`
	Content []ContentFixture `yaml:"content"`
}

type UserFixture struct {
	Email     string         `yaml:"email"`
	Password  string         `yaml:"password"`
	FirstName string         `yaml:"firstName"`
	LastName  string         `yaml:"lastName"`
	Role      access.Role    `yaml:"role"`
	Doctor    *DoctorFixture `yaml:"doctor"`
}

type DoctorFixture struct {
	Specialty         string   `yaml:"specialty"`
	Qualifications    []string `yaml:"qualifications"`
	LicenseNumber     string   `yaml:"licenseNumber"`
	Bio               string   `yaml:"bio"`
	YearsOfExperience int      `yaml:"yearsOfExperience"`
	ConsultationFee   int64    `yaml:"consultationFee"`
	Languages         []string `yaml:"languages"`
	AcceptingPatients *bool    `yaml:"acceptingPatients"`
}

type ContentFixture struct {
	Title      string   `yaml:"title"`
	Slug       string   `yaml:"slug"`
	Summary    string   `yaml:"summary"`
	Body       string   `yaml:"body"`
	Categories []string `yaml:"categories"`
	Tags       []string `yaml:"tags"`
	Published  bool     `yaml:"published"`
	// Author is the email of a seeded or existing user.
	Author string `yaml:"author"`
}

// Load decodes fixtures, rejecting unknown keys so typos do not silently
// drop data.
func Load(r io.Reader) (*Fixtures, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Fixtures
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding fixtures: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func LoadFile(path string) (*Fixtures, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening fixtures: %w", err)
	}
	defer fh.Close()
	return Load(fh)
}

// Demo returns the built-in demo data set.
func Demo() (*Fixtures, error) {
	return Load(bytes.NewReader(demo))
}

func (f *Fixtures) validate() error {
	var problems []string
	for i, u := range f.Users {
		if u.Email == "" || u.Password == "" || u.FirstName == "" {
			problems = append(problems, fmt.Sprintf("users[%d]: email, password and firstName are required", i))
		}
		if !u.Role.IsValid() {
			problems = append(problems, fmt.Sprintf("users[%d]: invalid role %q", i, u.Role))
		}
		if u.Doctor != nil && u.Role != access.RoleDoctor {
			problems = append(problems, fmt.Sprintf("users[%d]: doctor profile on a %s", i, u.Role))
		}
		if u.Doctor != nil && u.Doctor.Specialty == "" {
			problems = append(problems, fmt.Sprintf("users[%d]: doctor specialty is required", i))
		}
	}
	for i, c := range f.Content {
		if c.Title == "" || c.Body == "" || c.Author == "" {
			problems = append(problems, fmt.Sprintf("content[%d]: title, body and author are required", i))
		}
		if c.Slug != "" && !content.ValidSlug(c.Slug) {
			problems = append(problems, fmt.Sprintf("content[%d]: invalid slug %q", i, c.Slug))
		}
	}
	if len(problems) > 0 {
		return errors.New("invalid fixtures: " + strings.Join(problems, "; "))
	}
	return nil
}

type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type Result struct {
	Users    int
	Profiles int
	Content  int
	Skipped  int
}

type Seeder struct {
	users   UserStore
	doctors doctor.Repository
	content content.Repository
	log     *zap.Logger
	now     func() time.Time
	cost    int
}

func NewSeeder(users UserStore, doctors doctor.Repository, contents content.Repository, log *zap.Logger) *Seeder {
	return &Seeder{
		users:   users,
		doctors: doctors,
		content: contents,
		log:     log,
		now:     time.Now,
		cost:    bcrypt.DefaultCost,
	}
}

func (s *Seeder) Apply(ctx context.Context, f *Fixtures) (*Result, error) {
	res := &Result{}
	authors := make(map[string]uuid.UUID)

	for _, uf := range f.Users {
		u, created, err := s.user(ctx, uf)
		if err != nil {
			return res, err
		}
		authors[strings.ToLower(u.Email)] = u.ID
		if created {
			res.Users++
		} else {
			res.Skipped++
		}

		if uf.Doctor == nil {
			continue
		}
		ok, err := s.doctorProfile(ctx, u.ID, uf.Doctor)
		if err != nil {
			return res, err
		}
		if ok {
			res.Profiles++
		} else {
			res.Skipped++
		}
	}

	for _, cf := range f.Content {
		authorID, ok := authors[strings.ToLower(cf.Author)]
		if !ok {
			u, err := s.users.GetByEmail(ctx, cf.Author)
			if err != nil {
				return res, fmt.Errorf("content %q: author %s: %w", cf.Title, cf.Author, err)
			}
			authorID = u.ID
		}
		ok, err := s.article(ctx, authorID, cf)
		if err != nil {
			return res, err
		}
		if ok {
			res.Content++
		} else {
			res.Skipped++
		}
	}

	s.log.Info("seed applied",
		zap.Int("users", res.Users),
		zap.Int("profiles", res.Profiles),
		zap.Int("content", res.Content),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

func (s *Seeder) user(ctx context.Context, uf UserFixture) (*domain.User, bool, error) {
	existing, err := s.users.GetByEmail(ctx, uf.Email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, false, fmt.Errorf("looking up %s: %w", uf.Email, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(uf.Password), s.cost)
	if err != nil {
		return nil, false, fmt.Errorf("hashing password: %w", err)
	}
	u := &domain.User{
		Email:             strings.ToLower(uf.Email),
		PasswordHash:      string(hash),
		FirstName:         uf.FirstName,
		LastName:          uf.LastName,
		Role:              uf.Role,
		IsActive:          true,
		PasswordChangedAt: s.now(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, false, fmt.Errorf("creating %s: %w", uf.Email, err)
	}
	return u, true, nil
}

func (s *Seeder) doctorProfile(ctx context.Context, userID uuid.UUID, df *DoctorFixture) (bool, error) {
	p := &doctor.Profile{
		UserID:              userID,
		Specialty:           df.Specialty,
		Qualifications:      df.Qualifications,
		LicenseNumber:       df.LicenseNumber,
		Bio:                 df.Bio,
		YearsOfExperience:   df.YearsOfExperience,
		ConsultationFee:     df.ConsultationFee,
		Languages:           df.Languages,
		IsAcceptingPatients: df.AcceptingPatients == nil || *df.AcceptingPatients,
	}
	err := s.doctors.Create(ctx, p)
	if errors.Is(err, doctor.ErrProfileExists) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("creating doctor profile: %w", err)
	}
	return true, nil
}

func (s *Seeder) article(ctx context.Context, authorID uuid.UUID, cf ContentFixture) (bool, error) {
	slug := cf.Slug
	if slug == "" {
		slug = content.Slugify(cf.Title)
	}
	taken, err := s.content.SlugExists(ctx, slug, nil)
	if err != nil {
		return false, fmt.Errorf("checking slug %q: %w", slug, err)
	}
	if taken {
		return false, nil
	}

	c := &content.Content{
		Title:       cf.Title,
		Slug:        slug,
		Body:        cf.Body,
		Summary:     cf.Summary,
		Categories:  cf.Categories,
		Tags:        cf.Tags,
		ReadingTime: content.EstimateReadingTime(cf.Body),
		AuthorID:    authorID,
	}
	if cf.Published {
		c.Publish(s.now())
	}
	if err := s.content.Create(ctx, c); err != nil {
		return false, fmt.Errorf("creating content %q: %w", slug, err)
	}
	return true, nil
}
