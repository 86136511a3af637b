package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"blogapi/internal/auth"
	"blogapi/internal/config"
	"blogapi/internal/db"
	apperrors "blogapi/internal/errors"
	"blogapi/internal/logging"
	"blogapi/internal/repository"
	"blogapi/internal/service"
	"blogapi/internal/storage"
)

const fetchTimeout = 30 * time.Second

// SeedData represents the structure of the seed document.
type SeedData struct {
	Users []SeedUser `json:"users"`
	Posts []SeedPost `json:"posts"`
}

// SeedUser is a demo account.
type SeedUser struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SeedPost is a demo post. Cover is a file path relative to the seed document,
// or an absolute URL.
type SeedPost struct {
	Author  string `json:"author"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Content string `json:"content"`
	Cover   string `json:"cover"`
}

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.IsProduction())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger.Info("starting seed", zap.String("source", cfg.SeedSource))

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	data, err := load(ctx, cfg.SeedSource)
	if err != nil {
		return err
	}
	logger.Info("loaded seed data", zap.Int("users", len(data.Users)), zap.Int("posts", len(data.Posts)))

	uploader, err := storage.New(ctx, cfg)
	if err != nil {
		return err
	}
	hasher, err := auth.NewHasher(cfg.PasswordHasher, cfg.BcryptCost)
	if err != nil {
		return err
	}

	userRepo := repository.NewUserRepository(gormDB)
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	authService := service.NewAuthService(userRepo, hasher, jwtService, cfg.TokenTTL)
	postService := service.NewPostService(repository.NewPostRepository(gormDB), uploader, auth.NewGuard(jwtService), nil)

	authors := make(map[string]auth.Identity, len(data.Users))
	created, existing := 0, 0
	for _, u := range data.Users {
		user, err := authService.Register(ctx, u.Username, u.Password)
		switch {
		case errors.Is(err, apperrors.ErrDuplicateUsername):
			user, err = userRepo.FindByUsername(ctx, u.Username)
			if err != nil {
				return fmt.Errorf("find user %s: %w", u.Username, err)
			}
			existing++
		case err != nil:
			return fmt.Errorf("register %s: %w", u.Username, err)
		default:
			created++
		}
		authors[u.Username] = auth.Identity{UserID: user.ID}
	}
	logger.Info("seeded users", zap.Int("created", created), zap.Int("existing", existing))

	posts, skipped := 0, 0
	for _, p := range data.Posts {
		identity, ok := authors[p.Author]
		if !ok {
			logger.Warn("skipping post with unknown author", zap.String("title", p.Title), zap.String("author", p.Author))
			skipped++
			continue
		}
		if err := seedPost(ctx, postService, identity, cfg.SeedSource, p); err != nil {
			return err
		}
		posts++
	}
	logger.Info("seed completed", zap.Int("posts", posts), zap.Int("skipped", skipped))
	return nil
}

func seedPost(ctx context.Context, svc service.PostService, identity auth.Identity, source string, p SeedPost) error {
	cover, err := open(ctx, resolve(source, p.Cover))
	if err != nil {
		return fmt.Errorf("open cover for %q: %w", p.Title, err)
	}
	defer cover.Close()

	in := service.PostInput{Title: p.Title, Summary: p.Summary, Content: p.Content}
	upload := &service.CoverUpload{Filename: path.Base(p.Cover), Body: cover}
	if _, err := svc.Create(ctx, identity, in, upload); err != nil {
		return fmt.Errorf("create post %q: %w", p.Title, err)
	}
	return nil
}

// load reads the seed document from a local path or an http(s) URL.
func load(ctx context.Context, source string) (*SeedData, error) {
	r, err := open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var data SeedData
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return &data, nil
}

// resolve makes ref relative to the location of the seed document unless it is absolute.
func resolve(source, ref string) string {
	if isURL(ref) || filepath.IsAbs(ref) {
		return ref
	}
	if isURL(source) {
		i := strings.LastIndex(source, "/")
		return source[:i+1] + ref
	}
	return filepath.Join(filepath.Dir(source), ref)
}

func open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if !isURL(ref) {
		f, err := os.Open(ref)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", ref, err)
		}
		return f, nil
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to fetch %s: %w", ref, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("%s returned status code: %d", ref, resp.StatusCode)
	}
	return &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}, nil
}

func isURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	defer c.cancel()
	return c.ReadCloser.Close()
}
