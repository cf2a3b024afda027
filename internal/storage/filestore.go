package storage

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const contentTypeSuffix = ".content-type"

// FileStore keeps objects under a local directory and serves them through
// signed, expiring links.
type FileStore struct {
	root    string
	baseURL string
	secret  []byte
	now     func() time.Time
}

type linkClaims struct {
	Key string `json:"key"`
	jwt.RegisteredClaims
}

// NewFileStore constructs a filesystem store. baseURL is the public prefix the
// download handler is mounted under, for example "https://admin.example/files".
func NewFileStore(root, baseURL string, secret []byte) (*FileStore, error) {
	if root == "" {
		return nil, errors.New("file store: empty root")
	}
	if len(secret) == 0 {
		return nil, errors.New("file store: empty signing secret")
	}
	return &FileStore{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
		now:     time.Now,
	}, nil
}

// Put writes body atomically.
func (s *FileStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.WriteFile(target+contentTypeSuffix, []byte(contentType), 0o644)
}

// SignedURL returns a link that stays valid for ttl.
func (s *FileStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	target, err := s.pathFor(key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrObjectNotFound
		}
		return "", err
	}
	now := s.now()
	claims := linkClaims{
		Key: key,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", err
	}
	return s.baseURL + "/" + token, nil
}

// Handler serves objects addressed by the token in the last path segment.
func (s *FileStore) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		token := path.Base(r.URL.Path)
		key, err := s.verify(token)
		if err != nil {
			http.Error(w, "link invalid or expired", http.StatusForbidden)
			return
		}
		target, err := s.pathFor(key)
		if err != nil {
			http.Error(w, "link invalid or expired", http.StatusForbidden)
			return
		}
		if _, err := os.Stat(target); err != nil {
			http.Error(w, "file not found", http.StatusNotFound)
			return
		}
		if contentType, err := os.ReadFile(target + contentTypeSuffix); err == nil && len(contentType) > 0 {
			w.Header().Set("Content-Type", string(contentType))
		}
		w.Header().Set("Content-Disposition", `attachment; filename="`+path.Base(key)+`"`)
		http.ServeFile(w, r, target)
	})
}

func (s *FileStore) verify(token string) (string, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	claims := &linkClaims{}
	if _, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}); err != nil {
		return "", err
	}
	if claims.Key == "" {
		return "", errors.New("file store: token without key")
	}
	return claims.Key, nil
}

func (s *FileStore) pathFor(key string) (string, error) {
	clean := path.Clean("/" + key)
	if key == "" || clean == "/" || strings.HasSuffix(clean, contentTypeSuffix) {
		return "", errors.New("file store: invalid key")
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}
