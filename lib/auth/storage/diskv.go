package storage

import (
	"context"
	"strconv"

	"github.com/gravitational/trace"
	"github.com/peterbourgon/diskv/v3"

	"github.com/statboard/statboard-cli/lib/logger"
)

// Fixed well-known keys, one per credential field.
const (
	accessTokenKey      = "access_token"
	refreshTokenKey     = "refresh_token"
	tokenTypeKey        = "token_type"
	expiresInKey        = "expires_in"
	refreshExpiresInKey = "refresh_expires_in"
	issuedAtKey         = "issued_at"
	profileKey          = "user_profile"
)

// cacheSizeMaxBytes max memory cache
const cacheSizeMaxBytes = 1024

var recordKeys = []string{
	accessTokenKey,
	refreshTokenKey,
	tokenTypeKey,
	expiresInKey,
	refreshExpiresInKey,
	issuedAtKey,
	profileKey,
}

// DiskvStore is the persistent Store implementation. Each field lives
// under its own key in the storage directory.
type DiskvStore struct {
	dv *diskv.Diskv
}

// NewDiskvStore creates a Store backed by the given directory.
func NewDiskvStore(dir string) (*DiskvStore, error) {
	if dir == "" {
		return nil, trace.BadParameter("missing storage directory")
	}

	// Simplest transform function: put all the data files into the base dir.
	flatTransform := func(s string) []string { return []string{} }

	dv := diskv.New(diskv.Options{
		BasePath:     dir,
		Transform:    flatTransform,
		CacheSizeMax: cacheSizeMaxBytes,
	})

	return &DiskvStore{dv: dv}, nil
}

func (s *DiskvStore) Save(ctx context.Context, record Record) error {
	fields := map[string]string{
		accessTokenKey:      record.AccessToken,
		refreshTokenKey:     record.RefreshToken,
		tokenTypeKey:        record.TokenType,
		expiresInKey:        strconv.FormatInt(record.ExpiresIn, 10),
		refreshExpiresInKey: strconv.FormatInt(record.RefreshExpiresIn, 10),
		issuedAtKey:         strconv.FormatInt(record.IssuedAt, 10),
	}
	for _, key := range recordKeys {
		value, ok := fields[key]
		if !ok {
			continue
		}
		if err := s.dv.Write(key, []byte(value)); err != nil {
			return trace.Wrap(err, "failed to persist credential field %q", key)
		}
	}
	return nil
}

func (s *DiskvStore) Read(ctx context.Context) Record {
	return Record{
		AccessToken:      s.readString(ctx, accessTokenKey),
		RefreshToken:     s.readString(ctx, refreshTokenKey),
		TokenType:        s.readString(ctx, tokenTypeKey),
		ExpiresIn:        s.readInt(ctx, expiresInKey),
		RefreshExpiresIn: s.readInt(ctx, refreshExpiresInKey),
		IssuedAt:         s.readInt(ctx, issuedAtKey),
	}
}

func (s *DiskvStore) Clear(ctx context.Context) error {
	var errors []error
	for _, key := range recordKeys {
		if !s.dv.Has(key) {
			continue
		}
		if err := s.dv.Erase(key); err != nil {
			errors = append(errors, trace.Wrap(err, "failed to erase %q", key))
		}
	}
	return trace.NewAggregate(errors...)
}

func (s *DiskvStore) SaveProfile(ctx context.Context, profile []byte) error {
	return trace.Wrap(s.dv.Write(profileKey, profile))
}

func (s *DiskvStore) ReadProfile(ctx context.Context) []byte {
	if !s.dv.Has(profileKey) {
		return nil
	}
	b, err := s.dv.Read(profileKey)
	if err != nil {
		logger.Get(ctx).WithError(err).Debugf("Failed to read %q", profileKey)
		return nil
	}
	return b
}

func (s *DiskvStore) readString(ctx context.Context, key string) string {
	if !s.dv.Has(key) {
		return ""
	}
	b, err := s.dv.Read(key)
	if err != nil {
		logger.Get(ctx).WithError(err).Debugf("Failed to read %q", key)
		return ""
	}
	return string(b)
}

func (s *DiskvStore) readInt(ctx context.Context, key string) int64 {
	str := s.readString(ctx, key)
	if str == "" {
		return 0
	}
	n, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		// Unparseable numeric fields count as missing.
		return 0
	}
	return n
}

var _ Store = &DiskvStore{}
