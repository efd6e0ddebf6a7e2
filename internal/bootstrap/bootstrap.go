// Package bootstrap performs one-time startup tasks: seeding the initial
// admin account and provisioning the storage bucket. It runs after
// migrations and before the HTTP listener starts.
package bootstrap

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"math/big"

	"github.com/clientbook/service/internal/user"
)

const seedPasswordLength = 10

// AdminStore is the slice of the user service bootstrap needs.
type AdminStore interface {
	CountAdmins(ctx context.Context) (int64, error)
	Create(ctx context.Context, username, plainPassword string, admin bool) (*user.User, error)
}

// Buckets provisions the object storage bucket.
type Buckets interface {
	EnsureBucket(ctx context.Context) error
}

// Run seeds an initial admin user when no administrators exist and ensures
// the storage bucket is present. The generated password is surfaced once
// through the log and is not recoverable afterwards.
func Run(ctx context.Context, users AdminStore, store Buckets, adminUsername string) error {
	count, err := users.CountAdmins(ctx)
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}

	if count == 0 {
		pw, err := randomPassword(seedPasswordLength)
		if err != nil {
			return fmt.Errorf("generate admin password: %w", err)
		}
		if _, err := users.Create(ctx, adminUsername, pw, true); err != nil {
			return fmt.Errorf("create initial admin: %w", err)
		}
		log.Printf("bootstrap: created initial admin user %q with password: %s", adminUsername, pw)
	}

	if err := store.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	return nil
}

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// randomPassword generates a cryptographically secure alphanumeric string.
func randomPassword(length int) (string, error) {
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(passwordAlphabet))))
		if err != nil {
			return "", err
		}
		buf[i] = passwordAlphabet[n.Int64()]
	}
	return string(buf), nil
}
