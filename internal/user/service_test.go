package user

import (
	"context"
	"errors"
	"testing"
)

// storeStub is an in-memory Store.
type storeStub struct {
	users  map[int64]*User
	nextID int64
}

func newStoreStub() *storeStub {
	return &storeStub{users: map[int64]*User{}, nextID: 1}
}

func (s *storeStub) Create(ctx context.Context, username, passwordHash string, admin bool) (*User, error) {
	for _, u := range s.users {
		if u.Username == username {
			return nil, ErrUsernameTaken
		}
	}
	u := &User{ID: s.nextID, Username: username, PasswordHash: passwordHash, Admin: admin}
	s.users[u.ID] = u
	s.nextID++
	return u, nil
}

func (s *storeStub) GetByID(ctx context.Context, id int64) (*User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *storeStub) GetByUsername(ctx context.Context, username string) (*User, error) {
	for _, u := range s.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *storeStub) List(ctx context.Context) ([]*User, error) {
	out := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		copied := *u
		out = append(out, &copied)
	}
	return out, nil
}

func (s *storeStub) Update(ctx context.Context, u *User) (*User, error) {
	if _, ok := s.users[u.ID]; !ok {
		return nil, ErrNotFound
	}
	copied := *u
	s.users[u.ID] = &copied
	returned := copied
	return &returned, nil
}

func (s *storeStub) Delete(ctx context.Context, id int64) error {
	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *storeStub) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := s.GetByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *storeStub) CountAdmins(ctx context.Context) (int64, error) {
	var count int64
	for _, u := range s.users {
		if u.Admin {
			count++
		}
	}
	return count, nil
}

// hasherStub makes hashes recognizable in assertions.
type hasherStub struct{}

func (hasherStub) Hash(password string) (string, error) { return "hash:" + password, nil }

func (hasherStub) Compare(hash string, password string) error {
	if hash != "hash:"+password {
		return errors.New("mismatch")
	}
	return nil
}

func newTestService() (*Service, *storeStub) {
	store := newStoreStub()
	return NewService(store, hasherStub{}), store
}

func TestCreateHashesPassword(t *testing.T) {
	svc, store := newTestService()

	u, err := svc.Create(context.Background(), "alice", "secret", false)
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	if u.ID == 0 {
		t.Fatal("expected assigned ID")
	}
	if store.users[u.ID].PasswordHash != "hash:secret" {
		t.Fatalf("expected hashed password, got %q", store.users[u.ID].PasswordHash)
	}
}

func TestCreateDuplicateUsername(t *testing.T) {
	svc, store := newTestService()

	if _, err := svc.Create(context.Background(), "bob", "secret", false); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if _, err := svc.Create(context.Background(), "bob", "other", true); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if len(store.users) != 1 {
		t.Fatalf("expected no write on conflict, store has %d users", len(store.users))
	}
}

func TestPatchAppliesOnlySuppliedFields(t *testing.T) {
	svc, _ := newTestService()

	u, err := svc.Create(context.Background(), "carol", "secret", true)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	newName := "caroline"
	patched, err := svc.Patch(context.Background(), u.ID, UpdateRequest{Username: &newName})
	if err != nil {
		t.Fatalf("patch returned error: %v", err)
	}
	if patched.Username != "caroline" {
		t.Fatalf("username not updated: %q", patched.Username)
	}
	if patched.PasswordHash != "hash:secret" {
		t.Fatalf("password changed unexpectedly: %q", patched.PasswordHash)
	}
	if !patched.Admin {
		t.Fatal("admin flag changed unexpectedly")
	}
}

func TestPatchRehashesSuppliedPassword(t *testing.T) {
	svc, store := newTestService()

	u, err := svc.Create(context.Background(), "dave", "secret", false)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	newPW := "newsecret"
	if _, err := svc.Patch(context.Background(), u.ID, UpdateRequest{Password: &newPW}); err != nil {
		t.Fatalf("patch returned error: %v", err)
	}
	if store.users[u.ID].PasswordHash != "hash:newsecret" {
		t.Fatalf("expected re-hashed password, got %q", store.users[u.ID].PasswordHash)
	}
}

func TestPatchEmptyRequestLeavesFieldsUnchanged(t *testing.T) {
	svc, _ := newTestService()

	u, err := svc.Create(context.Background(), "erin", "secret", true)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	patched, err := svc.Patch(context.Background(), u.ID, UpdateRequest{})
	if err != nil {
		t.Fatalf("patch returned error: %v", err)
	}
	if patched.Username != u.Username || patched.PasswordHash != u.PasswordHash || patched.Admin != u.Admin {
		t.Fatalf("fields changed by empty patch: %+v vs %+v", patched, u)
	}
}

func TestPatchNotFound(t *testing.T) {
	svc, _ := newTestService()

	if _, err := svc.Patch(context.Background(), 42, UpdateRequest{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteLastAdminFails(t *testing.T) {
	svc, store := newTestService()

	admin, err := svc.Create(context.Background(), "root", "secret", true)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	before, _ := store.CountAdmins(context.Background())
	if err := svc.Delete(context.Background(), admin.ID); !errors.Is(err, ErrLastAdmin) {
		t.Fatalf("expected ErrLastAdmin, got %v", err)
	}
	after, _ := store.CountAdmins(context.Background())
	if before != after || after != 1 {
		t.Fatalf("admin count changed: before=%d after=%d", before, after)
	}
	if _, ok := store.users[admin.ID]; !ok {
		t.Fatal("user removed despite last-admin guard")
	}
}

func TestDeleteAdminWithAnotherAdminSucceeds(t *testing.T) {
	svc, store := newTestService()

	first, _ := svc.Create(context.Background(), "root", "secret", true)
	if _, err := svc.Create(context.Background(), "backup", "secret", true); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := svc.Delete(context.Background(), first.ID); err != nil {
		t.Fatalf("delete returned error: %v", err)
	}
	count, _ := store.CountAdmins(context.Background())
	if count != 1 {
		t.Fatalf("expected admin count 1, got %d", count)
	}
}

func TestDeleteNonAdminSkipsAdminCount(t *testing.T) {
	svc, store := newTestService()

	u, _ := svc.Create(context.Background(), "frank", "secret", false)
	if err := svc.Delete(context.Background(), u.ID); err != nil {
		t.Fatalf("delete returned error: %v", err)
	}
	if _, ok := store.users[u.ID]; ok {
		t.Fatal("user not removed")
	}
}

func TestResponseOmitsPasswordHash(t *testing.T) {
	u := &User{ID: 7, Username: "grace", PasswordHash: "hash:pw", Admin: true}
	resp := ToResponse(u)
	if resp.ID != 7 || resp.Username != "grace" || !resp.Admin {
		t.Fatalf("unexpected response %+v", resp)
	}
}
