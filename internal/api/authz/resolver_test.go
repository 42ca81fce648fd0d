package authz

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type fakeLookup struct {
	mu    sync.Mutex
	roles map[string]string
	err   error
	calls int
}

func (f *fakeLookup) GetRole(ctx context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	role, ok := f.roles[userID]
	if !ok {
		return "", ErrRoleNotFound
	}
	return role, nil
}

func TestResolverResolvesAssignedRole(t *testing.T) {
	resolver := NewResolver(&fakeLookup{roles: map[string]string{"u1": "gm"}})

	res := resolver.Resolve(context.Background(), "u1")
	if !res.Resolved || res.Role != RoleGM {
		t.Fatalf("expected resolved gm, got %+v", res)
	}
	if current := resolver.Current(); current != res {
		t.Fatalf("expected current %+v, got %+v", res, current)
	}
}

func TestResolverNoRowIsUnresolved(t *testing.T) {
	resolver := NewResolver(&fakeLookup{roles: map[string]string{}})

	res := resolver.Resolve(context.Background(), "u1")
	if res.Resolved || res.Role != RoleUnknown {
		t.Fatalf("expected unresolved, got %+v", res)
	}
}

func TestResolverLookupFailureFailsClosed(t *testing.T) {
	resolver := NewResolver(&fakeLookup{err: errors.New("backend down")})

	res := resolver.Resolve(context.Background(), "u1")
	if res.Resolved {
		t.Fatalf("lookup failure must not resolve a role, got %+v", res)
	}
}

func TestResolverUnrecognizedRoleFailsClosed(t *testing.T) {
	resolver := NewResolver(&fakeLookup{roles: map[string]string{"u1": "superuser"}})

	res := resolver.Resolve(context.Background(), "u1")
	if res.Resolved {
		t.Fatalf("unrecognized role must not resolve, got %+v", res)
	}
}

func TestResolverEmptyUserRecordsUnauthenticated(t *testing.T) {
	lookup := &fakeLookup{roles: map[string]string{"u1": "admin"}}
	resolver := NewResolver(lookup)

	resolver.Resolve(context.Background(), "u1")
	resolver.Resolve(context.Background(), "")

	if current := resolver.Current(); current.UserID != "" || current.Resolved {
		t.Fatalf("expected unauthenticated state, got %+v", current)
	}
	if lookup.calls != 1 {
		t.Fatalf("sign-out must not hit the role store, got %d calls", lookup.calls)
	}
}

func TestResolverDiscardsStaleResolution(t *testing.T) {
	resolver := NewResolver(&fakeLookup{})
	// Two resolutions in flight; the later-started one completes first.
	resolver.seq = 2

	fresh := Resolution{UserID: "u1", Role: RoleAdmin, Resolved: true}
	stale := Resolution{UserID: "u1", Role: RoleUser, Resolved: true}

	resolver.install(context.Background(), 2, fresh)
	resolver.install(context.Background(), 1, stale)

	if current := resolver.Current(); current != fresh {
		t.Fatalf("stale resolution overwrote fresher one: %+v", current)
	}
}

func TestResolverStaleCompletionBeforeFreshOne(t *testing.T) {
	resolver := NewResolver(&fakeLookup{})
	resolver.seq = 2

	stale := Resolution{UserID: "u1", Role: RoleUser, Resolved: true}
	fresh := Resolution{UserID: "u1", Role: RoleAdmin, Resolved: true}

	// The stale result lands while the fresh lookup is still in flight; it
	// must be dropped so the fresh result alone defines the session state.
	resolver.install(context.Background(), 1, stale)
	resolver.install(context.Background(), 2, fresh)

	if current := resolver.Current(); current != fresh {
		t.Fatalf("expected fresh resolution, got %+v", current)
	}
}

func TestResolverConcurrentResolutionsSettle(t *testing.T) {
	resolver := NewResolver(&fakeLookup{roles: map[string]string{"u1": "gm"}})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resolver.Resolve(context.Background(), "u1")
		}()
	}
	wg.Wait()

	if current := resolver.Current(); !current.Resolved || current.Role != RoleGM {
		t.Fatalf("expected settled gm resolution, got %+v", current)
	}
}
