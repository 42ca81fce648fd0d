package identity

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

func TestMapIdentityError(t *testing.T) {
	tests := []struct {
		name     string
		input    error
		sentinel error
	}{
		{"throttled", &types.TooManyRequestsException{}, ErrThrottled},
		{"not authorized", &types.NotAuthorizedException{}, ErrNotAuthorized},
		{"user exists", &types.UsernameExistsException{}, ErrUserExists},
		{"user not found", &types.UserNotFoundException{}, ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := mapIdentityError(fmt.Errorf("call failed: %w", tt.input))
			if !errors.Is(mapped, tt.sentinel) {
				t.Fatalf("expected %v, got %v", tt.sentinel, mapped)
			}
		})
	}
}

func TestMapIdentityErrorPassesThroughUnknown(t *testing.T) {
	cause := errors.New("network unreachable")
	if mapped := mapIdentityError(cause); mapped != cause {
		t.Fatalf("expected passthrough, got %v", mapped)
	}
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: dup", ErrUserExists), 409},
		{fmt.Errorf("%w: denied", ErrNotAuthorized), 403},
		{fmt.Errorf("%w: gone", ErrUserNotFound), 404},
		{fmt.Errorf("%w: slow down", ErrThrottled), 429},
		{errors.New("boom"), 502},
	}

	for _, tt := range tests {
		if got := StatusCode(tt.err); got != tt.status {
			t.Errorf("StatusCode(%v) = %d, want %d", tt.err, got, tt.status)
		}
	}
}

func TestRegionFromPoolID(t *testing.T) {
	region, err := regionFromPoolID("us-east-1_AbCdEf123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if region != "us-east-1" {
		t.Fatalf("expected us-east-1, got %q", region)
	}

	if _, err := regionFromPoolID("nopool"); err == nil {
		t.Fatal("expected error for malformed pool id")
	}
	if _, err := regionFromPoolID("_pool"); err == nil {
		t.Fatal("expected error for empty region")
	}
}
