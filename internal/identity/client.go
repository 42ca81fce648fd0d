// Package identity wraps the hosted identity backend's administrative API.
// Account provisioning, compensating deletes, and password authentication all
// go through this client; the rest of the system only sees opaque user ids.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

// ErrThrottled marks errors returned when the backend throttles requests.
var ErrThrottled = errors.New("identity backend throttling")

// ErrNotAuthorized marks errors returned when the backend rejects credentials.
var ErrNotAuthorized = errors.New("identity backend not authorized")

// ErrUserExists marks errors returned when trying to create an existing user.
// This duplicate-email rejection is the de-facto idempotence guard for
// provisioning; it is passed through untouched, never retried or suppressed.
var ErrUserExists = errors.New("identity user already exists")

// ErrUserNotFound marks errors returned when the backend has no such user.
var ErrUserNotFound = errors.New("identity user not found")

// User is the backend's view of an account.
type User struct {
	ID    string
	Email string
}

type Client struct {
	client   *cognitoidentityprovider.Client
	poolID   string
	clientID string
}

// NewClient creates a new identity client from pool ID and client ID.
// The region is extracted from the pool ID (format: "region_poolid").
func NewClient(poolID, clientID string) (*Client, error) {
	region, err := regionFromPoolID(poolID)
	if err != nil {
		return nil, err
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &Client{
		client:   cognitoidentityprovider.NewFromConfig(awsCfg),
		poolID:   poolID,
		clientID: clientID,
	}, nil
}

// CheckCredentials verifies the elevated credential with a harmless
// list-one-user read before any mutation is attempted.
func (c *Client) CheckCredentials(ctx context.Context) error {
	_, err := c.client.ListUsers(ctx, &cognitoidentityprovider.ListUsersInput{
		UserPoolId: aws.String(c.poolID),
		Limit:      aws.Int32(1),
	})
	if err != nil {
		return mapIdentityError(err)
	}
	return nil
}

// CreateUser creates a new user with a permanent password. The account is
// created with email_verified=true and no welcome email is sent by the
// backend. Returns the backend-assigned user id.
func (c *Client) CreateUser(ctx context.Context, email, password string) (string, error) {
	out, err := c.client.AdminCreateUser(ctx, &cognitoidentityprovider.AdminCreateUserInput{
		UserPoolId:    aws.String(c.poolID),
		Username:      aws.String(email),
		MessageAction: types.MessageActionTypeSuppress, // Don't send welcome email
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
			{Name: aws.String("email_verified"), Value: aws.String("true")},
		},
	})
	if err != nil {
		return "", mapIdentityError(err)
	}

	userID := userIDFromAttributes(out.User)

	_, err = c.client.AdminSetUserPassword(ctx, &cognitoidentityprovider.AdminSetUserPasswordInput{
		UserPoolId: aws.String(c.poolID),
		Username:   aws.String(email),
		Password:   aws.String(password),
		Permanent:  true,
	})
	if err != nil {
		// The account exists at this point. Return its id with the error
		// so the caller can issue the compensating delete.
		return userID, mapIdentityError(err)
	}

	return userID, nil
}

// DeleteUser removes a user from the pool. Used both for account deletion and
// for compensating a partially provisioned account.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	_, err := c.client.AdminDeleteUser(ctx, &cognitoidentityprovider.AdminDeleteUserInput{
		UserPoolId: aws.String(c.poolID),
		Username:   aws.String(userID),
	})
	if err != nil {
		return mapIdentityError(err)
	}
	return nil
}

// Authenticate verifies an email/password pair against the pool and returns
// the account it belongs to.
func (c *Client) Authenticate(ctx context.Context, email, password string) (User, error) {
	_, err := c.client.AdminInitiateAuth(ctx, &cognitoidentityprovider.AdminInitiateAuthInput{
		UserPoolId: aws.String(c.poolID),
		ClientId:   aws.String(c.clientID),
		AuthFlow:   types.AuthFlowTypeAdminUserPasswordAuth,
		AuthParameters: map[string]string{
			"USERNAME": email,
			"PASSWORD": password,
		},
	})
	if err != nil {
		return User{}, mapIdentityError(err)
	}

	out, err := c.client.AdminGetUser(ctx, &cognitoidentityprovider.AdminGetUserInput{
		UserPoolId: aws.String(c.poolID),
		Username:   aws.String(email),
	})
	if err != nil {
		return User{}, mapIdentityError(err)
	}

	user := User{Email: email}
	for _, attr := range out.UserAttributes {
		if aws.ToString(attr.Name) == "sub" {
			user.ID = aws.ToString(attr.Value)
		}
	}
	if user.ID == "" {
		user.ID = aws.ToString(out.Username)
	}
	return user, nil
}

// StatusCode maps an identity error onto the status the backend reported, for
// pass-through to provisioning callers.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrUserExists):
		return 409
	case errors.Is(err, ErrNotAuthorized):
		return 403
	case errors.Is(err, ErrUserNotFound):
		return 404
	case errors.Is(err, ErrThrottled):
		return 429
	default:
		return 502
	}
}

func userIDFromAttributes(user *types.UserType) string {
	if user == nil {
		return ""
	}
	for _, attr := range user.Attributes {
		if aws.ToString(attr.Name) == "sub" {
			return aws.ToString(attr.Value)
		}
	}
	return aws.ToString(user.Username)
}

func mapIdentityError(err error) error {
	var throttled *types.TooManyRequestsException
	if errors.As(err, &throttled) {
		return fmt.Errorf("%w: %v", ErrThrottled, err)
	}
	var notAuthorized *types.NotAuthorizedException
	if errors.As(err, &notAuthorized) {
		return fmt.Errorf("%w: %v", ErrNotAuthorized, err)
	}
	var userExists *types.UsernameExistsException
	if errors.As(err, &userExists) {
		return fmt.Errorf("%w: %v", ErrUserExists, err)
	}
	var notFound *types.UserNotFoundException
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: %v", ErrUserNotFound, err)
	}
	return err
}

func regionFromPoolID(poolID string) (string, error) {
	parts := strings.SplitN(poolID, "_", 2)
	if len(parts) < 2 || parts[0] == "" {
		return "", fmt.Errorf("invalid identity pool id: %q", poolID)
	}
	return parts[0], nil
}
