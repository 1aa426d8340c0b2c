package services

import (
	"context"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// InitFirebase initializes the Firebase Admin SDK. The bucket is optional and only
// used when uploads go to Cloud Storage.
func InitFirebase(credPath, storageBucket string) (*firebase.App, error) {
	opt := option.WithCredentialsFile(credPath)
	var conf *firebase.Config
	if storageBucket != "" {
		conf = &firebase.Config{StorageBucket: storageBucket}
	}
	return firebase.NewApp(context.Background(), conf, opt)
}

// SessionAuthenticator verifies session cookies and mints new ones from ID tokens
type SessionAuthenticator interface {
	VerifySession(ctx context.Context, cookie string) (*SessionIdentity, error)
	CreateSession(ctx context.Context, idToken string, expiresIn time.Duration) (string, error)
}

// IdentityProvisioner creates sign-in credentials for accounts activated on the platform
type IdentityProvisioner interface {
	CreateIdentity(ctx context.Context, email, password, displayName string) (uid string, err error)
	DeleteIdentity(ctx context.Context, uid string) error
}

// FirebaseIdentity adapts the Firebase auth client to the interfaces above
type FirebaseIdentity struct {
	client *auth.Client
}

func NewFirebaseIdentity(app *firebase.App) (*FirebaseIdentity, error) {
	client, err := app.Auth(context.Background())
	if err != nil {
		return nil, err
	}
	return &FirebaseIdentity{client: client}, nil
}

func (f *FirebaseIdentity) VerifySession(ctx context.Context, cookie string) (*SessionIdentity, error) {
	token, err := f.client.VerifySessionCookieAndCheckRevoked(ctx, cookie)
	if err != nil {
		return nil, err
	}
	id := &SessionIdentity{UID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		id.Email = email
	}
	if name, ok := token.Claims["name"].(string); ok {
		id.Name = name
	}
	return id, nil
}

func (f *FirebaseIdentity) CreateSession(ctx context.Context, idToken string, expiresIn time.Duration) (string, error) {
	if _, err := f.client.VerifyIDToken(ctx, idToken); err != nil {
		return "", fmt.Errorf("invalid id token: %w", err)
	}
	return f.client.SessionCookie(ctx, idToken, expiresIn)
}

func (f *FirebaseIdentity) CreateIdentity(ctx context.Context, email, password, displayName string) (string, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		EmailVerified(true).
		Password(password).
		DisplayName(displayName)
	record, err := f.client.CreateUser(ctx, params)
	if err != nil {
		return "", err
	}
	return record.UID, nil
}

func (f *FirebaseIdentity) DeleteIdentity(ctx context.Context, uid string) error {
	return f.client.DeleteUser(ctx, uid)
}
