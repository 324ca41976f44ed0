package services

import (
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/example/bakery/internal/database"
	"github.com/example/bakery/internal/metrics"
	"github.com/example/bakery/internal/models"
	"github.com/example/bakery/internal/utils"
)

// UserService manages users, their session tokens and social login.
type UserService struct {
	store    database.Store
	provider SocialProvider
	metrics  *metrics.Metrics
	secret   string
	ttl      time.Duration
	now      func() time.Time
}

// NewUserService constructs UserService.
func NewUserService(store database.Store, provider SocialProvider, m *metrics.Metrics, secret string, ttl time.Duration) *UserService {
	return &UserService{
		store:    store,
		provider: provider,
		metrics:  m,
		secret:   secret,
		ttl:      ttl,
		now:      time.Now,
	}
}

// CreateUserInput holds the fields accepted when creating a user.
type CreateUserInput struct {
	Name            string
	Email           string
	Phone           string
	ProfileImageURL string
	SocialID        string
}

// UpdateUserInput holds the optional profile fields of an update.
type UpdateUserInput struct {
	Name            *string
	Email           *string
	Phone           *string
	ProfileImageURL *string
}

// List returns every user without credentials.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.store.Find(ctx, database.Users, nil, &users); err != nil {
		return nil, err
	}
	for i := range users {
		users[i].ClearCredentials()
	}
	return users, nil
}

// Get returns the user or nil when no user has that id.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	oid, err := parseID(id, "user")
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := s.store.FindByID(ctx, database.Users, oid, &user); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	user.ClearCredentials()
	return &user, nil
}

// Create registers a user. Email addresses are unique.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	if input.Name == "" {
		return nil, badRequest("name is required")
	}
	if input.Email == "" {
		return nil, badRequest("email is required")
	}
	if input.SocialID == "" {
		return nil, badRequest("socialId is required")
	}

	user := models.User{
		Name:            input.Name,
		Email:           input.Email,
		Phone:           input.Phone,
		ProfileImageURL: input.ProfileImageURL,
		SocialID:        input.SocialID,
	}
	if user.Phone == "" {
		user.Phone = models.DefaultPhone
	}

	if err := s.store.Insert(ctx, database.Users, &user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, badRequest("email already exists")
		}
		return nil, err
	}
	user.ClearCredentials()
	return &user, nil
}

// Update changes profile fields after checking the session token.
func (s *UserService) Update(ctx context.Context, id, token string, input UpdateUserInput) (*models.User, error) {
	user, err := s.authorize(ctx, id, token)
	if err != nil {
		return nil, err
	}

	set := database.Fields{}
	if input.Name != nil {
		set["name"] = *input.Name
	}
	if input.Email != nil {
		if *input.Email == "" {
			return nil, badRequest("email is required")
		}
		set["email"] = *input.Email
	}
	if input.Phone != nil {
		set["phone"] = *input.Phone
	}
	if input.ProfileImageURL != nil {
		set["profileImageUrl"] = *input.ProfileImageURL
	}

	if len(set) > 0 {
		var updated models.User
		if err := s.store.UpdateByID(ctx, database.Users, user.ID, set, &updated); err != nil {
			switch {
			case errors.Is(err, database.ErrNotFound):
				return nil, badRequest("no matched user")
			case errors.Is(err, database.ErrDuplicate):
				return nil, badRequest("email already exists")
			}
			return nil, err
		}
		user = &updated
	}
	user.ClearProviderCredentials()
	return user, nil
}

// Delete removes the user and the shipping addresses it owns. Once the user is
// gone a failed address cleanup is logged and counted, not returned.
func (s *UserService) Delete(ctx context.Context, id, token string) (*models.User, error) {
	user, err := s.authorize(ctx, id, token)
	if err != nil {
		return nil, err
	}

	if err := s.store.DeleteByID(ctx, database.Users, user.ID, nil); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, badRequest("no matched user")
		}
		return nil, err
	}
	if _, err := s.store.DeleteMany(ctx, database.Shippings, database.Filter{"user": user.ID}); err != nil {
		log.Printf("[User] shippings of deleted user %s not removed: %v", user.ID.Hex(), err)
		s.metrics.SyncGap("user", "delete")
	}

	user.ClearCredentials()
	return user, nil
}

// Authenticate resolves a live session token to its user.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, badRequest("token is required")
	}
	user, err := s.byToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if user.TokenExpired(s.now()) {
		return nil, badRequest("token is expired")
	}
	if !s.signedFor(token, user) {
		return nil, badRequest("token is wrong")
	}
	user.ClearProviderCredentials()
	return user, nil
}

// signedFor reports whether token carries a valid signature issued for user.
func (s *UserService) signedFor(token string, user *models.User) bool {
	userID, err := utils.ParseSessionToken(s.secret, token)
	if err != nil {
		log.Printf("[User] session token of %s rejected: %v", user.ID.Hex(), err)
		return false
	}
	return userID == user.ID
}

// KakaoLogin signs a user in with a Kakao authorization code, creating the
// account on first login, and issues a fresh session token.
func (s *UserService) KakaoLogin(ctx context.Context, code, redirectURI string) (*models.User, error) {
	if code == "" {
		return nil, badRequest("code is required")
	}
	if redirectURI == "" {
		return nil, badRequest("redirectUri is required")
	}

	accessToken, err := s.provider.ExchangeCode(ctx, code, redirectURI)
	if err != nil {
		return nil, err
	}
	profile, err := s.provider.Profile(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	var user models.User
	err = s.store.FindOne(ctx, database.Users, database.Filter{"socialId": profile.SocialID}, &user)
	switch {
	case errors.Is(err, database.ErrNotFound):
		user = models.User{
			Name:        profile.Name,
			Email:       profile.Email,
			Phone:       models.DefaultPhone,
			SocialID:    profile.SocialID,
			SocialToken: accessToken,
		}
		if err := s.store.Insert(ctx, database.Users, &user); err != nil {
			if errors.Is(err, database.ErrDuplicate) {
				return nil, badRequest("email already exists")
			}
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	now := s.now()
	token, err := utils.GenerateSessionToken(s.secret, user.ID, now, s.ttl)
	if err != nil {
		return nil, err
	}
	expiration := now.Add(s.ttl)

	set := database.Fields{
		"socialToken":     accessToken,
		"token":           token,
		"tokenExpiration": expiration,
	}
	var loggedIn models.User
	if err := s.store.UpdateByID(ctx, database.Users, user.ID, set, &loggedIn); err != nil {
		return nil, err
	}

	loggedIn.ClearProviderCredentials()
	return &loggedIn, nil
}

// Logout ends the provider session and clears every token of the user.
func (s *UserService) Logout(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, badRequest("token is required")
	}
	user, err := s.byToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if user.SocialToken == "" {
		return nil, badRequest("accessToken does not exist in user db")
	}

	if err := s.provider.Logout(ctx, user.SocialToken); err != nil {
		return nil, err
	}

	set := database.Fields{
		"socialToken":     "",
		"token":           "",
		"tokenExpiration": nil,
	}
	var loggedOut models.User
	if err := s.store.UpdateByID(ctx, database.Users, user.ID, set, &loggedOut); err != nil {
		return nil, err
	}
	loggedOut.ClearCredentials()
	return &loggedOut, nil
}

func (s *UserService) byToken(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	if err := s.store.FindOne(ctx, database.Users, database.Filter{"token": token}, &user); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, badRequest("no matched user")
		}
		return nil, err
	}
	return &user, nil
}

// authorize loads the user and checks that token is its live session token.
func (s *UserService) authorize(ctx context.Context, id, token string) (*models.User, error) {
	oid, err := parseID(id, "user")
	if err != nil {
		return nil, err
	}
	return loadOwner(ctx, s.store, oid, token, s.now())
}

// loadOwner fetches user id and checks token against it.
func loadOwner(ctx context.Context, store database.Store, id primitive.ObjectID, token string, now time.Time) (*models.User, error) {
	if token == "" {
		return nil, badRequest("token is required")
	}
	var user models.User
	if err := store.FindByID(ctx, database.Users, id, &user); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, badRequest("no matched user")
		}
		return nil, err
	}
	if user.Token != token {
		return nil, badRequest("token is wrong")
	}
	if user.TokenExpired(now) {
		return nil, badRequest("token is expired")
	}
	return &user, nil
}
