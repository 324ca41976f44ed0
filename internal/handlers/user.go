package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/bakery/internal/services"
)

// UserHandler manages user, session and cart endpoints.
type UserHandler struct {
	users   *services.UserService
	cart    *services.CartManager
	timeout time.Duration
}

// NewUserHandler constructs UserHandler.
func NewUserHandler(users *services.UserService, cart *services.CartManager, timeout time.Duration) *UserHandler {
	return &UserHandler{users: users, cart: cart, timeout: timeout}
}

type createUserRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	ProfileImageURL string `json:"profileImageUrl"`
	SocialID        string `json:"socialId"`
}

type updateUserRequest struct {
	Token           string  `json:"token"`
	Name            *string `json:"name"`
	Email           *string `json:"email"`
	Phone           *string `json:"phone"`
	ProfileImageURL *string `json:"profileImageUrl"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type kakaoLoginRequest struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirectUri"`
}

type cartRequest struct {
	Token      string `json:"token"`
	MenuID     string `json:"menuId"`
	Quantity   int    `json:"quantity"`
	IsChecked  bool   `json:"isChecked"`
	IsAllMenus bool   `json:"isAllMenus"`
}

// ListUsers returns every user.
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	users, err := h.users.List(ctx)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": users})
}

// GetUser returns one user or null.
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	user, err := h.users.Get(ctx, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": user})
}

// CreateUser registers a user.
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req createUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	user, err := h.users.Create(ctx, services.CreateUserInput{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		ProfileImageURL: req.ProfileImageURL,
		SocialID:        req.SocialID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": user})
}

// UpdateUser changes the caller's profile.
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	var req updateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	user, err := h.users.Update(ctx, c.Params("id"), sessionToken(c, req.Token), services.UpdateUserInput{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		ProfileImageURL: req.ProfileImageURL,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": user})
}

// DeleteUser removes the caller's account.
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	var req tokenRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	user, err := h.users.Delete(ctx, c.Params("id"), sessionToken(c, req.Token))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": user})
}

// Authenticate resolves a session token to its user.
func (h *UserHandler) Authenticate(c *fiber.Ctx) error {
	var req tokenRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	user, err := h.users.Authenticate(ctx, sessionToken(c, req.Token))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": user})
}

// KakaoLogin signs in with a Kakao authorization code.
func (h *UserHandler) KakaoLogin(c *fiber.Ctx) error {
	var req kakaoLoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	user, err := h.users.KakaoLogin(ctx, req.Code, req.RedirectURI)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": user})
}

// Logout ends the caller's session.
func (h *UserHandler) Logout(c *fiber.Ctx) error {
	var req tokenRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	user, err := h.users.Logout(ctx, sessionToken(c, req.Token))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": user})
}

// AddToCart changes the quantity of a menu in the caller's cart.
func (h *UserHandler) AddToCart(c *fiber.Ctx) error {
	var req cartRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	user, err := h.cart.AddToCart(ctx, sessionToken(c, req.Token), req.MenuID, req.Quantity)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": user})
}

// CheckCart toggles the checked flag of one or all cart entries.
func (h *UserHandler) CheckCart(c *fiber.Ctx) error {
	var req cartRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	user, err := h.cart.SetChecked(ctx, sessionToken(c, req.Token), req.MenuID, req.IsChecked, req.IsAllMenus)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": user})
}

// RemoveFromCart drops a menu from the caller's cart.
func (h *UserHandler) RemoveFromCart(c *fiber.Ctx) error {
	var req cartRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	user, err := h.cart.RemoveFromCart(ctx, sessionToken(c, req.Token), req.MenuID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": user})
}
