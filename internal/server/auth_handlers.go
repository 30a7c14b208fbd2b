package server

import (
	"strings"
	"time"

	"social/internal/middleware"
	"social/internal/service"

	"github.com/gofiber/fiber/v2"
)

// TokenCookie carries the session token.
const TokenCookie = "token"

type signUpRequest struct {
	Name          string `json:"name" form:"name" validate:"required"`
	Email         string `json:"email" form:"email" validate:"required"`
	Password      string `json:"password" form:"password" validate:"required"`
	PasswordAgain string `json:"passwordAgain" form:"passwordAgain" validate:"required"`
}

func (r signUpRequest) input() service.SignUpInput {
	return service.SignUpInput{
		Name:          r.Name,
		Email:         r.Email,
		Password:      r.Password,
		PasswordAgain: r.PasswordAgain,
	}
}

type signInRequest struct {
	Email    string `json:"email" form:"email" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// AuthRequired rejects requests without a valid session token. The token is
// read from the cookie, falling back to a Bearer header.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(TokenCookie)
		if token == "" {
			parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
			if len(parts) == 2 && parts[0] == "Bearer" {
				token = parts[1]
			}
		}

		userID, err := s.authService.Authenticate(c.UserContext(), token)
		if err != nil {
			return err
		}

		c.Locals("userID", userID)
		c.SetUserContext(middleware.WithUserID(c.UserContext(), userID))
		return c.Next()
	}
}

func (s *Server) setTokenCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     s.config.APIPath(),
		MaxAge:   s.config.CookieMaxAge,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func (s *Server) clearTokenCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     TokenCookie,
		Value:    "",
		Path:     s.config.APIPath(),
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

// SignUpNow handles POST /auth/sign-up-now
func (s *Server) SignUpNow(c *fiber.Ctx) error {
	var req signUpRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	session, err := s.authService.SignUpNow(c.UserContext(), req.input())
	if err != nil {
		return err
	}

	s.setTokenCookie(c, session.Token)
	return c.JSON(fiber.Map{
		"status":  "pass",
		"message": "Signed up.",
		"userId":  session.User.IDHex(),
	})
}

// SignUp handles POST /auth/sign-up
func (s *Server) SignUp(c *fiber.Ctx) error {
	var req signUpRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	info, err := s.authService.SignUp(c.UserContext(), req.input())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status":  "pass",
		"message": "Email sent.",
		"info":    info,
	})
}

// Activate handles GET /auth/activate/:token
func (s *Server) Activate(c *fiber.Ctx) error {
	session, err := s.authService.Activate(c.UserContext(), c.Params("token"))
	if err != nil {
		return err
	}

	s.setTokenCookie(c, session.Token)
	return c.Redirect(s.config.Host, fiber.StatusMovedPermanently)
}

// SignIn handles POST /auth/sign-in
func (s *Server) SignIn(c *fiber.Ctx) error {
	var req signInRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	session, err := s.authService.SignIn(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	s.setTokenCookie(c, session.Token)
	return c.JSON(fiber.Map{
		"status":  "pass",
		"message": "Signed in.",
		"userId":  session.User.IDHex(),
	})
}

// SignOut handles DELETE /auth/sign-out
func (s *Server) SignOut(c *fiber.Ctx) error {
	token := c.Cookies(TokenCookie)
	s.clearTokenCookie(c)
	if err := s.authService.SignOut(c.UserContext(), token); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status":  "pass",
		"message": "Signed out.",
	})
}

// GetFeatureFlags handles GET /feature-flags and reports the flags as they
// apply to the caller.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "pass",
		"flags":  s.featureFlags.Snapshot(callerID(c)),
	})
}
