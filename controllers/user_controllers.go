package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-storefront/middlewares"
	"github.com/yeremiapane/restaurant-storefront/models"
	"github.com/yeremiapane/restaurant-storefront/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
)

// ErrNoPermission is returned when the session role may not call an endpoint.
var ErrNoPermission = &CustomError{"You do not have permission"}

type CustomError struct {
	Message string
}

func (e *CustomError) Error() string {
	return e.Message
}

type UserController struct {
	DB           *gorm.DB
	Tokens       *utils.TokenManager
	SecureCookie bool
}

func NewUserController(db *gorm.DB, tokens *utils.TokenManager, secureCookie bool) *UserController {
	return &UserController{DB: db, Tokens: tokens, SecureCookie: secureCookie}
}

// Signup registers a customer account. Accounts created here always get
// the USER role; admins are provisioned from configuration.
func (uc *UserController) Signup(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
		Phone    string `json:"phone"`
		Address  string `json:"address"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var count int64
	if err := uc.DB.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if count > 0 {
		utils.RespondError(c, http.StatusConflict, ErrEmailTaken)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	user := models.User{
		Name:     req.Name,
		Email:    email,
		Password: string(hashed),
		Role:     models.RoleUser,
		Phone:    req.Phone,
		Address:  req.Address,
	}
	if err := uc.DB.Create(&user).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.WithField("email", user.Email).Info("New user registered")
	utils.RespondJSON(c, http.StatusCreated, "User registered", user)
}

// Login upgrades the current session to the user's identity. The session id
// is kept so the cart and favorites survive signing in.
func (uc *UserController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var user models.User
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := uc.DB.Where("email = ?", email).First(&user).Error; err != nil {
		utils.RespondError(c, http.StatusUnauthorized, ErrInvalidCredentials)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		utils.RespondError(c, http.StatusUnauthorized, ErrInvalidCredentials)
		return
	}

	sessionID := c.GetString(middlewares.CtxSessionID)
	token, err := uc.Tokens.GenerateToken(sessionID, user.ID, user.Role)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	uc.Tokens.BlacklistToken(c.GetString(middlewares.CtxToken))
	middlewares.IssueSessionCookie(c, token, int(uc.Tokens.TTL().Seconds()), uc.SecureCookie)

	utils.InfoLogger.WithFields(logrus.Fields{
		"email":      user.Email,
		"role":       user.Role,
		"session_id": sessionID,
	}).Info("Login successful")

	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token":     token,
		"user_role": strings.ToLower(user.Role),
		"user":      user,
	})
}

// Logout revokes the current token and hands back a guest token for the same
// session, so the visitor keeps their cart.
func (uc *UserController) Logout(c *gin.Context) {
	sessionID := c.GetString(middlewares.CtxSessionID)
	token, err := uc.Tokens.GenerateToken(sessionID, 0, models.RoleUser)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	uc.Tokens.BlacklistToken(c.GetString(middlewares.CtxToken))
	middlewares.IssueSessionCookie(c, token, int(uc.Tokens.TTL().Seconds()), uc.SecureCookie)

	utils.RespondJSON(c, http.StatusOK, "Logged out", gin.H{"token": token})
}

// GetProfile describes the current session and, when signed in, its user.
func (uc *UserController) GetProfile(c *gin.Context) {
	userID := c.GetUint(middlewares.CtxUserID)
	profile := gin.H{
		"session_id": c.GetString(middlewares.CtxSessionID),
		"role":       c.GetString(middlewares.CtxRole),
		"guest":      userID == 0,
	}
	if userID == 0 {
		utils.RespondJSON(c, http.StatusOK, "Guest session", profile)
		return
	}

	var user models.User
	if err := uc.DB.First(&user, userID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	profile["user"] = user
	utils.RespondJSON(c, http.StatusOK, "Profile data retrieved successfully", profile)
}

// GetAllUsers lists accounts for admins.
func (uc *UserController) GetAllUsers(c *gin.Context) {
	if c.GetString(middlewares.CtxRole) != models.RoleAdmin {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	var users []models.User
	if err := uc.DB.Order("id ASC").Find(&users).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All users", users)
}
