package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"

	"homestay/db"
	"homestay/globals"
	"homestay/middleware"
	"homestay/models"
	"homestay/utils"
)

const accessTokenTTL = 12 * time.Hour

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func registerHandler(w http.ResponseWriter, r *http.Request) {
	if db.UserCollection == nil {
		utils.Error(w, http.StatusServiceUnavailable, "Auth requires the database backend")
		return
	}

	var input credentials
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if input.Username == "" || len(input.Password) < 8 {
		utils.Error(w, http.StatusBadRequest, "Username and a password of at least 8 characters are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	count, err := db.UserCollection.CountDocuments(ctx, bson.M{"username": input.Username})
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "Database error")
		return
	}
	if count > 0 {
		utils.Error(w, http.StatusConflict, "Username already taken")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	user := models.User{
		UserID:    utils.GenerateRandomString(14),
		Username:  input.Username,
		Password:  string(hash),
		Role:      []string{"admin"},
		CreatedAt: time.Now().UTC(),
	}
	if _, err := db.UserCollection.InsertOne(ctx, user); err != nil {
		utils.Error(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	utils.Success(w, http.StatusCreated, map[string]string{"userid": user.UserID, "username": user.Username})
}

func loginHandler(w http.ResponseWriter, r *http.Request) {
	if db.UserCollection == nil {
		utils.Error(w, http.StatusServiceUnavailable, "Auth requires the database backend")
		return
	}

	var input credentials
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if input.Username == "" || input.Password == "" {
		utils.Error(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var stored models.User
	if err := db.UserCollection.FindOne(ctx, bson.M{"username": input.Username}).Decode(&stored); err != nil {
		utils.Error(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte(input.Password)); err != nil {
		utils.Error(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, err := issueToken(stored)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	_, _ = db.UserCollection.UpdateOne(ctx,
		bson.M{"userid": stored.UserID},
		bson.M{"$set": bson.M{"last_login": time.Now().UTC()}},
	)

	utils.Success(w, http.StatusOK, map[string]string{
		"token":  token,
		"userid": stored.UserID,
	})
}

func refreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	if db.UserCollection == nil {
		utils.Error(w, http.StatusServiceUnavailable, "Auth requires the database backend")
		return
	}

	claims, err := middleware.ValidateJWT(r.Header.Get("Authorization"))
	if err != nil {
		utils.Error(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var stored models.User
	if err := db.UserCollection.FindOne(ctx, bson.M{"userid": claims.UserID}).Decode(&stored); err != nil {
		utils.Error(w, http.StatusUnauthorized, "Unknown user")
		return
	}

	token, err := issueToken(stored)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	utils.Success(w, http.StatusOK, map[string]string{"token": token})
}

func issueToken(user models.User) (string, error) {
	claims := middleware.Claims{
		Username: user.Username,
		UserID:   user.UserID,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(accessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(globals.JwtSecret())
}
