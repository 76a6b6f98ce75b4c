package user

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"modoo_back_end/internal/database"
	"modoo_back_end/internal/models"
	"modoo_back_end/internal/utils"
)

// Login — POST /api/auth/login
// Connexion admin pour le back-office. Le message d'erreur ne distingue
// pas email inconnu et mauvais mot de passe.
func Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email et mot de passe requis"})
		return
	}

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var u models.User
	err = session.Query(`SELECT id, email, name, role, password_hash, created_at
		FROM users WHERE email = ? ALLOW FILTERING`, email).
		Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Identifiants invalides"})
		return
	}

	valid, err := utils.VerifyPassword(req.Password, u.PasswordHash)
	if err != nil || !valid {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Identifiants invalides"})
		return
	}

	token, err := utils.GenerateJWT(u)
	if err != nil {
		log.Printf("❌ Erreur génération JWT pour %s: %v", u.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	log.Printf("✅ Connexion: %s (%s)", u.Email, u.Role)
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":    u.ID,
			"email": u.Email,
			"name":  u.Name,
			"role":  u.Role,
		},
	})
}

// Me — GET /api/auth/me (derrière AuthRequired)
func Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":    c.GetString("user_id"),
			"email": c.GetString("email"),
			"role":  c.GetString("role"),
		},
	})
}
