package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/CharanLingolu/StudentMarkTracker-Backend/auth"
	"github.com/CharanLingolu/StudentMarkTracker-Backend/db"
	"github.com/CharanLingolu/StudentMarkTracker-Backend/models"
	"github.com/CharanLingolu/StudentMarkTracker-Backend/utils"
)

const queryTimeout = 10 * time.Second

func queryContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), queryTimeout)
}

// usernameTaken reports whether a user with this username already exists
func usernameTaken(ctx context.Context, username string) (bool, error) {
	count, err := db.Users().CountDocuments(ctx, bson.M{"username": username})
	return count > 0, err
}

// rollNumberTaken reports whether a user already holds this roll number
func rollNumberTaken(ctx context.Context, rollNumber string) (bool, error) {
	count, err := db.Users().CountDocuments(ctx, bson.M{"rollNumber": rollNumber})
	return count > 0, err
}

// CreateUserHandler registers a new user (admin only)
func CreateUserHandler(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body: " + err.Error()})
		return
	}

	ctx, cancel := queryContext(c)
	defer cancel()

	// Fast-path checks for a friendly error; the unique indexes are the
	// authoritative guard against concurrent duplicates.
	taken, err := usernameTaken(ctx, req.Username)
	if err != nil {
		log.Printf("Error checking username existence: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server Error"})
		return
	}
	if taken {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Username already exists."})
		return
	}

	if req.RollNumber != "" {
		taken, err := rollNumberTaken(ctx, req.RollNumber)
		if err != nil {
			log.Printf("Error checking roll number existence: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server Error"})
			return
		}
		if taken {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Roll Number already exists."})
			return
		}
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server Error"})
		return
	}

	user := models.User{
		Username:   req.Username,
		Password:   hashed,
		Role:       req.Role,
		FullName:   req.FullName,
		RollNumber: req.RollNumber,
	}
	result, err := db.Users().InsertOne(ctx, user)
	if err != nil {
		if db.IsDup(err) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Username or Roll Number already exists."})
			return
		}
		log.Printf("Error inserting user: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"message": "Failed to create user."})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "User created successfully",
		"id":       result.InsertedID,
		"username": user.Username,
		"role":     user.Role,
	})
}

// ListUsersHandler returns all user records, hashed password included,
// for administrative visibility
func ListUsersHandler(c *gin.Context) {
	ctx, cancel := queryContext(c)
	defer cancel()

	cursor, err := db.Users().Find(ctx, bson.M{})
	if err != nil {
		log.Printf("Error querying users: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server Error"})
		return
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		log.Printf("Error decoding users: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server Error"})
		return
	}

	c.JSON(http.StatusOK, users)
}

// UpdateUserHandler partially updates role, full name and roll number;
// the password is never touched through this route
func UpdateUserHandler(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found."})
		return
	}

	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body: " + err.Error()})
		return
	}

	updateFields := bson.M{}
	if req.Role != nil {
		updateFields["role"] = *req.Role
	}
	if req.FullName != nil {
		updateFields["fullName"] = *req.FullName
	}
	if req.RollNumber != nil {
		updateFields["rollNumber"] = *req.RollNumber
	}
	if len(updateFields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Nothing to update."})
		return
	}

	ctx, cancel := queryContext(c)
	defer cancel()

	var updated models.User
	err = db.Users().FindOneAndUpdate(
		ctx,
		bson.M{"_id": userID},
		bson.M{"$set": updateFields},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found."})
			return
		}
		if db.IsDup(err) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "That Roll Number is already assigned to another user."})
			return
		}
		log.Printf("Error updating user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server Error during update."})
		return
	}

	updated.Password = ""
	c.JSON(http.StatusOK, gin.H{"message": "User updated successfully", "user": updated})
}

// UpdatePasswordHandler rehashes and stores a new password (admin only)
func UpdatePasswordHandler(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found."})
		return
	}

	var req models.UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body: " + err.Error()})
		return
	}

	if err := utils.ValidatePassword(req.NewPassword); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	hashed, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server Error during password update."})
		return
	}

	ctx, cancel := queryContext(c)
	defer cancel()

	result, err := db.Users().UpdateByID(ctx, userID, bson.M{"$set": bson.M{"password": hashed}})
	if err != nil {
		log.Printf("Error updating password: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server Error during password update."})
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully."})
}

// DeleteUserHandler removes a user; self-deletion is refused
func DeleteUserHandler(c *gin.Context) {
	claims := auth.CurrentClaims(c)
	if claims.ID == c.Param("id") {
		c.JSON(http.StatusForbidden, gin.H{"message": "Cannot delete yourself."})
		return
	}

	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found."})
		return
	}

	ctx, cancel := queryContext(c)
	defer cancel()

	result, err := db.Users().DeleteOne(ctx, bson.M{"_id": userID})
	if err != nil {
		log.Printf("Error deleting user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server Error"})
		return
	}
	if result.DeletedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully."})
}

// RegisterAdminHandler creates an admin account without authentication,
// as a bootstrap helper for a fresh deployment
func RegisterAdminHandler(c *gin.Context) {
	var req models.RegisterAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body: " + err.Error()})
		return
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server Error"})
		return
	}

	ctx, cancel := queryContext(c)
	defer cancel()

	user := models.User{
		Username: req.Username,
		Password: hashed,
		Role:     models.RoleAdmin,
	}
	if _, err := db.Users().InsertOne(ctx, user); err != nil {
		if db.IsDup(err) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Username already exists."})
			return
		}
		log.Printf("Error inserting admin: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"message": "Failed to create user."})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Admin user created"})
}

// RegisterTestStudentHandler creates a student account without
// authentication; full name and roll number default to the username
func RegisterTestStudentHandler(c *gin.Context) {
	var req models.RegisterTestStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body: " + err.Error()})
		return
	}

	ctx, cancel := queryContext(c)
	defer cancel()

	taken, err := usernameTaken(ctx, req.Username)
	if err != nil {
		log.Printf("Error checking username existence: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server Error during registration."})
		return
	}
	if taken {
		c.JSON(http.StatusBadRequest, gin.H{"message": "User already exists."})
		return
	}

	if req.RollNumber != "" {
		taken, err := rollNumberTaken(ctx, req.RollNumber)
		if err != nil {
			log.Printf("Error checking roll number existence: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server Error during registration."})
			return
		}
		if taken {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Roll Number already exists."})
			return
		}
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server Error during registration."})
		return
	}

	fullName := req.FullName
	if fullName == "" {
		fullName = req.Username
	}
	rollNumber := req.RollNumber
	if rollNumber == "" {
		rollNumber = req.Username
	}

	user := models.User{
		Username:   req.Username,
		Password:   hashed,
		Role:       models.RoleStudent,
		FullName:   fullName,
		RollNumber: rollNumber,
	}
	if _, err := db.Users().InsertOne(ctx, user); err != nil {
		if db.IsDup(err) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "User already exists."})
			return
		}
		log.Printf("Error creating test student: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server Error during registration."})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Test student user created successfully"})
}
