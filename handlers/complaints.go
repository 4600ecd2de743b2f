package handlers

import (
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
)

// CreateComplaintHandler files a complaint for the calling student. The
// student's display name is resolved at creation time and stored with the
// record; it is not kept in sync with later profile edits.
func CreateComplaintHandler(c *gin.Context) {
	claims := auth.CurrentClaims(c)

	var req models.CreateComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid data"})
		return
	}

	studentID, err := primitive.ObjectIDFromHex(claims.ID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid token"})
		return
	}

	ctx, cancel := queryContext(c)
	defer cancel()

	// Prefer the profile's current full name over the token's copy,
	// falling back to the username when no full name is set.
	studentName := claims.Username
	var student models.User
	if err := db.Users().FindOne(ctx, bson.M{"_id": studentID}).Decode(&student); err == nil {
		if student.FullName != "" {
			studentName = student.FullName
		}
	} else if err != mongo.ErrNoDocuments {
		log.Printf("Error resolving student name: %v", err)
	}

	complaint := models.Complaint{
		StudentID:   studentID,
		StudentName: studentName,
		Message:     req.Message,
		Status:      models.StatusSubmitted,
		CreatedAt:   time.Now().UTC(),
	}
	result, err := db.Complaints().InsertOne(ctx, complaint)
	if err != nil {
		log.Printf("Error submitting complaint: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid data"})
		return
	}

	complaint.ID = result.InsertedID.(primitive.ObjectID)
	c.JSON(http.StatusCreated, complaint)
}

// ListComplaintsHandler returns complaints scoped by role: students see
// only what they filed, teachers and admins see everything
func ListComplaintsHandler(c *gin.Context) {
	claims := auth.CurrentClaims(c)

	filter := bson.M{}
	if claims.Role == models.RoleStudent {
		studentID, err := primitive.ObjectIDFromHex(claims.ID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid token"})
			return
		}
		filter["studentId"] = studentID
	}

	ctx, cancel := queryContext(c)
	defer cancel()

	cursor, err := db.Complaints().Find(ctx, filter)
	if err != nil {
		log.Printf("Error querying complaints: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server Error"})
		return
	}
	defer cursor.Close(ctx)

	complaints := []models.Complaint{}
	if err := cursor.All(ctx, &complaints); err != nil {
		log.Printf("Error decoding complaints: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server Error"})
		return
	}

	c.JSON(http.StatusOK, complaints)
}

// ResolveComplaintHandler marks a complaint Resolved (teacher/admin).
// Resolving an already-resolved complaint is a no-op re-persist.
func ResolveComplaintHandler(c *gin.Context) {
	complaintID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Complaint not found"})
		return
	}

	ctx, cancel := queryContext(c)
	defer cancel()

	var updated models.Complaint
	err = db.Complaints().FindOneAndUpdate(
		ctx,
		bson.M{"_id": complaintID},
		bson.M{"$set": bson.M{"status": models.StatusResolved}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"message": "Complaint not found"})
			return
		}
		log.Printf("Error resolving complaint: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid data"})
		return
	}

	c.JSON(http.StatusOK, updated)
}
