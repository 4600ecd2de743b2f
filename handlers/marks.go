package handlers

import (
	"fmt"
	"log"
	"net/http"
	"regexp"
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

// markSearchFilter builds a case-insensitive substring filter over roll
// number, student name and subject. An empty term matches everything.
func markSearchFilter(search string) bson.M {
	if search == "" {
		return bson.M{}
	}
	regex := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
	return bson.M{"$or": bson.A{
		bson.M{"rollNumber": regex},
		bson.M{"studentName": regex},
		bson.M{"subject": regex},
	}}
}

// mergeFilters combines filter documents into a single $match document
func mergeFilters(filters ...bson.M) bson.M {
	merged := bson.M{}
	for _, filter := range filters {
		for key, value := range filter {
			merged[key] = value
		}
	}
	return merged
}

// markListPipeline joins matching mark records to user records on roll
// number so listings surface the student's current full name. The join is
// a left join: a mark whose roll number no longer resolves still appears,
// with studentName absent.
func markListPipeline(match bson.M) mongo.Pipeline {
	return mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "rollNumber",
			"foreignField": "rollNumber",
			"as":           "studentInfo",
		}}},
		bson.D{{Key: "$unwind", Value: bson.M{
			"path":                       "$studentInfo",
			"preserveNullAndEmptyArrays": true,
		}}},
		bson.D{{Key: "$project", Value: bson.M{
			"_id":         1,
			"rollNumber":  1,
			"marks":       1,
			"subject":     1,
			"teacherId":   1,
			"studentName": "$studentInfo.fullName",
		}}},
	}
}

// CreateMarkHandler records a subject score for an existing student
// (teacher only); the caller becomes the owning teacher
func CreateMarkHandler(c *gin.Context) {
	claims := auth.CurrentClaims(c)

	var req models.CreateMarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body: " + err.Error()})
		return
	}

	teacherID, err := primitive.ObjectIDFromHex(claims.ID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid token"})
		return
	}

	ctx, cancel := queryContext(c)
	defer cancel()

	var student models.User
	err = db.Users().FindOne(ctx, bson.M{
		"rollNumber": req.RollNumber,
		"role":       models.RoleStudent,
	}).Decode(&student)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"message": "Student with this Roll Number does not exist."})
			return
		}
		log.Printf("Error resolving student: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server Error"})
		return
	}

	now := time.Now().UTC()
	mark := models.Mark{
		RollNumber:  req.RollNumber,
		StudentName: student.FullName,
		Marks:       *req.Marks,
		Subject:     req.Subject,
		TeacherID:   teacherID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	result, err := db.Marks().InsertOne(ctx, mark)
	if err != nil {
		if db.IsDup(err) {
			c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf(
				"Mark record already exists for Roll Number %s in %s. Please use Edit Mark to update.",
				req.RollNumber, req.Subject,
			)})
			return
		}
		log.Printf("Error saving mark: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid data or Roll Number error."})
		return
	}

	mark.ID = result.InsertedID.(primitive.ObjectID)
	c.JSON(http.StatusCreated, mark)
}

// ListMarksHandler returns mark records scoped by role: teachers see the
// records they own, students the records for their own roll number,
// admins everything; all scopes combine with the optional search filter
func ListMarksHandler(c *gin.Context) {
	claims := auth.CurrentClaims(c)
	searchFilter := markSearchFilter(c.Query("search"))

	ctx, cancel := queryContext(c)
	defer cancel()

	if claims.Role == models.RoleStudent {
		filter := mergeFilters(bson.M{"rollNumber": claims.RollNumber}, searchFilter)
		cursor, err := db.Marks().Find(ctx, filter)
		if err != nil {
			log.Printf("Error fetching student marks: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server Error"})
			return
		}
		defer cursor.Close(ctx)

		marks := []models.Mark{}
		if err := cursor.All(ctx, &marks); err != nil {
			log.Printf("Error decoding student marks: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server Error"})
			return
		}
		c.JSON(http.StatusOK, marks)
		return
	}

	ownershipFilter := bson.M{}
	if claims.Role == models.RoleTeacher {
		teacherID, err := primitive.ObjectIDFromHex(claims.ID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid token"})
			return
		}
		ownershipFilter["teacherId"] = teacherID
	}

	pipeline := markListPipeline(mergeFilters(ownershipFilter, searchFilter))
	cursor, err := db.Marks().Aggregate(ctx, pipeline)
	if err != nil {
		log.Printf("Error fetching student marks: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server Error"})
		return
	}
	defer cursor.Close(ctx)

	marks := []bson.M{}
	if err := cursor.All(ctx, &marks); err != nil {
		log.Printf("Error decoding student marks: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server Error"})
		return
	}
	c.JSON(http.StatusOK, marks)
}

// loadOwnedMark fetches a mark by id and verifies the caller owns it.
// It writes the error response itself and returns false when the caller
// should stop.
func loadOwnedMark(c *gin.Context, action string) (primitive.ObjectID, bool) {
	claims := auth.CurrentClaims(c)

	markID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Student not found"})
		return primitive.NilObjectID, false
	}

	ctx, cancel := queryContext(c)
	defer cancel()

	var mark models.Mark
	err = db.Marks().FindOne(ctx, bson.M{"_id": markID}).Decode(&mark)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"message": "Student not found"})
			return primitive.NilObjectID, false
		}
		log.Printf("Error loading mark: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server Error"})
		return primitive.NilObjectID, false
	}

	if mark.TeacherID.Hex() != claims.ID {
		c.JSON(http.StatusForbidden, gin.H{"message": "Not authorized to " + action})
		return primitive.NilObjectID, false
	}

	return markID, true
}

// UpdateMarkHandler edits a mark record (owning teacher only)
func UpdateMarkHandler(c *gin.Context) {
	var req models.UpdateMarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid data"})
		return
	}

	markID, ok := loadOwnedMark(c, "update")
	if !ok {
		return
	}

	updateFields := bson.M{"updatedAt": time.Now().UTC()}
	if req.RollNumber != nil {
		updateFields["rollNumber"] = *req.RollNumber
	}
	if req.Marks != nil {
		updateFields["marks"] = *req.Marks
	}
	if req.Subject != nil {
		updateFields["subject"] = *req.Subject
	}

	ctx, cancel := queryContext(c)
	defer cancel()

	var updated models.Mark
	err := db.Marks().FindOneAndUpdate(
		ctx,
		bson.M{"_id": markID},
		bson.M{"$set": updateFields},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if db.IsDup(err) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Mark record already exists for that Roll Number and subject."})
			return
		}
		log.Printf("Error updating mark: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid data"})
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteMarkHandler removes a mark record (owning teacher only)
func DeleteMarkHandler(c *gin.Context) {
	markID, ok := loadOwnedMark(c, "delete")
	if !ok {
		return
	}

	ctx, cancel := queryContext(c)
	defer cancel()

	if _, err := db.Marks().DeleteOne(ctx, bson.M{"_id": markID}); err != nil {
		log.Printf("Error deleting mark: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server Error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Student deleted"})
}
