package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/CharanLingolu/StudentMarkTracker-Backend/db"
	"github.com/CharanLingolu/StudentMarkTracker-Backend/models"
)

// These tests drive the handler paths that depend on store replies —
// ownership checks, unique-index violations, complaint resolution —
// against the driver's mock deployment instead of a live server.

func newMock(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func markDoc(id, teacherID primitive.ObjectID, rollNumber, subject string, marks float64) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "rollNumber", Value: rollNumber},
		{Key: "studentName", Value: "John Doe"},
		{Key: "marks", Value: marks},
		{Key: "subject", Value: subject},
		{Key: "teacherId", Value: teacherID},
	}
}

func studentDoc(rollNumber, fullName string) bson.D {
	return bson.D{
		{Key: "_id", Value: primitive.NewObjectID()},
		{Key: "username", Value: "s1"},
		{Key: "role", Value: models.RoleStudent},
		{Key: "fullName", Value: fullName},
		{Key: "rollNumber", Value: rollNumber},
	}
}

func complaintDoc(id primitive.ObjectID, status string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "studentId", Value: primitive.NewObjectID()},
		{Key: "studentName", Value: "John Doe"},
		{Key: "message", Value: "broken projector"},
		{Key: "status", Value: status},
	}
}

func TestCreateMarkDuplicateSubjectIs400(t *testing.T) {
	mt := newMock(t)

	mt.Run("second insert for same roll number and subject", func(mt *mtest.T) {
		db.Database = mt.DB
		token, _ := tokenFor(mt.T, models.RoleTeacher)

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, mt.DB.Name()+".users", mtest.FirstBatch, studentDoc("R1", "John Doe")),
			mtest.CreateWriteErrorsResponse(mtest.WriteError{
				Index:   0,
				Code:    11000,
				Message: "E11000 duplicate key error collection: studentmarks index: rollNumber_1_subject_1",
			}),
		)

		rec := doRequest(marksRouter(), http.MethodPost, "/api/studentmarks", token,
			`{"rollNumber":"R1","marks":90,"subject":"Math"}`)
		assert.Equal(mt, http.StatusBadRequest, rec.Code)
		assert.Contains(mt, rec.Body.String(), "Mark record already exists for Roll Number R1 in Math")
		assert.Contains(mt, rec.Body.String(), "Edit Mark")
	})
}

func TestCreateMarkUnknownRollNumberIs404(t *testing.T) {
	mt := newMock(t)

	mt.Run("no student holds the roll number", func(mt *mtest.T) {
		db.Database = mt.DB
		token, _ := tokenFor(mt.T, models.RoleTeacher)

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, mt.DB.Name()+".users", mtest.FirstBatch),
		)

		rec := doRequest(marksRouter(), http.MethodPost, "/api/studentmarks", token,
			`{"rollNumber":"R9","marks":90,"subject":"Math"}`)
		assert.Equal(mt, http.StatusNotFound, rec.Code)
		assert.Contains(mt, rec.Body.String(), "Student with this Roll Number does not exist.")
	})
}

func TestCreateMarkDenormalizesStudentName(t *testing.T) {
	mt := newMock(t)

	mt.Run("new record carries the student's full name", func(mt *mtest.T) {
		db.Database = mt.DB
		token, _ := tokenFor(mt.T, models.RoleTeacher)

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, mt.DB.Name()+".users", mtest.FirstBatch, studentDoc("R1", "Jane Roe")),
			mtest.CreateSuccessResponse(),
		)

		rec := doRequest(marksRouter(), http.MethodPost, "/api/studentmarks", token,
			`{"rollNumber":"R1","marks":85,"subject":"Math"}`)
		assert.Equal(mt, http.StatusCreated, rec.Code)
		assert.Contains(mt, rec.Body.String(), `"studentName":"Jane Roe"`)
		assert.Contains(mt, rec.Body.String(), `"marks":85`)
	})
}

func TestUpdateMarkNonOwnerIs403(t *testing.T) {
	mt := newMock(t)

	mt.Run("record owned by another teacher", func(mt *mtest.T) {
		db.Database = mt.DB
		token, _ := tokenFor(mt.T, models.RoleTeacher)
		markID := primitive.NewObjectID()

		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, mt.DB.Name()+".studentmarks", mtest.FirstBatch,
				markDoc(markID, primitive.NewObjectID(), "R1", "Math", 85)),
		)

		rec := doRequest(marksRouter(), http.MethodPut, "/api/studentmarks/"+markID.Hex(), token,
			`{"marks":95}`)
		assert.Equal(mt, http.StatusForbidden, rec.Code)
		assert.Contains(mt, rec.Body.String(), "Not authorized to update")
	})
}

func TestUpdateMarkByOwnerSucceeds(t *testing.T) {
	mt := newMock(t)

	mt.Run("owning teacher edits the score", func(mt *mtest.T) {
		db.Database = mt.DB
		token, teacher := tokenFor(mt.T, models.RoleTeacher)
		markID := primitive.NewObjectID()

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, mt.DB.Name()+".studentmarks", mtest.FirstBatch,
				markDoc(markID, teacher.ID, "R1", "Math", 85)),
			mtest.CreateSuccessResponse(bson.E{
				Key:   "value",
				Value: markDoc(markID, teacher.ID, "R1", "Math", 95),
			}),
		)

		rec := doRequest(marksRouter(), http.MethodPut, "/api/studentmarks/"+markID.Hex(), token,
			`{"marks":95}`)
		assert.Equal(mt, http.StatusOK, rec.Code)
		assert.Contains(mt, rec.Body.String(), `"marks":95`)
	})
}

func TestDeleteMarkNonOwnerIs403(t *testing.T) {
	mt := newMock(t)

	mt.Run("record owned by another teacher", func(mt *mtest.T) {
		db.Database = mt.DB
		token, _ := tokenFor(mt.T, models.RoleTeacher)
		markID := primitive.NewObjectID()

		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, mt.DB.Name()+".studentmarks", mtest.FirstBatch,
				markDoc(markID, primitive.NewObjectID(), "R1", "Math", 85)),
		)

		rec := doRequest(marksRouter(), http.MethodDelete, "/api/studentmarks/"+markID.Hex(), token, "")
		assert.Equal(mt, http.StatusForbidden, rec.Code)
		assert.Contains(mt, rec.Body.String(), "Not authorized to delete")
	})
}

func TestDeleteMarkByOwnerSucceeds(t *testing.T) {
	mt := newMock(t)

	mt.Run("owning teacher removes the record", func(mt *mtest.T) {
		db.Database = mt.DB
		token, teacher := tokenFor(mt.T, models.RoleTeacher)
		markID := primitive.NewObjectID()

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, mt.DB.Name()+".studentmarks", mtest.FirstBatch,
				markDoc(markID, teacher.ID, "R1", "Math", 85)),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
		)

		rec := doRequest(marksRouter(), http.MethodDelete, "/api/studentmarks/"+markID.Hex(), token, "")
		assert.Equal(mt, http.StatusOK, rec.Code)
		assert.Contains(mt, rec.Body.String(), "Student deleted")
	})
}

func TestResolveComplaintSetsResolved(t *testing.T) {
	mt := newMock(t)

	mt.Run("submitted complaint becomes resolved", func(mt *mtest.T) {
		db.Database = mt.DB
		token, _ := tokenFor(mt.T, models.RoleTeacher)
		complaintID := primitive.NewObjectID()

		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{
				Key:   "value",
				Value: complaintDoc(complaintID, models.StatusResolved),
			}),
		)

		rec := doRequest(complaintsRouter(), http.MethodPut, "/api/complaints/"+complaintID.Hex(), token, "")
		assert.Equal(mt, http.StatusOK, rec.Code)
		assert.Contains(mt, rec.Body.String(), `"status":"Resolved"`)
	})
}

func TestResolveComplaintIsIdempotent(t *testing.T) {
	mt := newMock(t)

	mt.Run("resolving twice succeeds both times", func(mt *mtest.T) {
		db.Database = mt.DB
		token, _ := tokenFor(mt.T, models.RoleAdmin)
		complaintID := primitive.NewObjectID()

		// Both resolutions re-persist "Resolved"; the second is a no-op.
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{
				Key:   "value",
				Value: complaintDoc(complaintID, models.StatusResolved),
			}),
			mtest.CreateSuccessResponse(bson.E{
				Key:   "value",
				Value: complaintDoc(complaintID, models.StatusResolved),
			}),
		)

		r := complaintsRouter()
		for i := 0; i < 2; i++ {
			rec := doRequest(r, http.MethodPut, "/api/complaints/"+complaintID.Hex(), token, "")
			assert.Equal(mt, http.StatusOK, rec.Code)
			assert.Contains(mt, rec.Body.String(), `"status":"Resolved"`)
		}
	})
}

func TestResolveComplaintUnknownDocumentIs404(t *testing.T) {
	mt := newMock(t)

	mt.Run("well-formed id with no matching complaint", func(mt *mtest.T) {
		db.Database = mt.DB
		token, _ := tokenFor(mt.T, models.RoleAdmin)

		// findAndModify with a null value means no document matched
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		rec := doRequest(complaintsRouter(), http.MethodPut, "/api/complaints/"+primitive.NewObjectID().Hex(), token, "")
		assert.Equal(mt, http.StatusNotFound, rec.Code)
		assert.Contains(mt, rec.Body.String(), "Complaint not found")
	})
}
