package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role values carried in tokens and stored on users
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// Complaint status values
const (
	StatusSubmitted = "Submitted"
	StatusResolved  = "Resolved"
)

// LoginRequest for authentication
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// User model; the password field holds the bcrypt hash. It is serialized
// in admin listings on purpose (administrative visibility of the hash).
type User struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Username   string             `json:"username" bson:"username"`
	Password   string             `json:"password,omitempty" bson:"password"`
	Role       string             `json:"role" bson:"role"`
	FullName   string             `json:"fullName" bson:"fullName"`
	RollNumber string             `json:"rollNumber,omitempty" bson:"rollNumber,omitempty"`
}

// CreateUserRequest for admin user registration
type CreateUserRequest struct {
	Username   string `json:"username" binding:"required"`
	Password   string `json:"password" binding:"required"`
	Role       string `json:"role" binding:"required,oneof=admin teacher student"`
	FullName   string `json:"fullName"`
	RollNumber string `json:"rollNumber"`
}

// UpdateUserRequest for partial admin updates; nil fields are left untouched
type UpdateUserRequest struct {
	Role       *string `json:"role" binding:"omitempty,oneof=admin teacher student"`
	FullName   *string `json:"fullName"`
	RollNumber *string `json:"rollNumber"`
}

// UpdatePasswordRequest for admin password resets
type UpdatePasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

// RegisterAdminRequest for the unauthenticated admin bootstrap route
type RegisterAdminRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterTestStudentRequest for the unauthenticated test-student route
type RegisterTestStudentRequest struct {
	Username   string `json:"username" binding:"required"`
	Password   string `json:"password" binding:"required"`
	FullName   string `json:"fullName"`
	RollNumber string `json:"rollNumber"`
}

// Mark model: one subject score for a student, owned by the teacher who
// entered it. StudentName is denormalized from the User at creation time.
type Mark struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	RollNumber  string             `json:"rollNumber" bson:"rollNumber"`
	StudentName string             `json:"studentName" bson:"studentName"`
	Marks       float64            `json:"marks" bson:"marks"`
	Subject     string             `json:"subject" bson:"subject"`
	TeacherID   primitive.ObjectID `json:"teacherId" bson:"teacherId"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// CreateMarkRequest for teacher mark entry
type CreateMarkRequest struct {
	RollNumber string   `json:"rollNumber" binding:"required"`
	Marks      *float64 `json:"marks" binding:"required,gte=0,lte=100"`
	Subject    string   `json:"subject" binding:"required"`
}

// UpdateMarkRequest for teacher mark edits; nil fields are left untouched
type UpdateMarkRequest struct {
	RollNumber *string  `json:"rollNumber"`
	Marks      *float64 `json:"marks" binding:"omitempty,gte=0,lte=100"`
	Subject    *string  `json:"subject"`
}

// Complaint model; only status changes after creation
type Complaint struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	StudentID   primitive.ObjectID `json:"studentId" bson:"studentId"`
	StudentName string             `json:"studentName" bson:"studentName"`
	Message     string             `json:"message" bson:"message"`
	Status      string             `json:"status" bson:"status"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
}

// CreateComplaintRequest for student complaint submission
type CreateComplaintRequest struct {
	Message string `json:"message" binding:"required"`
}
