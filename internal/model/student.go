package model

import (
	"github.com/google/uuid"
)

// Student is a roster entry managed by admins. Students do not authenticate;
// they identify themselves by name and student number when starting an exam.
type Student struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	// StudentID is the school-assigned student number, distinct from the
	// record's own id.
	StudentID string `json:"studentId"`
}

// CreateStudentRequest is the payload for adding a roster entry.
type CreateStudentRequest struct {
	Name      string `json:"name" binding:"required,min=1,max=255"`
	StudentID string `json:"studentId" binding:"required,min=1,max=100"`
}

// UpdateStudentRequest is the payload for editing a roster entry.
type UpdateStudentRequest struct {
	Name      *string `json:"name" binding:"omitempty,min=1,max=255"`
	StudentID *string `json:"studentId" binding:"omitempty,min=1,max=100"`
}
