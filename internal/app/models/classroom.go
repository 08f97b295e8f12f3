package models

import "time"

// Classroom defines a grade/class pair from the 'classrooms' table
type Classroom struct {
	ID        string    `json:"id" db:"id"`
	Grade     int       `json:"grade" db:"grade"`
	ClassNo   int       `json:"classNo" db:"class_no"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
