package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/drl-go-api/internal/models"
)

// StudentRepository provides read access to student records.
type StudentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Student, error)
	// ClassOf returns the class the student belongs to, nil when unassigned.
	ClassOf(ctx context.Context, studentID uint) (*uint, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) ClassOf(ctx context.Context, studentID uint) (*uint, error) {
	student, err := r.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}

	return student.ClassID, nil
}
