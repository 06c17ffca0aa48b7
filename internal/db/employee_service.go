package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/balkashynov/punch/internal/models"
)

// CreateEmployee adds an employee with a fresh id
func (s *Store) CreateEmployee(ctx context.Context, name string) (*models.Employee, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("employee name is required")
	}

	var existing models.Employee
	err := s.DB.WithContext(ctx).Where("name = ?", name).First(&existing).Error
	if err == nil {
		return nil, fmt.Errorf("employee %q already exists with id %s", name, existing.ID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	employee := models.Employee{ID: uuid.NewString(), Name: name}
	if err := s.DB.WithContext(ctx).Create(&employee).Error; err != nil {
		return nil, err
	}
	return &employee, nil
}

// ListEmployees returns all employees ordered by name
func (s *Store) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	var employees []models.Employee
	if err := s.DB.WithContext(ctx).Order("name ASC").Find(&employees).Error; err != nil {
		return nil, err
	}
	return employees, nil
}

// EmployeeByID retrieves an employee by id
func (s *Store) EmployeeByID(ctx context.Context, id string) (*models.Employee, error) {
	var employee models.Employee
	err := s.DB.WithContext(ctx).First(&employee, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrEmployeeNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

// ResolveEmployee accepts an id or an exact name
func (s *Store) ResolveEmployee(ctx context.Context, idOrName string) (*models.Employee, error) {
	employee, err := s.EmployeeByID(ctx, idOrName)
	if err == nil || !errors.Is(err, ErrEmployeeNotFound) {
		return employee, err
	}

	var byName models.Employee
	err = s.DB.WithContext(ctx).Where("name = ?", idOrName).First(&byName).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrEmployeeNotFound, idOrName)
	}
	if err != nil {
		return nil, err
	}
	return &byName, nil
}
