// Package usecase implements employee business logic: CRUD under the
// caller's encryption context, beacon-backed name search, and the model
// source feeding the reencryption engine.
package usecase

import (
	"context"

	employeeDomain "github.com/allisson/fieldcrypt/internal/employee/domain"
	"github.com/allisson/fieldcrypt/internal/encryption/field"
)

// EmployeeRepository defines the interface for employee persistence.
type EmployeeRepository interface {
	Create(ctx context.Context, employee *employeeDomain.Employee) error
	Update(ctx context.Context, employee *employeeDomain.Employee) error
	Get(ctx context.Context, id string) (*employeeDomain.Employee, error)
	ListByClientID(ctx context.Context, clientID string) ([]*employeeDomain.Employee, error)
	Search(ctx context.Context, clientID string, predicate field.Predicate) ([]*employeeDomain.Employee, error)
	Delete(ctx context.Context, id string) error
}

// EmployeeUseCase defines employee business operations. Every operation
// runs under whatever encryption binding the caller's context carries;
// unbound contexts read redacted values and write plaintext.
type EmployeeUseCase interface {
	Create(ctx context.Context, input CreateEmployeeInput) (*employeeDomain.Employee, error)
	Get(ctx context.Context, id string) (*employeeDomain.Employee, error)
	FindByName(ctx context.Context, clientID, name string) ([]*employeeDomain.Employee, error)
}
