package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	employeeDomain "github.com/allisson/fieldcrypt/internal/employee/domain"
)

// CreateEmployeeInput carries the plaintext values for a new employee.
type CreateEmployeeInput struct {
	ClientID string
	Name     string
	Nickname *string
	Salary   decimal.Decimal
	Roles    []string
	Profile  any
	HiredAt  time.Time
}

// employeeUseCase implements the EmployeeUseCase interface.
type employeeUseCase struct {
	employeeRepo EmployeeRepository
}

// NewEmployeeUseCase creates a new employee use case instance.
func NewEmployeeUseCase(employeeRepo EmployeeRepository) EmployeeUseCase {
	return &employeeUseCase{employeeRepo: employeeRepo}
}

// Create builds an employee from plaintext input, routing every field
// through the write path of its descriptor, and persists it.
func (u *employeeUseCase) Create(ctx context.Context, input CreateEmployeeInput) (*employeeDomain.Employee, error) {
	employee := employeeDomain.NewEmployee(input.ClientID)

	if err := employeeDomain.NameField.Set(ctx, &employee.Name, input.Name); err != nil {
		return nil, err
	}
	if err := employeeDomain.NicknameField.Set(ctx, &employee.Nickname, input.Nickname); err != nil {
		return nil, err
	}
	if err := employeeDomain.SalaryField.Set(ctx, &employee.Salary, input.Salary); err != nil {
		return nil, err
	}
	if err := employeeDomain.RolesField.Set(ctx, &employee.Roles, input.Roles); err != nil {
		return nil, err
	}
	if err := employeeDomain.ProfileField.Set(ctx, &employee.Profile, input.Profile); err != nil {
		return nil, err
	}
	if err := employeeDomain.HiredAtField.Set(ctx, &employee.HiredAt, input.HiredAt); err != nil {
		return nil, err
	}

	if err := u.employeeRepo.Create(ctx, employee); err != nil {
		return nil, err
	}
	return employee, nil
}

// Get retrieves an employee by id.
func (u *employeeUseCase) Get(ctx context.Context, id string) (*employeeDomain.Employee, error) {
	return u.employeeRepo.Get(ctx, id)
}

// FindByName searches the client's employees by exact name, rewritten to a
// beacon-column comparison under the bound tenant.
func (u *employeeUseCase) FindByName(ctx context.Context, clientID, name string) ([]*employeeDomain.Employee, error) {
	predicate, err := employeeDomain.NameField.Equals(ctx, name)
	if err != nil {
		return nil, err
	}
	return u.employeeRepo.Search(ctx, clientID, predicate)
}
