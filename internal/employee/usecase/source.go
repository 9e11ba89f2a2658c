package usecase

import (
	"context"

	employeeDomain "github.com/allisson/fieldcrypt/internal/employee/domain"
	apperrors "github.com/allisson/fieldcrypt/internal/errors"
	reencryptionDomain "github.com/allisson/fieldcrypt/internal/reencryption/domain"
)

// EmployeeSource adapts the employee repository to the reencryption
// engine's model source contract.
type EmployeeSource struct {
	employeeRepo EmployeeRepository
}

// NewEmployeeSource creates the employee model source for catalog
// registration.
func NewEmployeeSource(employeeRepo EmployeeRepository) *EmployeeSource {
	return &EmployeeSource{employeeRepo: employeeRepo}
}

// Name returns the catalog name of the employee model.
func (s *EmployeeSource) Name() string { return "employee" }

// EncryptedFields returns the employee's encrypted field names.
func (s *EmployeeSource) EncryptedFields() []string {
	return employeeDomain.EncryptedFieldNames()
}

// List loads the client's employees as engine records.
func (s *EmployeeSource) List(ctx context.Context, clientID string) ([]reencryptionDomain.Record, error) {
	employees, err := s.employeeRepo.ListByClientID(ctx, clientID)
	if err != nil {
		return nil, err
	}

	records := make([]reencryptionDomain.Record, len(employees))
	for ix, employee := range employees {
		records[ix] = employee
	}
	return records, nil
}

// Save persists one rewritten employee.
func (s *EmployeeSource) Save(ctx context.Context, record reencryptionDomain.Record) error {
	employee, ok := record.(*employeeDomain.Employee)
	if !ok {
		return apperrors.Wrapf(apperrors.ErrInvalidInput, "unexpected record type %T", record)
	}
	return s.employeeRepo.Update(ctx, employee)
}
