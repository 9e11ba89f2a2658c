// Package domain defines the employee model: the reference consumer of
// encrypted field descriptors, covering every encoder variant against a
// real table layout.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/allisson/fieldcrypt/internal/encryption/encoding"
	"github.com/allisson/fieldcrypt/internal/encryption/field"
)

// Field descriptors for the employees table. Shared and immutable; the
// per-record state lives in the Employee slots.
var (
	// NameField is searchable through its beacon column.
	NameField = field.NewDescriptor[string]("name", encoding.NewStringEncoder(), field.WithBeacon[string]())

	// NicknameField allows explicit null values.
	NicknameField = field.NewDescriptor[*string]("nickname", encoding.NewNullable[string](encoding.NewStringEncoder()))

	// SalaryField keeps exact decimal semantics across the crypto round trip.
	SalaryField = field.NewDescriptor[decimal.Decimal]("salary", encoding.NewDecimalEncoder())

	// RolesField holds a homogeneous string array.
	RolesField = field.NewDescriptor[[]string]("roles", encoding.NewArrayEncoder[string](encoding.NewStringEncoder()))

	// ProfileField holds free-form JSON.
	ProfileField = field.NewDescriptor[any]("profile", encoding.NewJSONEncoder())

	// HiredAtField keeps timezone-aware timestamps.
	HiredAtField = field.NewDescriptor[time.Time]("hired_at", encoding.NewDatetimeEncoder())
)

// EncryptedFieldNames returns the logical names of the employee's encrypted
// fields, in column order.
func EncryptedFieldNames() []string {
	return []string{"name", "nickname", "salary", "roles", "profile", "hired_at"}
}

// Employee is one employees row. Each encrypted field is a slot triple;
// plain columns are ordinary struct fields.
type Employee struct {
	ID        uuid.UUID
	ClientID  string
	Name      field.Slots[string]
	Nickname  field.Slots[*string]
	Salary    field.Slots[decimal.Decimal]
	Roles     field.Slots[[]string]
	Profile   field.Slots[any]
	HiredAt   field.Slots[time.Time]
	CreatedAt time.Time
}

// NewEmployee creates an employee with a fresh UUIDv7 identifier.
func NewEmployee(clientID string) *Employee {
	return &Employee{
		ID:        uuid.Must(uuid.NewV7()),
		ClientID:  clientID,
		CreatedAt: time.Now().UTC(),
	}
}

// Columns returns the employee's encrypted columns in type-erased form,
// satisfying the reencryption engine's record contract.
func (e *Employee) Columns() []field.Column {
	return []field.Column{
		field.Bind(NameField, &e.Name),
		field.Bind(NicknameField, &e.Nickname),
		field.Bind(SalaryField, &e.Salary),
		field.Bind(RolesField, &e.Roles),
		field.Bind(ProfileField, &e.Profile),
		field.Bind(HiredAtField, &e.HiredAt),
	}
}

// Validate checks the slot invariants of every encrypted column, mirroring
// the table's CHECK constraints before a write reaches the database.
func (e *Employee) Validate() error {
	for _, column := range e.Columns() {
		if err := column.Validate(); err != nil {
			return err
		}
	}
	return nil
}
