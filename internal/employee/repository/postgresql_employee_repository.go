// Package repository implements employee persistence for PostgreSQL. Each
// encrypted field spans its slot columns (<name>_encrypted,
// <name>_unencrypted and, for searchable fields, <name>_beacon); the table
// carries CHECK constraints enforcing slot mutual exclusivity, mirrored
// here by validating before every write.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/allisson/fieldcrypt/internal/database"
	employeeDomain "github.com/allisson/fieldcrypt/internal/employee/domain"
	"github.com/allisson/fieldcrypt/internal/encryption/field"
	apperrors "github.com/allisson/fieldcrypt/internal/errors"
)

const employeeColumns = `id, client_id,
	name_encrypted, name_unencrypted, name_beacon,
	nickname_encrypted, nickname_unencrypted,
	salary_encrypted, salary_unencrypted,
	roles_encrypted, roles_unencrypted,
	profile_encrypted, profile_unencrypted,
	hired_at_encrypted, hired_at_unencrypted,
	created_at`

// PostgreSQLEmployeeRepository implements employee persistence for
// PostgreSQL databases.
type PostgreSQLEmployeeRepository struct {
	db *sql.DB
}

// NewPostgreSQLEmployeeRepository creates a new PostgreSQL employee
// repository instance.
func NewPostgreSQLEmployeeRepository(db *sql.DB) *PostgreSQLEmployeeRepository {
	return &PostgreSQLEmployeeRepository{db: db}
}

// Create inserts a new employee.
func (p *PostgreSQLEmployeeRepository) Create(ctx context.Context, employee *employeeDomain.Employee) error {
	if err := employee.Validate(); err != nil {
		return err
	}

	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO employees (` + employeeColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	args, err := writeArgs(employee)
	if err != nil {
		return err
	}

	if _, err := querier.ExecContext(ctx, query, args...); err != nil {
		return apperrors.Wrap(err, "failed to create employee")
	}
	return nil
}

// Update rewrites every slot column of an existing employee.
func (p *PostgreSQLEmployeeRepository) Update(ctx context.Context, employee *employeeDomain.Employee) error {
	if err := employee.Validate(); err != nil {
		return err
	}

	querier := database.GetTx(ctx, p.db)

	query := `UPDATE employees
			  SET name_encrypted = $2, name_unencrypted = $3, name_beacon = $4,
				  nickname_encrypted = $5, nickname_unencrypted = $6,
				  salary_encrypted = $7, salary_unencrypted = $8,
				  roles_encrypted = $9, roles_unencrypted = $10,
				  profile_encrypted = $11, profile_unencrypted = $12,
				  hired_at_encrypted = $13, hired_at_unencrypted = $14
			  WHERE id = $1`

	args, err := writeArgs(employee)
	if err != nil {
		return err
	}
	// Same argument layout as the insert, minus client_id and created_at.
	updateArgs := append([]any{args[0]}, args[2:15]...)

	result, err := querier.ExecContext(ctx, query, updateArgs...)
	if err != nil {
		return apperrors.Wrap(err, "failed to update employee")
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Get retrieves an employee by id.
func (p *PostgreSQLEmployeeRepository) Get(ctx context.Context, id string) (*employeeDomain.Employee, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1 LIMIT 1`

	employee, err := scanEmployee(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get employee")
	}
	return employee, nil
}

// ListByClientID retrieves every employee owned by the client, oldest first.
func (p *PostgreSQLEmployeeRepository) ListByClientID(ctx context.Context, clientID string) ([]*employeeDomain.Employee, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE client_id = $1 ORDER BY created_at`

	rows, err := querier.QueryContext(ctx, query, clientID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list employees")
	}
	defer func() { _ = rows.Close() }()

	var employees []*employeeDomain.Employee
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan employee")
		}
		employees = append(employees, employee)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate employees")
	}
	return employees, nil
}

// Search retrieves the client's employees matching an encrypted-field
// predicate, comparing the predicate's beacon column against its tokens. A
// match-nothing predicate short-circuits without touching the database.
func (p *PostgreSQLEmployeeRepository) Search(
	ctx context.Context,
	clientID string,
	predicate field.Predicate,
) ([]*employeeDomain.Employee, error) {
	if predicate.MatchNothing {
		return nil, nil
	}

	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + employeeColumns + ` FROM employees
			  WHERE client_id = $1 AND ` + pq.QuoteIdentifier(predicate.Column) + ` = ANY($2)
			  ORDER BY created_at`

	rows, err := querier.QueryContext(ctx, query, clientID, pq.Array(predicate.Tokens))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to search employees")
	}
	defer func() { _ = rows.Close() }()

	var employees []*employeeDomain.Employee
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan employee")
		}
		employees = append(employees, employee)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate employees")
	}
	return employees, nil
}

// Delete removes an employee by id.
func (p *PostgreSQLEmployeeRepository) Delete(ctx context.Context, id string) error {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete employee")
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// writeArgs flattens the employee into the insert argument layout.
func writeArgs(employee *employeeDomain.Employee) ([]any, error) {
	profile, err := profileParam(employee.Profile.Unencrypted)
	if err != nil {
		return nil, err
	}

	return []any{
		employee.ID,
		employee.ClientID,
		employee.Name.Encrypted,
		employee.Name.Unencrypted,
		employee.Name.Beacon,
		employee.Nickname.Encrypted,
		nullableTextParam(employee.Nickname.Unencrypted),
		employee.Salary.Encrypted,
		decimalParam(employee.Salary.Unencrypted),
		employee.Roles.Encrypted,
		rolesParam(employee.Roles.Unencrypted),
		employee.Profile.Encrypted,
		profile,
		employee.HiredAt.Encrypted,
		timeParam(employee.HiredAt.Unencrypted),
		employee.CreatedAt,
	}, nil
}

func nullableTextParam(value **string) any {
	if value == nil || *value == nil {
		return nil
	}
	return **value
}

func decimalParam(value *decimal.Decimal) any {
	if value == nil {
		return nil
	}
	return value.String()
}

func rolesParam(value *[]string) any {
	if value == nil {
		return nil
	}
	return pq.Array(*value)
}

func profileParam(value *any) ([]byte, error) {
	if value == nil {
		return nil, nil
	}
	data, err := json.Marshal(*value)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal profile")
	}
	return data, nil
}

func timeParam(value *time.Time) any {
	if value == nil {
		return nil
	}
	return *value
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanEmployee reads one employees row into slot form. NULL slot columns
// stay nil so the field layer sees the same empty/encrypted/plaintext
// states the writer produced.
func scanEmployee(scanner rowScanner) (*employeeDomain.Employee, error) {
	var (
		employee          employeeDomain.Employee
		nameUnencrypted   sql.NullString
		nameBeacon        sql.NullString
		nickUnencrypted   sql.NullString
		salaryUnencrypted decimal.NullDecimal
		rolesUnencrypted  pq.StringArray
		profUnencrypted   []byte
		hiredUnencrypted  sql.NullTime
	)

	err := scanner.Scan(
		&employee.ID,
		&employee.ClientID,
		&employee.Name.Encrypted,
		&nameUnencrypted,
		&nameBeacon,
		&employee.Nickname.Encrypted,
		&nickUnencrypted,
		&employee.Salary.Encrypted,
		&salaryUnencrypted,
		&employee.Roles.Encrypted,
		&rolesUnencrypted,
		&employee.Profile.Encrypted,
		&profUnencrypted,
		&employee.HiredAt.Encrypted,
		&hiredUnencrypted,
		&employee.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if nameUnencrypted.Valid {
		employee.Name.Unencrypted = &nameUnencrypted.String
	}
	if nameBeacon.Valid {
		employee.Name.Beacon = &nameBeacon.String
	}
	if nickUnencrypted.Valid {
		nickname := &nickUnencrypted.String
		employee.Nickname.Unencrypted = &nickname
	}
	if salaryUnencrypted.Valid {
		employee.Salary.Unencrypted = &salaryUnencrypted.Decimal
	}
	if rolesUnencrypted != nil {
		roles := []string(rolesUnencrypted)
		employee.Roles.Unencrypted = &roles
	}
	if profUnencrypted != nil {
		var profile any
		if err := json.Unmarshal(profUnencrypted, &profile); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal profile")
		}
		employee.Profile.Unencrypted = &profile
	}
	if hiredUnencrypted.Valid {
		employee.HiredAt.Unencrypted = &hiredUnencrypted.Time
	}

	return &employee, nil
}
