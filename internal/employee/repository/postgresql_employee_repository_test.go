package repository

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	employeeDomain "github.com/allisson/fieldcrypt/internal/employee/domain"
	"github.com/allisson/fieldcrypt/internal/encryption/field"
	apperrors "github.com/allisson/fieldcrypt/internal/errors"
	"github.com/allisson/fieldcrypt/internal/testutil"
)

var employeeRowColumns = []string{
	"id", "client_id",
	"name_encrypted", "name_unencrypted", "name_beacon",
	"nickname_encrypted", "nickname_unencrypted",
	"salary_encrypted", "salary_unencrypted",
	"roles_encrypted", "roles_unencrypted",
	"profile_encrypted", "profile_unencrypted",
	"hired_at_encrypted", "hired_at_unencrypted",
	"created_at",
}

// rowFor flattens an employee into driver values the way PostgreSQL would
// return them.
func rowFor(t *testing.T, employee *employeeDomain.Employee) []driver.Value {
	t.Helper()

	values := []driver.Value{employee.ID.String(), employee.ClientID}

	values = append(values, employee.Name.Encrypted)
	values = append(values, textValue(employee.Name.Unencrypted))
	values = append(values, textValue(employee.Name.Beacon))

	values = append(values, employee.Nickname.Encrypted)
	if employee.Nickname.Unencrypted != nil && *employee.Nickname.Unencrypted != nil {
		values = append(values, **employee.Nickname.Unencrypted)
	} else {
		values = append(values, nil)
	}

	values = append(values, employee.Salary.Encrypted)
	if employee.Salary.Unencrypted != nil {
		values = append(values, employee.Salary.Unencrypted.String())
	} else {
		values = append(values, nil)
	}

	values = append(values, employee.Roles.Encrypted)
	if employee.Roles.Unencrypted != nil {
		values = append(values, "{"+strings.Join(*employee.Roles.Unencrypted, ",")+"}")
	} else {
		values = append(values, nil)
	}

	values = append(values, employee.Profile.Encrypted)
	if employee.Profile.Unencrypted != nil {
		data, err := json.Marshal(*employee.Profile.Unencrypted)
		require.NoError(t, err)
		values = append(values, data)
	} else {
		values = append(values, nil)
	}

	values = append(values, employee.HiredAt.Encrypted)
	if employee.HiredAt.Unencrypted != nil {
		values = append(values, *employee.HiredAt.Unencrypted)
	} else {
		values = append(values, nil)
	}

	return append(values, employee.CreatedAt)
}

func textValue(value *string) driver.Value {
	if value == nil {
		return nil
	}
	return *value
}

func plaintextEmployee(t *testing.T, clientID, name string) *employeeDomain.Employee {
	t.Helper()

	ctx := context.Background()
	employee := employeeDomain.NewEmployee(clientID)

	require.NoError(t, employeeDomain.NameField.Set(ctx, &employee.Name, name))
	require.NoError(t, employeeDomain.SalaryField.Set(ctx, &employee.Salary, decimal.RequireFromString("1234.56")))
	require.NoError(t, employeeDomain.RolesField.Set(ctx, &employee.Roles, []string{"developer", "lead"}))
	require.NoError(t, employeeDomain.HiredAtField.Set(ctx, &employee.HiredAt, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)))
	return employee
}

func encryptedEmployee(t *testing.T, ctx context.Context, clientID, name string) *employeeDomain.Employee {
	t.Helper()

	employee := employeeDomain.NewEmployee(clientID)
	nickname := "al"

	require.NoError(t, employeeDomain.NameField.Set(ctx, &employee.Name, name))
	require.NoError(t, employeeDomain.NicknameField.Set(ctx, &employee.Nickname, &nickname))
	require.NoError(t, employeeDomain.SalaryField.Set(ctx, &employee.Salary, decimal.RequireFromString("1234.56")))
	require.NoError(t, employeeDomain.RolesField.Set(ctx, &employee.Roles, []string{"developer"}))
	require.NoError(t, employeeDomain.ProfileField.Set(ctx, &employee.Profile, map[string]any{"team": "core"}))
	require.NoError(t, employeeDomain.HiredAtField.Set(ctx, &employee.HiredAt, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)))
	return employee
}

func boundContext(t *testing.T, contextKey string) context.Context {
	t.Helper()

	registry := testutil.NewRegistry(t,
		[]string{contextKey},
		[]string{"key-" + contextKey},
		[]string{testutil.BeaconSecret(contextKey)},
	)
	router := testutil.NewRouter(t, registry)

	encryptor, err := router.Lookup(contextKey)
	require.NoError(t, err)
	return field.WithEncryptor(context.Background(), contextKey, encryptor)
}

func TestPostgreSQLEmployeeRepository_Create(t *testing.T) {
	t.Run("inserts a plaintext employee", func(t *testing.T) {
		db, mock := testutil.NewSQLMock(t)
		repo := NewPostgreSQLEmployeeRepository(db)

		mock.ExpectExec("INSERT INTO employees").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Create(context.Background(), plaintextEmployee(t, "client1", "alice"))
		require.NoError(t, err)
	})

	t.Run("rejects an invalid slot state before the insert", func(t *testing.T) {
		db, _ := testutil.NewSQLMock(t)
		repo := NewPostgreSQLEmployeeRepository(db)

		employee := plaintextEmployee(t, "client1", "alice")
		employee.Name.Encrypted = []byte{0x01}

		err := repo.Create(context.Background(), employee)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ErrIntegrity))
	})
}

func TestPostgreSQLEmployeeRepository_Get(t *testing.T) {
	t.Run("plaintext row", func(t *testing.T) {
		db, mock := testutil.NewSQLMock(t)
		repo := NewPostgreSQLEmployeeRepository(db)

		stored := plaintextEmployee(t, "client1", "alice")
		mock.ExpectQuery("SELECT (.+) FROM employees WHERE id").
			WithArgs(stored.ID.String()).
			WillReturnRows(sqlmock.NewRows(employeeRowColumns).AddRow(rowFor(t, stored)...))

		employee, err := repo.Get(context.Background(), stored.ID.String())
		require.NoError(t, err)

		name, err := employeeDomain.NameField.Get(context.Background(), &employee.Name)
		require.NoError(t, err)
		assert.Equal(t, "alice", name)

		salary, err := employeeDomain.SalaryField.Get(context.Background(), &employee.Salary)
		require.NoError(t, err)
		assert.True(t, salary.Equal(decimal.RequireFromString("1234.56")))

		roles, err := employeeDomain.RolesField.Get(context.Background(), &employee.Roles)
		require.NoError(t, err)
		assert.Equal(t, []string{"developer", "lead"}, roles)
	})

	t.Run("encrypted row survives the round trip", func(t *testing.T) {
		db, mock := testutil.NewSQLMock(t)
		repo := NewPostgreSQLEmployeeRepository(db)
		ctx := boundContext(t, "client1")

		stored := encryptedEmployee(t, ctx, "client1", "alice")
		mock.ExpectQuery("SELECT (.+) FROM employees WHERE id").
			WithArgs(stored.ID.String()).
			WillReturnRows(sqlmock.NewRows(employeeRowColumns).AddRow(rowFor(t, stored)...))

		employee, err := repo.Get(ctx, stored.ID.String())
		require.NoError(t, err)

		assert.NotNil(t, employee.Name.Encrypted)
		assert.Nil(t, employee.Name.Unencrypted)
		assert.NotNil(t, employee.Name.Beacon)

		name, err := employeeDomain.NameField.Get(ctx, &employee.Name)
		require.NoError(t, err)
		assert.Equal(t, "alice", name)

		nickname, err := employeeDomain.NicknameField.Get(ctx, &employee.Nickname)
		require.NoError(t, err)
		require.NotNil(t, nickname)
		assert.Equal(t, "al", *nickname)

		profile, err := employeeDomain.ProfileField.Get(ctx, &employee.Profile)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"team": "core"}, profile)

		hiredAt, err := employeeDomain.HiredAtField.Get(ctx, &employee.HiredAt)
		require.NoError(t, err)
		assert.True(t, hiredAt.Equal(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)))
	})

	t.Run("missing row", func(t *testing.T) {
		db, mock := testutil.NewSQLMock(t)
		repo := NewPostgreSQLEmployeeRepository(db)

		mock.ExpectQuery("SELECT (.+) FROM employees WHERE id").
			WillReturnRows(sqlmock.NewRows(employeeRowColumns))

		_, err := repo.Get(context.Background(), "missing")
		assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	})
}

func TestPostgreSQLEmployeeRepository_ListByClientID(t *testing.T) {
	db, mock := testutil.NewSQLMock(t)
	repo := NewPostgreSQLEmployeeRepository(db)

	first := plaintextEmployee(t, "client1", "alice")
	second := plaintextEmployee(t, "client1", "bob")
	mock.ExpectQuery("SELECT (.+) FROM employees WHERE client_id").
		WithArgs("client1").
		WillReturnRows(sqlmock.NewRows(employeeRowColumns).
			AddRow(rowFor(t, first)...).
			AddRow(rowFor(t, second)...))

	employees, err := repo.ListByClientID(context.Background(), "client1")
	require.NoError(t, err)
	require.Len(t, employees, 2)
	assert.Equal(t, first.ID, employees[0].ID)
	assert.Equal(t, second.ID, employees[1].ID)
}

func TestPostgreSQLEmployeeRepository_Search(t *testing.T) {
	t.Run("match-nothing predicate skips the database", func(t *testing.T) {
		db, _ := testutil.NewSQLMock(t)
		repo := NewPostgreSQLEmployeeRepository(db)

		employees, err := repo.Search(context.Background(), "client1", field.Predicate{MatchNothing: true})
		require.NoError(t, err)
		assert.Empty(t, employees)
	})

	t.Run("beacon predicate filters by token", func(t *testing.T) {
		db, mock := testutil.NewSQLMock(t)
		repo := NewPostgreSQLEmployeeRepository(db)
		ctx := boundContext(t, "client1")

		stored := encryptedEmployee(t, ctx, "client1", "alice")
		predicate, err := employeeDomain.NameField.Equals(ctx, "alice")
		require.NoError(t, err)

		mock.ExpectQuery(`SELECT (.+) FROM employees\s+WHERE client_id = \$1 AND "name_beacon" = ANY`).
			WillReturnRows(sqlmock.NewRows(employeeRowColumns).AddRow(rowFor(t, stored)...))

		employees, err := repo.Search(ctx, "client1", predicate)
		require.NoError(t, err)
		require.Len(t, employees, 1)
		require.NotNil(t, employees[0].Name.Beacon)
		assert.Equal(t, predicate.Tokens[0], *employees[0].Name.Beacon)
	})
}

func TestPostgreSQLEmployeeRepository_Update(t *testing.T) {
	t.Run("rewrites slot columns", func(t *testing.T) {
		db, mock := testutil.NewSQLMock(t)
		repo := NewPostgreSQLEmployeeRepository(db)

		mock.ExpectExec("UPDATE employees").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Update(context.Background(), plaintextEmployee(t, "client1", "alice"))
		require.NoError(t, err)
	})

	t.Run("missing row", func(t *testing.T) {
		db, mock := testutil.NewSQLMock(t)
		repo := NewPostgreSQLEmployeeRepository(db)

		mock.ExpectExec("UPDATE employees").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Update(context.Background(), plaintextEmployee(t, "client1", "alice"))
		assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	})
}

func TestPostgreSQLEmployeeRepository_Delete(t *testing.T) {
	t.Run("removes the row", func(t *testing.T) {
		db, mock := testutil.NewSQLMock(t)
		repo := NewPostgreSQLEmployeeRepository(db)

		mock.ExpectExec("DELETE FROM employees").
			WithArgs("emp-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Delete(context.Background(), "emp-1"))
	})

	t.Run("missing row", func(t *testing.T) {
		db, mock := testutil.NewSQLMock(t)
		repo := NewPostgreSQLEmployeeRepository(db)

		mock.ExpectExec("DELETE FROM employees").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(context.Background(), "missing")
		assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	})
}
