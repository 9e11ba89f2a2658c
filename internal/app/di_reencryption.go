package app

import (
	"fmt"

	employeeRepository "github.com/allisson/fieldcrypt/internal/employee/repository"
	employeeUsecase "github.com/allisson/fieldcrypt/internal/employee/usecase"
	reencryptionUsecase "github.com/allisson/fieldcrypt/internal/reencryption/usecase"
)

// EmployeeRepository returns the employee repository instance.
func (c *Container) EmployeeRepository() (employeeUsecase.EmployeeRepository, error) {
	var err error
	c.employeeRepoInit.Do(func() {
		c.employeeRepo, err = c.initEmployeeRepository()
		if err != nil {
			c.initErrors["employeeRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["employeeRepo"]; exists {
		return nil, storedErr
	}
	return c.employeeRepo, nil
}

// EmployeeUseCase returns the employee use case instance.
func (c *Container) EmployeeUseCase() (employeeUsecase.EmployeeUseCase, error) {
	var err error
	c.employeeUseCaseInit.Do(func() {
		c.employeeUseCase, err = c.initEmployeeUseCase()
		if err != nil {
			c.initErrors["employeeUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["employeeUseCase"]; exists {
		return nil, storedErr
	}
	return c.employeeUseCase, nil
}

// ReencryptionUseCase returns the reencryption engine with every encrypted
// model registered in its catalog.
func (c *Container) ReencryptionUseCase() (reencryptionUsecase.ReencryptionUseCase, error) {
	var err error
	c.reencryptionUseCaseInit.Do(func() {
		c.reencryptionUseCase, err = c.initReencryptionUseCase()
		if err != nil {
			c.initErrors["reencryptionUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["reencryptionUseCase"]; exists {
		return nil, storedErr
	}
	return c.reencryptionUseCase, nil
}

// initEmployeeRepository creates the employee repository instance.
func (c *Container) initEmployeeRepository() (employeeUsecase.EmployeeRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for employee repository: %w", err)
	}

	// The employee model ships PostgreSQL-only; MySQL stays on the generic
	// driver wiring in internal/database.
	switch c.config.DBDriver {
	case "postgres":
		return employeeRepository.NewPostgreSQLEmployeeRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver for employee repository: %s", c.config.DBDriver)
	}
}

// initEmployeeUseCase creates the employee use case instance.
func (c *Container) initEmployeeUseCase() (employeeUsecase.EmployeeUseCase, error) {
	repo, err := c.EmployeeRepository()
	if err != nil {
		return nil, err
	}
	return employeeUsecase.NewEmployeeUseCase(repo), nil
}

// initReencryptionUseCase assembles the model catalog and the engine.
func (c *Container) initReencryptionUseCase() (reencryptionUsecase.ReencryptionUseCase, error) {
	repo, err := c.EmployeeRepository()
	if err != nil {
		return nil, err
	}

	catalog := reencryptionUsecase.NewCatalog()
	if err := catalog.Register(employeeUsecase.NewEmployeeSource(repo)); err != nil {
		return nil, fmt.Errorf("failed to register employee model: %w", err)
	}

	router, err := c.Router()
	if err != nil {
		return nil, err
	}
	txManager, err := c.TxManager()
	if err != nil {
		return nil, err
	}
	cryptoMetrics, err := c.CryptoMetrics()
	if err != nil {
		return nil, err
	}

	return reencryptionUsecase.NewReencryptionUseCase(
		catalog,
		router,
		txManager,
		cryptoMetrics,
		c.Logger(),
	), nil
}
