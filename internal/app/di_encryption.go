package app

import (
	"context"
	"fmt"

	"github.com/allisson/fieldcrypt/internal/config"
	encryptionDomain "github.com/allisson/fieldcrypt/internal/encryption/domain"
	encryptionService "github.com/allisson/fieldcrypt/internal/encryption/service"
)

// Registry returns the key registry parsed from configuration.
func (c *Container) Registry() (encryptionDomain.Registry, error) {
	var err error
	c.registryInit.Do(func() {
		c.registry, err = c.initRegistry()
		if err != nil {
			c.initErrors["registry"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["registry"]; exists {
		return nil, storedErr
	}
	return c.registry, nil
}

// Router returns the multi-tenant encryptor router, with one KMS keeper
// opened per configured key id.
func (c *Container) Router() (*encryptionService.Router, error) {
	var err error
	c.routerInit.Do(func() {
		c.router, err = c.initRouter()
		if err != nil {
			c.initErrors["router"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["router"]; exists {
		return nil, storedErr
	}
	return c.router, nil
}

// initRegistry parses the registry configuration arrays.
func (c *Container) initRegistry() (encryptionDomain.Registry, error) {
	registry, err := encryptionDomain.ParseRegistry(
		config.SplitList(c.config.EncryptionContextKeys),
		config.SplitList(c.config.EncryptionKeyIDs),
		config.SplitList(c.config.EncryptionAccountIDs),
		config.SplitList(c.config.EncryptionPartitions),
		config.SplitList(c.config.EncryptionRestrictedFlags),
		config.SplitList(c.config.EncryptionBeaconKeys),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse encryption registry: %w", err)
	}
	return registry, nil
}

// initRouter builds the router over the configured registry.
func (c *Container) initRouter() (*encryptionService.Router, error) {
	registry, err := c.Registry()
	if err != nil {
		return nil, err
	}

	router, err := encryptionService.NewRouter(
		context.Background(),
		registry,
		encryptionService.NewKMSKeeperOpener(),
		encryptionService.TemplateKeyURIResolver(c.config.KMSKeyURITemplate),
		c.Logger(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build encryptor router: %w", err)
	}
	return router, nil
}
