package service

import (
	"context"
	"fmt"

	"gocloud.dev/secrets"

	// Register KMS provider drivers
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// kmsKeeperOpener implements KeeperOpener using gocloud.dev/secrets.
type kmsKeeperOpener struct{}

// NewKMSKeeperOpener creates a keeper opener backed by gocloud.dev/secrets.
// Supported schemes: awskms://, gcpkms://, azurekeyvault://, hashivault://, base64key://
func NewKMSKeeperOpener() KeeperOpener {
	return &kmsKeeperOpener{}
}

func (k *kmsKeeperOpener) OpenKeeper(ctx context.Context, keyURI string) (Keeper, error) {
	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	return keeper, nil
}

// TemplateKeyURIResolver builds a KeyURIResolver from a printf-style
// template with a single %s placeholder for the key id.
func TemplateKeyURIResolver(template string) KeyURIResolver {
	return func(keyID string) string {
		return fmt.Sprintf(template, keyID)
	}
}
