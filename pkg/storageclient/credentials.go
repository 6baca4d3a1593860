package storageclient

import (
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"

	"github.com/yourorg/azure-blob-kit/pkg/errors"
)

// DefaultCredential returns the ambient Azure credential chain
// (environment, workload identity, managed identity, CLI). Use with
// WithTokenCredential when the account key is not available.
func DefaultCredential() (azcore.TokenCredential, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, errors.NewConfigurationError("failed to create Azure credential", err)
	}
	return cred, nil
}

// AccountSAS mints an account-scoped shared access signature authorizing
// object deletion, returned as a query string for WithSASQuery. The
// signature is valid from five minutes in the past (clock skew) until
// now+expiry.
func AccountSAS(accountName, accountKey string, expiry time.Duration) (string, error) {
	cred, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return "", errors.NewConfigurationError("failed to create shared key credential", err)
	}

	permissions := sas.AccountPermissions{Delete: true}
	resourceTypes := sas.AccountResourceTypes{Object: true}

	now := time.Now().UTC()
	values := sas.AccountSignatureValues{
		Protocol:      sas.ProtocolHTTPS,
		StartTime:     now.Add(-5 * time.Minute),
		ExpiryTime:    now.Add(expiry),
		Permissions:   permissions.String(),
		ResourceTypes: resourceTypes.String(),
	}

	params, err := values.SignWithSharedKey(cred)
	if err != nil {
		return "", errors.NewConfigurationError(fmt.Sprintf("failed to sign SAS for account %s", accountName), err)
	}

	return params.Encode(), nil
}
