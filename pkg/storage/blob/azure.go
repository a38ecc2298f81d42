package blob

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"go.uber.org/zap"
)

// AzureConfig selects the storage account. ConnectionString wins over the
// shared key pair; it is the usual form for Azurite.
type AzureConfig struct {
	ConnectionString string `mapstructure:"connection-string"`
	AccountName      string `mapstructure:"account-name"`
	AccountKey       string `mapstructure:"account-key"`
	ServiceURL       string `mapstructure:"service-url"` // Defaults to https://<account>.blob.core.windows.net/
	Container        string `mapstructure:"container"`
}

// AzureStore writes objects as block blobs in one container.
type AzureStore struct {
	client    *azblob.Client
	container string
	log       *zap.Logger
}

func NewAzureStore(conf AzureConfig, log *zap.Logger) (*AzureStore, error) {
	client, err := newAzureClient(conf)
	if err != nil {
		return nil, err
	}
	return &AzureStore{client: client, container: conf.Container, log: log}, nil
}

func newAzureClient(conf AzureConfig) (*azblob.Client, error) {
	if conf.Container == "" {
		return nil, fmt.Errorf("azure blob container is required")
	}
	if conf.ConnectionString != "" {
		client, err := azblob.NewClientFromConnectionString(conf.ConnectionString, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Blob client from connection string: %w", err)
		}
		return client, nil
	}

	if conf.AccountName == "" || conf.AccountKey == "" {
		return nil, fmt.Errorf("azure blob storage needs a connection string or an account name and key")
	}
	cred, err := azblob.NewSharedKeyCredential(conf.AccountName, conf.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure shared key credential: %w", err)
	}

	serviceURL := conf.ServiceURL
	if serviceURL == "" {
		serviceURL = fmt.Sprintf("https://%s.blob.core.windows.net/", conf.AccountName)
	}
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure Blob client: %w", err)
	}
	return client, nil
}

// EnsureContainer creates the container when it does not exist.
func (s *AzureStore) EnsureContainer(ctx context.Context) error {
	_, err := s.client.CreateContainer(ctx, s.container, nil)
	if err == nil {
		s.log.Info("created blob container", zap.String("container", s.container))
		return nil
	}
	if bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return nil
	}
	return fmt.Errorf("failed to create container %s: %w", s.container, classify(err))
}

func (s *AzureStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.UploadBuffer(ctx, s.container, key, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return fmt.Errorf("failed to upload blob %s: %w", key, classify(err))
	}
	return nil
}

func (s *AzureStore) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.client.DownloadStream(ctx, s.container, key, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to download blob %s: %w", key, classify(err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", key, err)
	}
	return data, nil
}

func classify(err error) error {
	if bloberror.HasCode(err,
		bloberror.AuthenticationFailed,
		bloberror.AuthorizationFailure,
		bloberror.AuthorizationPermissionMismatch,
		bloberror.ContainerNotFound,
		bloberror.ContainerBeingDeleted,
	) {
		return errors.Join(ErrAccessDenied, err)
	}
	return err
}
