package object_storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"filtergraph-box/internal/utils"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ObjectStorage any S3-like storage solution, reached through a Dapr output binding
type ObjectStorage struct {
	// Destination path for all downloads
	assetsPath string
	// Name of the Dapr component to use
	componentName string
	// Client to query the backend storage
	client utils.Binder
}

// NewDaprObjectStorage Prod ready constructor for an object-storage using Dapr. Downloads go to a new temp dir
func NewDaprObjectStorage(client utils.Binder, component string) (*ObjectStorage, error) {
	dir, err := os.MkdirTemp("", "downloader-")
	if err != nil {
		return nil, err
	}
	return NewObjectStorage(dir, component, client), nil
}

// NewObjectStorage General purpose object storage
func NewObjectStorage(assetsPath string, component string, client utils.Binder) *ObjectStorage {
	return &ObjectStorage{
		assetsPath:    assetsPath,
		componentName: component,
		client:        client,
	}
}

// AssetsPath Directory downloads are written into
func (od *ObjectStorage) AssetsPath() string {
	return od.assetsPath
}

// Download a file from the backend storage, returning its local path
func (od *ObjectStorage) Download(ctx context.Context, key string) (string, error) {
	res, err := od.client.InvokeBinding(ctx, &utils.InvokeBindingRequest{
		Name:      od.componentName,
		Operation: "get",
		Metadata:  map[string]string{"key": key},
	})
	if err != nil {
		return "", fmt.Errorf("cannot download %s : %w", key, err)
	}
	writePath := LocalPath(od.assetsPath, key)
	output, err := os.Create(writePath)
	if err != nil {
		return "", err
	}
	defer output.Close()
	// Dapr returns b64
	decoder := base64.NewDecoder(base64.StdEncoding, bytes.NewReader(res.Data))
	if _, err = io.Copy(output, decoder); err != nil {
		return "", fmt.Errorf("cannot decode %s : %w", key, err)
	}
	return writePath, nil
}

// Upload Uploads a file on the backend storage
func (od *ObjectStorage) Upload(ctx context.Context, path string, key string) error {
	b64bytes, err := readFileToB64(path)
	if err != nil {
		return err
	}
	_, err = od.client.InvokeBinding(ctx, &utils.InvokeBindingRequest{
		Name:      od.componentName,
		Operation: "create",
		Data:      b64bytes,
		Metadata:  map[string]string{"key": key},
	})
	if err != nil {
		return fmt.Errorf("cannot upload %s : %w", key, err)
	}
	return nil
}

// Delete a file in the remote object storage
func (od *ObjectStorage) Delete(ctx context.Context, key string) error {
	_, err := od.client.InvokeBinding(ctx, &utils.InvokeBindingRequest{
		Name:      od.componentName,
		Operation: "delete",
		Metadata:  map[string]string{"key": key},
	})
	return err
}

// LocalPath Where an object is stored inside dir. Path separators of the key are flattened
func LocalPath(dir string, key string) string {
	name := strings.NewReplacer("/", "_", "\\", "_").Replace(key)
	if name == "" || name == "." || name == ".." {
		name = "asset"
	}
	return filepath.Join(dir, name)
}

// Read a file into a base64 bytes-array
func readFileToB64(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	var buf bytes.Buffer
	b64enc := base64.NewEncoder(base64.StdEncoding, &buf)
	if _, err = io.Copy(b64enc, file); err != nil {
		return nil, err
	}
	if err = b64enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
