package storage

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rikoimade/elabftw/pkg/settings"
)

// SettingStorageType selects the storage type for uploads
const SettingStorageType = "uploads_storage"

// DefaultStorageType is used when uploads_storage is not set
const DefaultStorageType = "local"

// StorageConstructor is a function that creates a storage from settings
type StorageConstructor func(p settings.Provider, logger zerolog.Logger) (Storage, error)

var storageRegistry = make(map[string]StorageConstructor)

// numeric storage identifiers stored by the web application
var storageAliases = map[string]string{
	"1": "local",
	"2": "s3",
}

// RegisterStorage registers a storage constructor
func RegisterStorage(storageType string, constructor StorageConstructor) {
	storageRegistry[storageType] = constructor
}

// ResolveType returns the storage type named by the uploads_storage setting
func ResolveType(p settings.Provider) string {
	t := strings.ToLower(settings.String(p, DefaultStorageType, SettingStorageType))
	if alias, ok := storageAliases[t]; ok {
		return alias
	}
	return t
}

// Factory creates storages from settings
type Factory struct {
	logger zerolog.Logger
}

// NewFactory creates a new factory instance
func NewFactory(logger zerolog.Logger) *Factory {
	return &Factory{logger: logger}
}

// Create instantiates the storage selected by the uploads_storage setting
func (f *Factory) Create(p settings.Provider) (Storage, error) {
	return f.CreateType(ResolveType(p), p)
}

// CreateType instantiates a storage of the given type, ignoring uploads_storage
func (f *Factory) CreateType(storageType string, p settings.Provider) (Storage, error) {
	if alias, ok := storageAliases[storageType]; ok {
		storageType = alias
	}

	constructor, ok := storageRegistry[storageType]
	if !ok {
		return nil, fmt.Errorf("unknown storage type: %s: %w", storageType, ErrInvalidConfig)
	}

	return constructor(p, f.logger.With().Str("storage", storageType).Logger())
}
