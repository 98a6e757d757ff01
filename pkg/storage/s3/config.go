package s3

import (
	"github.com/rikoimade/elabftw/pkg/settings"
)

const (
	// APIVersion is the S3 API revision the client speaks
	APIVersion = "2006-03-01"

	// PartSize is the multipart upload part size (100 MiB). Larger parts keep
	// big uploads under the service's maximum number of parts.
	PartSize int64 = 104857600

	DefaultRegion   = "asia-southeast1"
	DefaultEndpoint = "https://storage.googleapis.com"
)

// Setting keys, in lookup order. The first non-empty value wins.
var (
	BucketNameKeys = []string{"s3_bucket_name", "bucket_name"}
	PathPrefixKeys = []string{"s3_path_prefix", "path_prefix"}
	RegionKeys     = []string{"s3_region", "aws_region", "region"}
	EndpointKeys   = []string{"s3_endpoint", "aws_endpoint", "endpoint"}
	AccessKeyKeys  = []string{"s3_access_key", "access_key"}
	SecretKeyKeys  = []string{"s3_secret_key", "secret_key"}
	PathStyleKeys  = []string{"s3_use_path_style_endpoint", "aws_use_path_style_endpoint", "use_path_style_endpoint"}
	VerifyCertKeys = []string{"s3_verify_cert", "aws_verify_cert", "verify_cert"}
)

// Config holds S3 configuration
type Config struct {
	BucketName           string `json:"bucket_name"`
	PathPrefix           string `json:"path_prefix"`
	Region               string `json:"region"`   // Default: asia-southeast1
	Endpoint             string `json:"endpoint"` // Default: GCS interoperability endpoint
	AccessKey            string `json:"access_key"`
	SecretKey            string `json:"secret_key"`
	UsePathStyleEndpoint bool   `json:"use_path_style_endpoint"` // Default: false
	VerifyCert           bool   `json:"verify_cert"`             // Default: true
}

// DefaultConfig returns a config with every default applied and no bucket
func DefaultConfig() Config {
	return Config{
		Region:     DefaultRegion,
		Endpoint:   DefaultEndpoint,
		VerifyCert: true,
	}
}

// ConfigFromSettings reads the S3 config from a settings provider.
// Nothing is validated here; a missing bucket or bad credentials surface
// as SDK errors on first use.
func ConfigFromSettings(p settings.Provider) Config {
	def := DefaultConfig()
	return Config{
		BucketName:           settings.String(p, "", BucketNameKeys...),
		PathPrefix:           settings.String(p, "", PathPrefixKeys...),
		Region:               settings.String(p, def.Region, RegionKeys...),
		Endpoint:             settings.String(p, def.Endpoint, EndpointKeys...),
		AccessKey:            settings.String(p, "", AccessKeyKeys...),
		SecretKey:            settings.String(p, "", SecretKeyKeys...),
		UsePathStyleEndpoint: settings.Bool(p, def.UsePathStyleEndpoint, PathStyleKeys...),
		VerifyCert:           settings.Bool(p, def.VerifyCert, VerifyCertKeys...),
	}
}

// ClientOptions is everything handed to the client constructor
type ClientOptions struct {
	// Version is not passed to the SDK. aws-sdk-go-v2 pins the API
	// revision as s3.ServiceAPIVersion.
	Version              string
	Region               string
	Endpoint             string
	AccessKey            string
	SecretKey            string
	UseSharedConfigFiles bool
	UsePathStyleEndpoint bool
	VerifyCert           bool
}

// ClientOptions maps the config onto client constructor options
func (c Config) ClientOptions() ClientOptions {
	region := c.Region
	if region == "" {
		region = DefaultRegion
	}
	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	return ClientOptions{
		Version:              APIVersion,
		Region:               region,
		Endpoint:             endpoint,
		AccessKey:            c.AccessKey,
		SecretKey:            c.SecretKey,
		UseSharedConfigFiles: false,
		UsePathStyleEndpoint: c.UsePathStyleEndpoint,
		VerifyCert:           c.VerifyCert,
	}
}
