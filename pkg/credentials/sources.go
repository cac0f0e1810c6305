package credentials

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/ec2rolecreds"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
	"github.com/pkg/errors"
)

// Property keys read by the properties source.
const (
	AccessKeyProperty = "aws.accessKeyId"
	SecretKeyProperty = "aws.secretKey"
)

const (
	SourceEnvironment      = "environment"
	SourceProperties       = "properties"
	SourceStatic           = "static"
	SourceProfile          = "profile"
	SourceInstanceMetadata = "instance-metadata"
)

// Properties is a process-wide key/value store. *viper.Viper satisfies it.
type Properties interface {
	GetString(key string) string
}

// Settings configures the default chain.
type Settings struct {
	AccessKey        string
	SecretKey        string
	Profile          string
	CredentialsFiles []string
	ConfigFiles      []string
	MetadataEndpoint string
}

// DefaultChain returns the standard lookup order: environment, process
// properties, the statically configured keys, the shared profile and
// finally the instance metadata service.
func DefaultChain(s Settings, props Properties) Chain {
	return Chain{
		Environment(),
		FromProperties(props),
		Static(s.AccessKey, s.SecretKey),
		Profile(s.Profile, s.CredentialsFiles, s.ConfigFiles),
		InstanceMetadata(s.MetadataEndpoint),
	}
}

// Environment reads AWS_ACCESS_KEY_ID (or AWS_ACCESS_KEY) and
// AWS_SECRET_ACCESS_KEY (or AWS_SECRET_KEY).
func Environment() Source {
	return Source{
		Name: SourceEnvironment,
		Lookup: func(context.Context) (aws.Credentials, error) {
			env, err := config.NewEnvConfig()
			if err != nil {
				return aws.Credentials{}, errors.Wrap(err, "reading environment")
			}
			return env.Credentials, nil
		},
	}
}

// FromProperties reads AccessKeyProperty and SecretKeyProperty. A nil
// store yields nothing.
func FromProperties(props Properties) Source {
	return Source{
		Name: SourceProperties,
		Lookup: func(context.Context) (aws.Credentials, error) {
			if props == nil {
				return aws.Credentials{}, nil
			}
			return aws.Credentials{
				AccessKeyID:     props.GetString(AccessKeyProperty),
				SecretAccessKey: props.GetString(SecretKeyProperty),
			}, nil
		},
	}
}

// Static offers a fixed key pair. Either key being empty means the source
// has nothing to offer.
func Static(accessKey, secretKey string) Source {
	return Source{
		Name: SourceStatic,
		Lookup: func(ctx context.Context) (aws.Credentials, error) {
			if accessKey == "" || secretKey == "" {
				return aws.Credentials{}, nil
			}
			return awscreds.NewStaticCredentialsProvider(accessKey, secretKey, "").Retrieve(ctx)
		},
	}
}

// Profile reads keys from a shared credentials/config profile. An empty
// name falls back to AWS_PROFILE and then to "default". Empty file lists
// use the SDK's default locations.
func Profile(name string, credentialsFiles, configFiles []string) Source {
	return Source{
		Name: SourceProfile,
		Lookup: func(ctx context.Context) (aws.Credentials, error) {
			profile := name
			if profile == "" {
				profile = os.Getenv("AWS_PROFILE")
			}
			if profile == "" {
				profile = config.DefaultSharedConfigProfile
			}

			sc, err := config.LoadSharedConfigProfile(ctx, profile, func(o *config.LoadSharedConfigOptions) {
				if len(credentialsFiles) > 0 {
					o.CredentialsFiles = credentialsFiles
				}
				if len(configFiles) > 0 {
					o.ConfigFiles = configFiles
				}
			})
			if err != nil {
				var notExist config.SharedConfigProfileNotExistError
				if errors.As(err, &notExist) {
					return aws.Credentials{}, nil
				}
				return aws.Credentials{}, errors.Wrapf(err, "loading profile '%s'", profile)
			}
			return sc.Credentials, nil
		},
	}
}

// InstanceMetadata fetches role credentials from the EC2 instance metadata
// service. An empty endpoint uses the SDK default.
func InstanceMetadata(endpoint string) Source {
	return Source{
		Name: SourceInstanceMetadata,
		Lookup: func(ctx context.Context) (aws.Credentials, error) {
			provider := ec2rolecreds.New(func(o *ec2rolecreds.Options) {
				o.Client = imds.New(imds.Options{Endpoint: endpoint})
			})
			creds, err := provider.Retrieve(ctx)
			if err != nil {
				return aws.Credentials{}, errors.Wrap(err, "querying instance metadata")
			}
			return creds, nil
		},
	}
}
