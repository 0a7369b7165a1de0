package config

import (
	"encoding/json"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dmitrijs2005/todolist/internal/flagx"
	"github.com/dmitrijs2005/todolist/internal/timex"
)

// FileConfig mirrors Config for decoding config files. Durations use
// timex.Duration so both "30m" and integer nanoseconds are accepted.
// Pointers distinguish "absent" from zero values so only present keys
// override what is already in Config.
type FileConfig struct {
	EndpointAddrHTTP            *string         `json:"endpoint_addr_http" yaml:"endpoint_addr_http"`
	EndpointAddrGRPC            *string         `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	DatabaseDSN                 *string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey                   *string         `json:"secret_key" yaml:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	LogLevel                    *string         `json:"log_level" yaml:"log_level"`

	S3RootUser     *string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword *string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket       *string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region       *string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint *string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	ExportLinkTTL  *timex.Duration `json:"export_link_ttl" yaml:"export_link_ttl"`

	MaxItemsPerTodolist   *int            `json:"max_items_per_todolist" yaml:"max_items_per_todolist"`
	CreationCooldown      *timex.Duration `json:"creation_cooldown" yaml:"creation_cooldown"`
	MaxContentLength      *int            `json:"max_content_length" yaml:"max_content_length"`
	NotificationThreshold *int            `json:"notification_threshold" yaml:"notification_threshold"`

	MailTransport *string `json:"mail_transport" yaml:"mail_transport"`
	RedisAddr     *string `json:"redis_addr" yaml:"redis_addr"`
	RedisMailKey  *string `json:"redis_mail_key" yaml:"redis_mail_key"`
	NATSURL       *string `json:"nats_url" yaml:"nats_url"`
	NATSSubject   *string `json:"nats_subject" yaml:"nats_subject"`

	RateLimitRPS   *float64 `json:"rate_limit_rps" yaml:"rate_limit_rps"`
	RateLimitBurst *int     `json:"rate_limit_burst" yaml:"rate_limit_burst"`
}

// parseFile loads configuration values from the file named by -c/-config.
// The decoder is chosen by extension (.yaml/.yml or JSON). If no file is
// given nothing happens; unreadable or malformed files cause a panic.
func parseFile(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	fc := &FileConfig{}
	switch flagx.ConfigFormat(path) {
	case flagx.FormatYAML:
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		panic(err)
	}

	fc.apply(config)
}

func (fc *FileConfig) apply(c *Config) {
	setString(&c.EndpointAddrHTTP, fc.EndpointAddrHTTP)
	setString(&c.EndpointAddrGRPC, fc.EndpointAddrGRPC)
	setString(&c.DatabaseDSN, fc.DatabaseDSN)
	setString(&c.SecretKey, fc.SecretKey)
	setDuration(&c.AccessTokenValidityDuration, fc.AccessTokenValidityDuration)
	setString(&c.LogLevel, fc.LogLevel)

	setString(&c.S3RootUser, fc.S3RootUser)
	setString(&c.S3RootPassword, fc.S3RootPassword)
	setString(&c.S3Bucket, fc.S3Bucket)
	setString(&c.S3Region, fc.S3Region)
	setString(&c.S3BaseEndpoint, fc.S3BaseEndpoint)
	setDuration(&c.ExportLinkTTL, fc.ExportLinkTTL)

	setInt(&c.MaxItemsPerTodolist, fc.MaxItemsPerTodolist)
	setDuration(&c.CreationCooldown, fc.CreationCooldown)
	setInt(&c.MaxContentLength, fc.MaxContentLength)
	setInt(&c.NotificationThreshold, fc.NotificationThreshold)

	setString(&c.MailTransport, fc.MailTransport)
	setString(&c.RedisAddr, fc.RedisAddr)
	setString(&c.RedisMailKey, fc.RedisMailKey)
	setString(&c.NATSURL, fc.NATSURL)
	setString(&c.NATSSubject, fc.NATSSubject)

	if fc.RateLimitRPS != nil {
		c.RateLimitRPS = *fc.RateLimitRPS
	}
	setInt(&c.RateLimitBurst, fc.RateLimitBurst)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
