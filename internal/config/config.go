package config

import (
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds all the settings of the server. Every field is read from the environment variable of the same
// name, upper-cased
type Config struct {
	// HTTP port for the server
	AppPort  int    `mapstructure:"app_port"`
	LogLevel string `mapstructure:"log_level"`
	// Dapr components. The object store is mandatory to encode, the pubsub is optional
	ObjectStoreName     string `mapstructure:"object_store_name"`
	PubSubName          string `mapstructure:"pubsub_name"`
	PubSubTopicProgress string `mapstructure:"pubsub_topic_progress"`
	// GRPC port to use to communicate with DAPR
	DaprGrpcPort int `mapstructure:"dapr_grpc_port"`
	// Override default max grpc request size (4MB) for dapr client
	DaprMaxRequestSizeMB int `mapstructure:"dapr_max_request_size_mb"`
	// Number of time to retry calls made to the object store
	ObjStoreMaxRetry      int    `mapstructure:"obj_store_max_retry"`
	FFmpegPath            string `mapstructure:"ffmpeg_path"`
	FFprobePath           string `mapstructure:"ffprobe_path"`
	FilterScriptThreshold int    `mapstructure:"filter_script_threshold"`
	// Load the filter arities from ffmpeg at startup
	ProbeFilters bool `mapstructure:"probe_filters"`
}

var defaults = map[string]interface{}{
	"app_port":                 8080,
	"log_level":                "info",
	"object_store_name":        "",
	"pubsub_name":              "",
	"pubsub_topic_progress":    "encoding-state",
	"dapr_grpc_port":           50001,
	"dapr_max_request_size_mb": 2500,
	"obj_store_max_retry":      10,
	"ffmpeg_path":              "ffmpeg",
	"ffprobe_path":             "ffprobe",
	"filter_script_threshold":  4096,
	"probe_filters":            true,
}

// Load Read the configuration from the environment, after loading the .env files if any
func Load(log *logrus.Logger, envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		log.Warn("No .env file detected ! ")
	}
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
