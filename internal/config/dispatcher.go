package config

type DispatcherConfig struct {
	PushGatewayURL string `envconfig:"PUSH_GATEWAY_URL"`
	MaxRetries     int    `envconfig:"PUSH_MAX_RETRIES" default:"3"`

	GCloudProjectID  string `envconfig:"GCLOUD_PROJECT_ID"`
	GCloudLocationID string `envconfig:"GCLOUD_LOCATION_ID"`
	GCloudQueueID    string `envconfig:"GCLOUD_QUEUE_ID"`
	GCloudTargetURL  string `envconfig:"GCLOUD_TARGET_URL"`
}

// UseCloudTasks reports whether a Cloud Tasks queue is configured.
func (c *DispatcherConfig) UseCloudTasks() bool {
	return c.GCloudQueueID != ""
}
