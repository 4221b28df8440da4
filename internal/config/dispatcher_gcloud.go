//go:build gcloud

package config

import (
	"errors"
	"fmt"
)

func (c *DispatcherConfig) Validate() error {
	if !c.UseCloudTasks() {
		if c.PushGatewayURL == "" {
			return fmt.Errorf("%w when GCLOUD_QUEUE_ID is unset", ErrPushGatewayMissing)
		}
		return nil
	}

	var errs []error

	if c.GCloudProjectID == "" {
		errs = append(errs, errors.New("GCLOUD_PROJECT_ID is required"))
	}
	if c.GCloudLocationID == "" {
		errs = append(errs, errors.New("GCLOUD_LOCATION_ID is required"))
	}
	if c.GCloudTargetURL == "" {
		errs = append(errs, errors.New("GCLOUD_TARGET_URL is required"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("cloud tasks configuration errors: %w", errors.Join(errs...))
	}

	return nil
}
