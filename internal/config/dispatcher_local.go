//go:build !gcloud

package config

func (c *DispatcherConfig) Validate() error {
	if c.PushGatewayURL == "" {
		return ErrPushGatewayMissing
	}
	return nil
}
