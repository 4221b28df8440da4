package config

import "github.com/KasumiMercury/primind-scan-reminder/internal/infra/runrecorder"

type RecorderConfig struct {
	Disabled bool `envconfig:"RUN_RESULTS_DISABLED" default:"false"`

	InfluxDBURL    string `envconfig:"INFLUXDB_URL" default:"http://localhost:8086"`
	InfluxDBToken  string `envconfig:"INFLUXDB_TOKEN"`
	InfluxDBOrg    string `envconfig:"INFLUXDB_ORG"`
	InfluxDBBucket string `envconfig:"INFLUXDB_BUCKET" default:"reminder"`

	BigQueryProjectID string `envconfig:"BIGQUERY_PROJECT_ID"`
	BigQueryDataset   string `envconfig:"BIGQUERY_DATASET" default:"reminder"`
	BigQueryTable     string `envconfig:"BIGQUERY_TABLE" default:"job_runs"`
}

func (c *RecorderConfig) RunRecorder() runrecorder.Config {
	return runrecorder.Config{
		Disabled:          c.Disabled,
		InfluxDBURL:       c.InfluxDBURL,
		InfluxDBToken:     c.InfluxDBToken,
		InfluxDBOrg:       c.InfluxDBOrg,
		InfluxDBBucket:    c.InfluxDBBucket,
		BigQueryProjectID: c.BigQueryProjectID,
		BigQueryDataset:   c.BigQueryDataset,
		BigQueryTable:     c.BigQueryTable,
	}
}
