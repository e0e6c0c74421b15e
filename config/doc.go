/*
Package config loads InventoryStore configuration from a yaml file and the
environment, and constructs the application logger.

Precedence is file first, environment second; credentials come from the
environment only. A .env file in the working directory is honored when
present:

	AWS_ACCESS_KEY=...
	AWS_SECRET_KEY=...
	AWS_REGION=us-east-1
	AWS_DDB_TABLE=inventory

Config file shape:

	aws:
	  region: us-east-1
	  table: inventory
	engine:
	  maxBatchSize: 100
	  maxConcurrency: 4
	  sequentialPartitions: false
	  retryAttempts: 5
	  retryBaseDelay: 100ms
	  retryMaxDelay: 2s
	logging:
	  level: info
*/
package config
