// Package lib groups supporting modules that do not fit into the HTTP or
// storage layers.
//
// It contains background job processing (Redis/Asynq), the cron-driven
// retention scheduler and small shared utilities.
package lib
