// Package operations orchestrates the data pipeline: scraping,
// cleaning, transformation, analytics, training and export run as
// sequential steps under a manager that handles retries, timeouts and
// progress broadcasting.
package operations
